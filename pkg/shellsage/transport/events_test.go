package transport

import (
	"encoding/json"
	"testing"
)

func TestEncodeEvent(t *testing.T) {
	payload, err := encodeEvent(KindReply, "hello there")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded Event
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if decoded.Type != KindReply || decoded.Content != "hello there" {
		t.Fatalf("unexpected event: %+v", decoded)
	}
}

func TestGoalUnmarshal(t *testing.T) {
	var g Goal
	if err := json.Unmarshal([]byte(`{"goal":"update the system"}`), &g); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Goal != "update the system" {
		t.Fatalf("unexpected goal: %q", g.Goal)
	}
}

func TestParseGoal(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    string
	}{
		{"goal key", `{"goal":"update the system"}`, "update the system"},
		{"message key", `{"message":"restart nginx"}`, "restart nginx"},
		{"goal takes precedence", `{"goal":"a","message":"b"}`, "a"},
		{"raw text", `restart nginx`, "restart nginx"},
		{"empty object", `{}`, ""},
		{"empty raw text", ``, ""},
		{"whitespace only raw text", `   `, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := parseGoal([]byte(c.payload)); got != c.want {
				t.Errorf("parseGoal(%q) = %q, want %q", c.payload, got, c.want)
			}
		})
	}
}

func TestFinalStatus(t *testing.T) {
	cases := []struct {
		done, failed, total int
		want                string
	}{
		{0, 0, 0, "completed"},
		{3, 0, 3, "completed"},
		{0, 3, 3, "blocked"},
		{2, 1, 3, "incomplete"},
	}
	for _, c := range cases {
		if got := finalStatus(c.done, c.failed, c.total); got != c.want {
			t.Errorf("finalStatus(%d,%d,%d) = %q, want %q", c.done, c.failed, c.total, got, c.want)
		}
	}
}
