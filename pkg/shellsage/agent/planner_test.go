package agent

import "testing"

func TestParsePlanBasic(t *testing.T) {
	response := "1. Update packages::apt-get update\n" +
		"2) Install nginx::apt-get install -y nginx\n" +
		"- Check status::systemctl status nginx"

	steps := ParsePlan(response)
	if len(steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(steps))
	}
	if steps[0].Title != "Update packages" || steps[0].Command != "apt-get update" {
		t.Fatalf("unexpected first step: %+v", steps[0])
	}
	if steps[2].Command != "systemctl status nginx" {
		t.Fatalf("unexpected third step: %+v", steps[2])
	}
}

func TestParsePlanStripsBackticks(t *testing.T) {
	steps := ParsePlan("Check disk::`df -h`")
	if len(steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(steps))
	}
	if steps[0].Command != "df -h" {
		t.Fatalf("expected backticks stripped, got %q", steps[0].Command)
	}
}

func TestParsePlanSkipsLinesWithoutDelimiter(t *testing.T) {
	steps := ParsePlan("Just some prose with no delimiter\nReal step::echo hi")
	if len(steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(steps))
	}
	if steps[0].Command != "echo hi" {
		t.Fatalf("unexpected command: %q", steps[0].Command)
	}
}

func TestFilterStepsDropsPlaceholdersAndCatastrophic(t *testing.T) {
	steps := []Step{
		{Title: "ok", Command: "echo hi"},
		{Title: "placeholder", Command: "rm /path/to/file"},
		{Title: "catastrophic", Command: "rm -rf /"},
		{Title: "empty", Command: ""},
	}
	out := filterSteps(steps)
	if len(out) != 1 {
		t.Fatalf("expected 1 surviving step, got %d: %+v", len(out), out)
	}
	if out[0].Command != "echo hi" {
		t.Fatalf("unexpected surviving step: %+v", out[0])
	}
}

func TestStripListDecoration(t *testing.T) {
	cases := map[string]string{
		"1. foo::bar":  "foo::bar",
		"  * foo::bar": "foo::bar",
		"foo::bar":     "foo::bar",
		"10) foo::bar": "foo::bar",
	}
	for in, want := range cases {
		if got := stripListDecoration(in); got != want {
			t.Errorf("stripListDecoration(%q) = %q, want %q", in, got, want)
		}
	}
}
