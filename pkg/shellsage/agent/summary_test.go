package agent

import (
	"context"
	"strings"
	"testing"
)

func TestSummaryEmitsLLMReplyAndRecordsMemory(t *testing.T) {
	ac := newTestContext()
	ac.Steps = []Step{
		{Command: "apt-get update", Status: StatusDone, Output: "done"},
		{Command: "systemctl start foo", Status: StatusFailed, Error: "unit not found"},
	}
	ac.LLM = &fakeCompleter{reply: "Updated packages; foo service could not be started."}

	var emitted string
	ac.Emit = func(kind, content string) {
		if kind == "summary" {
			emitted = content
		}
	}

	s := NewSummary(testLogger())
	result := s.Run(context.Background(), ac)

	if result.NextAgent != "" {
		t.Fatalf("expected terminal result, got NextAgent=%q", result.NextAgent)
	}
	if emitted != "Updated packages; foo service could not be started." {
		t.Fatalf("unexpected summary emitted: %q", emitted)
	}
	if len(*ac.Memory) != 1 || (*ac.Memory)[0].Content != emitted {
		t.Fatalf("expected summary appended to memory, got %+v", *ac.Memory)
	}
}

func TestSummaryFallsBackToNumericOnLLMError(t *testing.T) {
	ac := newTestContext()
	ac.Steps = []Step{
		{Command: "a", Status: StatusDone},
		{Command: "b", Status: StatusDone},
		{Command: "c", Status: StatusFailed},
	}
	ac.LLM = &fakeCompleter{err: context.DeadlineExceeded}

	var emitted string
	ac.Emit = func(kind, content string) {
		if kind == "summary" {
			emitted = content
		}
	}

	s := NewSummary(testLogger())
	s.Run(context.Background(), ac)

	if emitted != "done 2/3, failed 1" {
		t.Fatalf("expected numeric fallback, got %q", emitted)
	}
}

func TestBuildSummaryLogMarksEmptyOutputAndKeepsError(t *testing.T) {
	steps := []Step{
		{Command: "echo hi", Status: StatusDone, Output: ""},
		{Command: "false", Status: StatusFailed, Error: "exit status 1"},
	}
	log := buildSummaryLog(steps)

	if !strings.Contains(log, "(empty)") {
		t.Fatalf("expected empty output marker, got %q", log)
	}
	if !strings.Contains(log, "exit status 1") {
		t.Fatalf("expected error line present, got %q", log)
	}
}
