package agent

import (
	"context"
	"testing"
)

func TestRepairSplicesCandidateStepsAfterFailure(t *testing.T) {
	ac := newTestContext()
	ac.Steps = []Step{
		{Title: "install package", Command: "apt-get install -y foo", Status: StatusFailed, Error: "E: Unable to locate package foo"},
		{Title: "start service", Command: "systemctl start foo"},
	}
	ac.CurrentStepIdx = 0
	ac.LLM = &fakeCompleter{reply: "1. update package index::apt-get update"}

	r := NewRepair(testLogger())
	result := r.Run(context.Background(), ac)

	if result.NextAgent != NameExecutor {
		t.Fatalf("expected routing back to Executor, got %q", result.NextAgent)
	}
	if len(ac.Steps) != 3 {
		t.Fatalf("expected one candidate step spliced in, got %d steps", len(ac.Steps))
	}
	if ac.Steps[1].Command != "apt-get update" {
		t.Fatalf("expected spliced step at index 1, got %+v", ac.Steps[1])
	}
	if ac.Steps[1].Title != repairTitlePrefix+"update package index" {
		t.Fatalf("expected repair title prefix, got %q", ac.Steps[1].Title)
	}
	if ac.CurrentStepIdx != 1 {
		t.Fatalf("expected CurrentStepIdx advanced to 1, got %d", ac.CurrentStepIdx)
	}
}

func TestRepairCapsAtMaxRepairSteps(t *testing.T) {
	ac := newTestContext()
	ac.Steps = []Step{
		{Title: "broken step", Command: "false", Status: StatusFailed, Error: "exit 1"},
	}
	ac.CurrentStepIdx = 0
	ac.LLM = &fakeCompleter{reply: "1. one::echo one\n2. two::echo two\n3. three::echo three"}

	r := NewRepair(testLogger())
	r.Run(context.Background(), ac)

	if len(ac.Steps) != 1+maxRepairSteps {
		t.Fatalf("expected %d steps after capping, got %d", 1+maxRepairSteps, len(ac.Steps))
	}
}

func TestRepairSkipsFailedStepOnLLMError(t *testing.T) {
	ac := newTestContext()
	ac.Steps = []Step{
		{Title: "broken step", Command: "false", Status: StatusFailed, Error: "exit 1"},
		{Title: "next step", Command: "echo hi"},
	}
	ac.CurrentStepIdx = 0
	ac.RetryCount = 1
	ac.LLM = &fakeCompleter{err: context.DeadlineExceeded}

	r := NewRepair(testLogger())
	result := r.Run(context.Background(), ac)

	if result.NextAgent != NameExecutor {
		t.Fatalf("expected routing back to Executor, got %q", result.NextAgent)
	}
	if len(ac.Steps) != 2 {
		t.Fatalf("expected no steps spliced in, got %d", len(ac.Steps))
	}
	if ac.CurrentStepIdx != 1 {
		t.Fatalf("expected CurrentStepIdx advanced past failed step, got %d", ac.CurrentStepIdx)
	}
	if ac.RetryCount != 0 {
		t.Fatalf("expected RetryCount reset, got %d", ac.RetryCount)
	}
}

func TestRepairSkipsFailedStepWhenNoCandidatesSurvive(t *testing.T) {
	ac := newTestContext()
	ac.Steps = []Step{
		{Title: "broken step", Command: "false", Status: StatusFailed, Error: "exit 1"},
	}
	ac.CurrentStepIdx = 0
	ac.LLM = &fakeCompleter{reply: "this response has no list items in it at all"}

	r := NewRepair(testLogger())
	result := r.Run(context.Background(), ac)

	if result.NextAgent != NameExecutor {
		t.Fatalf("expected routing back to Executor, got %q", result.NextAgent)
	}
	if ac.CurrentStepIdx != 1 {
		t.Fatalf("expected CurrentStepIdx advanced past failed step, got %d", ac.CurrentStepIdx)
	}
}
