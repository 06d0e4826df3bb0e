package agent

import (
	"context"
	"log/slog"
	"testing"

	"github.com/jholhewres/shellsage/pkg/shellsage/llmclient"
	"github.com/jholhewres/shellsage/pkg/shellsage/safety"
)

func testLogger() *slog.Logger { return slog.Default() }

type fakeCompleter struct {
	reply string
	err   error
}

func (f *fakeCompleter) Complete(ctx context.Context, systemPrompt string, history []llmclient.MemoryEntry, userMessage string, temperature float64) (string, error) {
	return f.reply, f.err
}

func TestClassifyTimeout(t *testing.T) {
	cases := map[string]int64{
		"apt-get update":          180,
		"yum install foo":        180,
		"wget http://example.com": 180,
		"systemctl restart nginx": 60,
		"make -j4":                300,
		"echo hello":              60,
	}
	for cmd, wantSeconds := range cases {
		got := classifyTimeout(cmd)
		if got.Seconds() != float64(wantSeconds) {
			t.Errorf("classifyTimeout(%q) = %v, want %ds", cmd, got, wantSeconds)
		}
	}
}

func TestCountStatuses(t *testing.T) {
	steps := []Step{
		{Status: StatusDone},
		{Status: StatusDone},
		{Status: StatusFailed},
		{Status: StatusPending},
	}
	done, failed, total := countStatuses(steps)
	if done != 2 || failed != 1 || total != 4 {
		t.Fatalf("got done=%d failed=%d total=%d", done, failed, total)
	}
}

func TestExtractReason(t *testing.T) {
	if got := extractReason("INCOMPLETE:package not found"); got != "package not found" {
		t.Fatalf("got %q", got)
	}
	if got := extractReason("INCOMPLETE"); got != "" {
		t.Fatalf("expected empty reason, got %q", got)
	}
}

func TestFallbackEvaluationCompletesAboveThreshold(t *testing.T) {
	ac := newTestContext()
	ac.Bounds.PartialSuccessThreshold = 0.7
	ac.Steps = []Step{
		{Status: StatusDone}, {Status: StatusDone}, {Status: StatusDone}, {Status: StatusFailed},
	}

	e := NewExecutor(testLogger(), safety.NewGate())
	result := e.fallbackEvaluation(ac)
	if result.NextAgent != NameSummary {
		t.Fatalf("expected routing to Summary, got %q", result.NextAgent)
	}
}

func TestFallbackEvaluationReplansBelowThreshold(t *testing.T) {
	ac := newTestContext()
	ac.Bounds.PartialSuccessThreshold = 0.9
	ac.Bounds.MaxReplans = 3
	ac.Steps = []Step{
		{Status: StatusDone}, {Status: StatusFailed}, {Status: StatusFailed},
	}

	e := NewExecutor(testLogger(), safety.NewGate())
	result := e.fallbackEvaluation(ac)
	if result.NextAgent != NamePlanner {
		t.Fatalf("expected routing to Planner, got %q", result.NextAgent)
	}
}

func TestHandleIncompleteStopsAtReplanBound(t *testing.T) {
	ac := newTestContext()
	ac.Bounds.MaxReplans = 2
	ac.LastFailureReason = "disk full"
	ac.ReplanCount = 1 // one more identical failure should hit the bound

	e := NewExecutor(testLogger(), safety.NewGate())
	result := e.handleIncomplete(ac, "disk full")
	if result.NextAgent != NameSummary {
		t.Fatalf("expected routing to Summary once replan bound reached, got %q", result.NextAgent)
	}
}

func TestEvaluateCompletionParsesCompleted(t *testing.T) {
	ac := newTestContext()
	ac.LLM = &fakeCompleter{reply: "COMPLETED"}

	e := NewExecutor(testLogger(), safety.NewGate())
	result := e.evaluateCompletion(context.Background(), ac)
	if result.NextAgent != NameSummary {
		t.Fatalf("expected Summary, got %q", result.NextAgent)
	}
}

func TestEvaluateCompletionParsesIncompleteAndReplans(t *testing.T) {
	ac := newTestContext()
	ac.LLM = &fakeCompleter{reply: "INCOMPLETE:service still down"}

	e := NewExecutor(testLogger(), safety.NewGate())
	result := e.evaluateCompletion(context.Background(), ac)
	if result.NextAgent != NamePlanner {
		t.Fatalf("expected Planner, got %q", result.NextAgent)
	}
	if ac.LastFailureReason != "service still down" {
		t.Fatalf("expected failure reason recorded, got %q", ac.LastFailureReason)
	}
}

func TestEvaluateCompletionFallsBackOnLLMError(t *testing.T) {
	ac := newTestContext()
	ac.LLM = &fakeCompleter{err: context.DeadlineExceeded}
	ac.Steps = []Step{{Status: StatusDone}, {Status: StatusDone}}

	e := NewExecutor(testLogger(), safety.NewGate())
	result := e.evaluateCompletion(context.Background(), ac)
	if result.NextAgent != NameSummary {
		t.Fatalf("expected fallback heuristic to route to Summary, got %q", result.NextAgent)
	}
}
