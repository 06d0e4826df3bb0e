package agent

import (
	"context"
	"log/slog"
	"testing"
)

type fakeAgent struct {
	name string
	run  func(ctx context.Context, ac *Context) Result
}

func (f *fakeAgent) Name() string { return f.name }
func (f *fakeAgent) Run(ctx context.Context, ac *Context) Result {
	return f.run(ctx, ac)
}

func newTestContext() *Context {
	memory := []MemoryEntry{}
	return &Context{
		Goal:   "test goal",
		Memory: &memory,
		Bounds: DefaultBounds(),
		Emit:   func(kind, content string) {},
	}
}

func TestOrchestratorTerminatesOnEmptyNextAgent(t *testing.T) {
	ac := newTestContext()
	var calls []string

	router := &fakeAgent{name: NameRouter, run: func(ctx context.Context, ac *Context) Result {
		calls = append(calls, NameRouter)
		return Result{Success: true, NextAgent: NameChat}
	}}
	chat := &fakeAgent{name: NameChat, run: func(ctx context.Context, ac *Context) Result {
		calls = append(calls, NameChat)
		return Result{Success: true, NextAgent: ""}
	}}

	orch := NewOrchestrator(slog.Default(), router, chat)
	orch.RunTurn(context.Background(), ac)

	if len(calls) != 2 || calls[0] != NameRouter || calls[1] != NameChat {
		t.Fatalf("unexpected call sequence: %v", calls)
	}
}

func TestOrchestratorRespectsIterationCap(t *testing.T) {
	ac := newTestContext()
	ac.Bounds.MaxIterations = 3
	count := 0

	looper := &fakeAgent{name: NameRouter, run: func(ctx context.Context, ac *Context) Result {
		count++
		return Result{Success: true, NextAgent: NameRouter}
	}}

	orch := NewOrchestrator(slog.Default(), looper)
	orch.RunTurn(context.Background(), ac)

	if count != ac.Bounds.MaxIterations {
		t.Fatalf("expected exactly %d invocations, got %d", ac.Bounds.MaxIterations, count)
	}
}

func TestOrchestratorRecoversFromPanic(t *testing.T) {
	ac := newTestContext()

	panicker := &fakeAgent{name: NameRouter, run: func(ctx context.Context, ac *Context) Result {
		panic("boom")
	}}

	orch := NewOrchestrator(slog.Default(), panicker)

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic escaped orchestrator: %v", r)
		}
	}()

	orch.RunTurn(context.Background(), ac)
}

func TestOrchestratorEmitsStepCountInDoneEvent(t *testing.T) {
	ac := newTestContext()
	ac.Steps = []Step{{Title: "one"}}
	var doneContent string
	ac.Emit = func(kind, content string) {
		if kind == "done" {
			doneContent = content
		}
	}

	router := &fakeAgent{name: NameRouter, run: func(ctx context.Context, ac *Context) Result {
		return Result{Success: true, NextAgent: ""}
	}}

	orch := NewOrchestrator(slog.Default(), router)
	orch.RunTurn(context.Background(), ac)

	if doneContent != "done, 1 step" {
		t.Fatalf("expected singular step count, got %q", doneContent)
	}

	ac2 := newTestContext()
	ac2.Steps = []Step{{Title: "one"}, {Title: "two"}}
	ac2.Emit = func(kind, content string) {
		if kind == "done" {
			doneContent = content
		}
	}
	orch.RunTurn(context.Background(), ac2)
	if doneContent != "done, 2 steps" {
		t.Fatalf("expected plural step count, got %q", doneContent)
	}
}

func TestOrchestratorStopsOnUnsuccessfulResult(t *testing.T) {
	ac := newTestContext()
	var calls []string

	failer := &fakeAgent{name: NameRouter, run: func(ctx context.Context, ac *Context) Result {
		calls = append(calls, NameRouter)
		return Result{Success: false}
	}}

	orch := NewOrchestrator(slog.Default(), failer)
	orch.RunTurn(context.Background(), ac)

	if len(calls) != 1 {
		t.Fatalf("expected exactly one invocation, got %d", len(calls))
	}
}
