package agent

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
)

// Orchestrator drives one turn through the agent handoff graph starting
// at Router, dispatching by name until an agent returns a terminal
// result (NextAgent == "") or the iteration cap is hit (spec.md §4.8).
type Orchestrator struct {
	logger *slog.Logger
	agents map[string]Agent
}

// NewOrchestrator builds the dispatch table from the given agents,
// keyed by their own Name().
func NewOrchestrator(logger *slog.Logger, agents ...Agent) *Orchestrator {
	table := make(map[string]Agent, len(agents))
	for _, a := range agents {
		table[a.Name()] = a
	}
	return &Orchestrator{logger: logger.With("component", "agent_orchestrator"), agents: table}
}

// RunTurn executes one full turn against ac, which must already have
// Goal, Memory, LLM, Shell, Emit, and Bounds populated. It returns the
// final step list for history recording.
func (o *Orchestrator) RunTurn(ctx context.Context, ac *Context) []Step {
	current := NameRouter

	// Yield to the scheduler after every emission so transports that hand
	// events to another goroutine get a chance to flush them promptly.
	emit := ac.Emit
	ac.Emit = func(kind, content string) {
		emit(kind, content)
		runtime.Gosched()
	}

	for i := 0; i < ac.Bounds.MaxIterations; i++ {
		agent, ok := o.agents[current]
		if !ok {
			o.logger.Error("unknown agent in dispatch table", "agent", current)
			ac.Emit("error", fmt.Sprintf("internal error: no agent named %q", current))
			ac.Emit("done", doneMessage(ac))
			return ac.Steps
		}

		result := o.invoke(ctx, agent, ac)

		if !result.Success {
			ac.Emit("done", doneMessage(ac))
			return ac.Steps
		}

		if result.NextAgent == "" {
			ac.Emit("done", doneMessage(ac))
			return ac.Steps
		}

		current = result.NextAgent
	}

	o.logger.Warn("turn hit iteration cap", "goal", ac.Goal, "cap", ac.Bounds.MaxIterations)
	ac.Emit("error", "reached the maximum number of steps for this request and stopped")
	ac.Emit("done", doneMessage(ac))
	return ac.Steps
}

// invoke runs one agent, converting a panic into a clean error result so
// one agent's bug cannot take down the whole turn.
func (o *Orchestrator) invoke(ctx context.Context, agent Agent, ac *Context) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("agent panicked", "agent", agent.Name(), "recover", r)
			ac.Emit("error", fmt.Sprintf("internal error in %s, stopping", agent.Name()))
			result = Result{Success: false}
		}
	}()

	return agent.Run(ctx, ac)
}

// doneMessage renders the `done` event content required by spec.md §6/§8,
// e.g. "done, 1 step" or "done, 3 steps".
func doneMessage(ac *Context) string {
	n := len(ac.Steps)
	plural := "s"
	if n == 1 {
		plural = ""
	}
	return fmt.Sprintf("done, %d step%s", n, plural)
}
