package agent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jholhewres/shellsage/pkg/shellsage/prompts"
)

// Router classifies the user's goal as chat or task (spec.md §4.2).
type Router struct {
	logger *slog.Logger
}

// NewRouter creates a Router.
func NewRouter(logger *slog.Logger) *Router {
	return &Router{logger: logger.With("component", "agent_router")}
}

func (r *Router) Name() string { return NameRouter }

func (r *Router) Run(ctx context.Context, ac *Context) Result {
	ac.AppendMemory("user", ac.Goal)

	reply, err := ac.LLM.Complete(ctx, prompts.RouterSystemPrompt, toLLMHistory(*ac.Memory), ac.Goal, 0.0)
	if err != nil {
		// A thrown error defaults to Planner (spec.md §4.2).
		r.logger.Warn("router LLM call failed, defaulting to planner", "error", err)
		return Result{Success: true, NextAgent: NamePlanner}
	}

	if strings.Contains(strings.ToUpper(reply), "CHAT") {
		return Result{Success: true, NextAgent: NameChat}
	}
	return Result{Success: true, NextAgent: NamePlanner}
}
