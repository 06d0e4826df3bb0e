package agent

import (
	"context"
	"log/slog"

	"github.com/jholhewres/shellsage/pkg/shellsage/prompts"
)

// Chat produces a conversational reply without touching the terminal
// (spec.md §4.3). Terminal node.
type Chat struct {
	logger *slog.Logger
	name   string
}

// NewChat creates a Chat agent. assistantName is substituted into the
// identity layer of the system prompt.
func NewChat(assistantName string, logger *slog.Logger) *Chat {
	return &Chat{logger: logger.With("component", "agent_chat"), name: assistantName}
}

func (a *Chat) Name() string { return NameChat }

func (a *Chat) Run(ctx context.Context, ac *Context) Result {
	identity, err := prompts.Render(prompts.ChatIdentity, map[string]string{"name": a.name})
	if err != nil {
		identity = prompts.ChatIdentity
	}

	reply, err := ac.LLM.Complete(ctx, identity, toLLMHistory(*ac.Memory), ac.Goal, 0.7)
	if err != nil {
		a.logger.Warn("chat LLM call failed, using apology fallback", "error", err)
		reply = "Sorry, I'm having trouble reaching the language model right now. Please try again in a moment."
	}

	ac.Emit("reply", reply)
	ac.AppendMemory("assistant", reply)

	return Result{Success: true, NextAgent: ""}
}
