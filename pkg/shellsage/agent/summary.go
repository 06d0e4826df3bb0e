package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jholhewres/shellsage/pkg/shellsage/prompts"
)

// Summary composes a human-readable wrap-up of the turn. Terminal node.
type Summary struct {
	logger *slog.Logger
}

// NewSummary creates a Summary agent.
func NewSummary(logger *slog.Logger) *Summary {
	return &Summary{logger: logger.With("component", "agent_summary")}
}

func (s *Summary) Name() string { return NameSummary }

func (s *Summary) Run(ctx context.Context, ac *Context) Result {
	done, failed, total := countStatuses(ac.Steps)
	log := buildSummaryLog(ac.Steps)

	reply, err := ac.LLM.Complete(ctx, prompts.SummarySystemPrompt, toLLMHistory(*ac.Memory), log, 0.3)
	if err != nil {
		s.logger.Warn("summary LLM call failed, using numeric fallback", "error", err)
		reply = fmt.Sprintf("done %d/%d, failed %d", done, total, failed)
	}

	ac.Emit("summary", reply)
	ac.AppendMemory("assistant", reply)

	return Result{Success: true, NextAgent: ""}
}

// buildSummaryLog renders one line per step (command, first 300 chars of
// output or "(empty)", and any error), truncated overall to 2500 chars.
func buildSummaryLog(steps []Step) string {
	var b strings.Builder
	for _, st := range steps {
		output := st.Output
		if output == "" {
			output = "(empty)"
		} else {
			output = truncate(output, 300)
		}
		fmt.Fprintf(&b, "- [%s] %s\n  output: %s\n", st.Status, st.Command, output)
		if st.Error != "" {
			fmt.Fprintf(&b, "  error: %s\n", st.Error)
		}
	}
	return truncate(b.String(), 2500)
}
