package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jholhewres/shellsage/pkg/shellsage/prompts"
)

const repairTitlePrefix = "repair: "

// maxRepairSteps caps how many corrective steps one Repair invocation
// may insert (spec.md §4.6).
const maxRepairSteps = 2

// Repair asks the LLM for corrective steps after a failed step and
// splices them into the plan immediately after the failed one.
type Repair struct {
	logger *slog.Logger
}

// NewRepair creates a Repair agent.
func NewRepair(logger *slog.Logger) *Repair {
	return &Repair{logger: logger.With("component", "agent_repair")}
}

func (r *Repair) Name() string { return NameRepair }

func (r *Repair) Run(ctx context.Context, ac *Context) Result {
	ac.RetryCount++

	failedIdx := ac.CurrentStepIdx
	var failed Step
	if failedIdx >= 0 && failedIdx < len(ac.Steps) {
		failed = ac.Steps[failedIdx]
	}

	prompt := buildRepairPrompt(failed, ac.Outputs)

	reply, err := ac.LLM.Complete(ctx, prompts.RepairSystemPrompt, toLLMHistory(*ac.Memory), prompt, 0.2)
	if err != nil {
		r.logger.Warn("repair LLM call failed, skipping failed step", "error", err)
		ac.CurrentStepIdx++
		ac.RetryCount = 0
		return Result{Success: true, NextAgent: NameExecutor}
	}

	candidates := ParsePlan(reply)
	candidates = filterRepairSteps(candidates)

	if len(candidates) == 0 {
		ac.CurrentStepIdx++
		ac.RetryCount = 0
		return Result{Success: true, NextAgent: NameExecutor}
	}

	if len(candidates) > maxRepairSteps {
		candidates = candidates[:maxRepairSteps]
	}

	for i := range candidates {
		candidates[i].Title = repairTitlePrefix + candidates[i].Title
		candidates[i].Status = StatusPending
	}

	insertAt := failedIdx + 1
	ac.Steps = append(ac.Steps[:insertAt], append(candidates, ac.Steps[insertAt:]...)...)
	ac.CurrentStepIdx++

	ac.Emit("tasks", encodeTasks(ac.TasksSnapshot()))

	return Result{Success: true, NextAgent: NameExecutor}
}

// buildRepairPrompt carries the failed step's title, command, truncated
// error, and the last five captured outputs for context.
func buildRepairPrompt(failed Step, outputs []Output) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Failed step: %s\nCommand: %s\nError: %s\n", failed.Title, failed.Command, truncate(failed.Error, 300))

	start := 0
	if len(outputs) > 5 {
		start = len(outputs) - 5
	}
	if start < len(outputs) {
		b.WriteString("\nRecent outputs:\n")
		for _, o := range outputs[start:] {
			fmt.Fprintf(&b, "- %s: %s\n", o.Title, truncate(o.Content, 150))
		}
	}

	return b.String()
}

// filterRepairSteps applies the Planner's filter unchanged: it drops
// empty commands, placeholder commands, and catastrophic literals before
// they reach the Executor.
func filterRepairSteps(steps []Step) []Step {
	return filterSteps(steps)
}
