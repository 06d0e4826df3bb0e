package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jholhewres/shellsage/pkg/shellsage/prompts"
	"github.com/jholhewres/shellsage/pkg/shellsage/safety"
	"github.com/jholhewres/shellsage/pkg/shellsage/shell"
)

// Executor runs steps in order, detects errors, evaluates overall goal
// completion, and decides the next agent (spec.md §4.5).
type Executor struct {
	logger *slog.Logger
	gate   *safety.Gate
}

// NewExecutor creates an Executor backed by gate. Pass safety.NewGate()
// for the default policy, or safety.NewGateFromPatterns to honor
// operator-configured extra patterns / an allow-destructive opt-out.
func NewExecutor(logger *slog.Logger, gate *safety.Gate) *Executor {
	return &Executor{logger: logger.With("component", "agent_executor"), gate: gate}
}

func (e *Executor) Name() string { return NameExecutor }

func (e *Executor) Run(ctx context.Context, ac *Context) Result {
	for ac.CurrentStepIdx < len(ac.Steps) {
		step := &ac.Steps[ac.CurrentStepIdx]
		step.Status = StatusRunning
		ac.Emit("tasks", encodeTasks(ac.TasksSnapshot()))
		ac.Emit("log", fmt.Sprintf("running: %s", step.Title))

		if step.Command == "" {
			step.Status = StatusFailed
			step.Error = "missing command"
			ac.Emit("tasks", encodeTasks(ac.TasksSnapshot()))
			if e.shouldRepair(ac) {
				return Result{Success: true, NextAgent: NameRepair}
			}
			ac.CurrentStepIdx++
			ac.RetryCount = 0
			continue
		}

		if blocked, reason := e.gate.Block(step.Command); blocked {
			step.Status = StatusFailed
			step.Error = "blocked by safety gate"
			e.logger.Warn("command blocked by safety gate", "command", step.Command, "reason", reason)
			ac.Emit("tasks", encodeTasks(ac.TasksSnapshot()))
			ac.CurrentStepIdx++
			ac.RetryCount = 0
			continue
		}

		timeout := classifyTimeout(step.Command)
		handlers := shell.HandlersForCommand(step.Command)

		output, err := ac.Shell.Run(ctx, step.Command, timeout, handlers, shell.EmitFunc(ac.Emit))
		if err != nil {
			step.Status = StatusFailed
			if err == shell.ErrTimeout {
				step.Error = "timeout"
			} else {
				step.Error = err.Error()
			}
			if e.shouldRepair(ac) {
				return Result{Success: true, NextAgent: NameRepair}
			}
			ac.CurrentStepIdx++
			ac.RetryCount = 0
			continue
		}

		step.Output = output
		ac.Emit("terminal", output)

		if msg, failed := detectError(output); failed {
			step.Status = StatusFailed
			step.Error = msg
			if e.shouldRepair(ac) {
				return Result{Success: true, NextAgent: NameRepair}
			}
			ac.CurrentStepIdx++
			ac.RetryCount = 0
			continue
		}

		step.Status = StatusDone
		ac.Outputs = append(ac.Outputs, Output{Title: step.Title, Content: output})
		ac.Emit("tasks", encodeTasks(ac.TasksSnapshot()))
		ac.CurrentStepIdx++
		ac.RetryCount = 0
	}

	return e.evaluateCompletion(ctx, ac)
}

// shouldRepair reports whether the current failure should hand off to
// Repair (retryCount below the bound).
func (e *Executor) shouldRepair(ac *Context) bool {
	return ac.RetryCount < ac.Bounds.MaxRetries
}

// classifyTimeout derives a per-command timeout from its command class
// (spec.md §4.5 step 4).
func classifyTimeout(command string) time.Duration {
	switch {
	case containsAny(command, "apt", "yum", "dnf", "pip", "npm", "wget", "curl", "git clone"):
		return 180 * time.Second
	case containsAny(command, "systemctl"):
		return 60 * time.Second
	case containsAny(command, "make", "cmake", "configure", "build"):
		return 300 * time.Second
	default:
		return 60 * time.Second
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// evaluateCompletion builds the execution summary, asks the LLM whether
// the goal is achieved, and routes to Planner, Summary, or back to
// Planner via a re-plan note (spec.md §4.5).
func (e *Executor) evaluateCompletion(ctx context.Context, ac *Context) Result {
	summaryText := buildEvalSummary(ac.Steps)

	reply, err := ac.LLM.Complete(ctx, prompts.EvaluatorSystemPrompt, toLLMHistory(*ac.Memory), summaryText, 0.1)
	if err != nil {
		return e.fallbackEvaluation(ac)
	}

	verdict := strings.TrimSpace(reply)
	upper := strings.ToUpper(verdict)

	switch {
	case strings.HasPrefix(upper, "COMPLETED"):
		return Result{Success: true, NextAgent: NameSummary}

	case strings.HasPrefix(upper, "INCOMPLETE"):
		reason := extractReason(verdict)
		return e.handleIncomplete(ac, reason)

	case strings.HasPrefix(upper, "BLOCKED"):
		return Result{Success: true, NextAgent: NameSummary}

	default:
		return e.fallbackEvaluation(ac)
	}
}

func (e *Executor) handleIncomplete(ac *Context, reason string) Result {
	if reason == ac.LastFailureReason {
		ac.ReplanCount++
	} else {
		ac.LastFailureReason = reason
		ac.ReplanCount = 0
	}

	if ac.ReplanCount < ac.Bounds.MaxReplans {
		ac.Steps = nil
		ac.CurrentStepIdx = 0
		ac.RetryCount = 0
		ac.AppendMemory("system", fmt.Sprintf("Previous attempt was incomplete: %s. Re-planning.", reason))
		return Result{Success: true, NextAgent: NamePlanner}
	}

	return Result{Success: true, NextAgent: NameSummary}
}

// fallbackEvaluation implements the unparseable-response heuristic
// (spec.md §4.5): done ≥ threshold or done > failed ⇒ COMPLETED, else
// INCOMPLETE:partial failure (subject to the same re-plan routing).
func (e *Executor) fallbackEvaluation(ac *Context) Result {
	done, failed, total := countStatuses(ac.Steps)
	if total == 0 {
		return Result{Success: true, NextAgent: NameSummary}
	}

	ratio := float64(done) / float64(total)
	if ratio >= ac.Bounds.PartialSuccessThreshold || done > failed {
		return Result{Success: true, NextAgent: NameSummary}
	}

	return e.handleIncomplete(ac, "partial failure")
}

func countStatuses(steps []Step) (done, failed, total int) {
	total = len(steps)
	for _, s := range steps {
		switch s.Status {
		case StatusDone:
			done++
		case StatusFailed:
			failed++
		}
	}
	return
}

func extractReason(verdict string) string {
	idx := strings.Index(verdict, ":")
	if idx < 0 || idx == len(verdict)-1 {
		return ""
	}
	return strings.TrimSpace(verdict[idx+1:])
}

// buildEvalSummary renders counts, per-step status, the first 150 chars
// of each output, and each error in full, truncated overall to 2000 chars.
func buildEvalSummary(steps []Step) string {
	done, failed, total := countStatuses(steps)

	var b strings.Builder
	fmt.Fprintf(&b, "total=%d done=%d failed=%d\n", total, done, failed)
	for _, s := range steps {
		fmt.Fprintf(&b, "- [%s] %s: %s", s.Status, s.Title, truncate(s.Output, 150))
		if s.Error != "" {
			fmt.Fprintf(&b, " (error: %s)", s.Error)
		}
		b.WriteString("\n")
	}

	return truncate(b.String(), 2000)
}
