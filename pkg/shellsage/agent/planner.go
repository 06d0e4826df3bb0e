package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jholhewres/shellsage/pkg/shellsage/prompts"
	"github.com/jholhewres/shellsage/pkg/shellsage/safety"
	"github.com/jholhewres/shellsage/pkg/shellsage/shell"
)

// Planner generates an ordered list of steps from the goal (spec.md
// §4.4). ensureShellStarted lazily starts the shared ShellSession on first use.
type Planner struct {
	logger      *slog.Logger
	shellPath   string
	startedOnce bool
}

// NewPlanner creates a Planner.
func NewPlanner(shellPath string, logger *slog.Logger) *Planner {
	return &Planner{logger: logger.With("component", "agent_planner"), shellPath: shellPath}
}

func (p *Planner) Name() string { return NamePlanner }

func (p *Planner) Run(ctx context.Context, ac *Context) Result {
	if err := p.ensureShellStarted(ctx, ac); err != nil {
		ac.Emit("error", fmt.Sprintf("cannot start shell: %v", err))
		return Result{Success: false, NextAgent: ""}
	}

	reply, err := ac.LLM.Complete(ctx, prompts.PlannerSystemPrompt, toLLMHistory(*ac.Memory), ac.Goal, 0.2)
	if err != nil {
		ac.Emit("error", fmt.Sprintf("cannot plan for %s", ac.Goal))
		return Result{Success: false, NextAgent: ""}
	}

	steps := ParsePlan(reply)
	steps = filterSteps(steps)

	if len(steps) == 0 {
		ac.Emit("error", fmt.Sprintf("cannot plan for %s", ac.Goal))
		return Result{Success: false, NextAgent: ""}
	}

	ac.Steps = steps
	ac.CurrentStepIdx = 0

	intro := fmt.Sprintf("I'll work on: %s (%d step(s) planned).", ac.Goal, len(steps))
	ac.Emit("reply", intro)
	ac.AppendMemory("assistant", intro)

	ac.Emit("tasks", encodeTasks(ac.TasksSnapshot()))

	return Result{Success: true, NextAgent: NameExecutor}
}

func (p *Planner) ensureShellStarted(ctx context.Context, ac *Context) error {
	if ac.Shell == nil {
		ac.Shell = shell.New(p.shellPath, p.logger)
	}
	if p.startedOnce {
		return nil
	}
	p.startedOnce = true
	return ac.Shell.Start(ctx)
}

// ParsePlan parses a Planner LLM response line-by-line: each valid line
// must contain "::"; leading list decoration is stripped; the first "::"
// splits title from command; backticks around the command are stripped.
func ParsePlan(response string) []Step {
	var steps []Step
	for _, raw := range strings.Split(response, "\n") {
		line := strings.TrimSpace(raw)
		line = stripListDecoration(line)
		if !strings.Contains(line, "::") {
			continue
		}

		idx := strings.Index(line, "::")
		title := strings.TrimSpace(line[:idx])
		command := strings.TrimSpace(line[idx+2:])
		command = strings.Trim(command, "`")
		command = strings.TrimSpace(command)

		if title == "" {
			title = command
		}

		steps = append(steps, Step{Title: title, Command: command, Status: StatusPending})
	}
	return steps
}

// stripListDecoration removes leading list markers: digits, '.', '-',
// ')', '*', and surrounding spaces.
func stripListDecoration(line string) string {
	i := 0
	for i < len(line) && strings.ContainsRune("0123456789.-) *", rune(line[i])) {
		i++
	}
	return strings.TrimSpace(line[i:])
}

// filterSteps drops steps whose command is empty, contains a placeholder
// fragment, or matches the Planner's catastrophic literal blocklist.
func filterSteps(steps []Step) []Step {
	out := make([]Step, 0, len(steps))
	for _, s := range steps {
		if s.Command == "" {
			continue
		}
		if safety.HasPlaceholder(s.Command) {
			continue
		}
		if safety.IsPlannerCatastrophic(s.Command) {
			continue
		}
		out = append(out, s)
	}
	return out
}
