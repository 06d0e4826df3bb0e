package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jholhewres/shellsage/pkg/shellsage/agent"
	"github.com/jholhewres/shellsage/pkg/shellsage/history"
	"github.com/jholhewres/shellsage/pkg/shellsage/llmclient"
	"github.com/jholhewres/shellsage/pkg/shellsage/safety"
	"github.com/jholhewres/shellsage/pkg/shellsage/shell"
)

// newSessionCmd creates the `shellsage session` command group: an
// interactive local REPL, plus `session history` for past turns.
func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Run an interactive local session",
		Long: `Starts a local read-eval-print loop: each line you type is submitted
to the agent as a goal, driving a local shell directly (no WebSocket
transport involved).

Examples:
  shellsage session`,
		RunE: runSession,
	}

	cmd.AddCommand(newSessionHistoryCmd())

	return cmd
}

func runSession(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	llm := llmclient.New(llmclient.Config{
		BaseURL: cfg.API.BaseURL,
		APIKey:  cfg.API.APIKey,
		Model:   cfg.Model,
		Timeout: cfg.DefaultTimeout,
	}, logger)

	sh := shell.New(cfg.ShellPath, logger)
	defer sh.Close()
	gate := safety.NewGateFromPatterns(cfg.Safety.AllowDestructive, cfg.Safety.ExtraPatterns)

	orch := agent.NewOrchestrator(logger,
		agent.NewRouter(logger),
		agent.NewChat(cfg.Name, logger),
		agent.NewPlanner(cfg.ShellPath, logger),
		agent.NewExecutor(logger, gate),
		agent.NewRepair(logger),
		agent.NewSummary(logger),
	)

	var store *history.Store
	if cfg.History.Enabled {
		if store, err = history.Open(cfg.History.DBPath); err != nil {
			logger.Warn("history disabled: failed to open store", "error", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	rl, err := readline.New(fmt.Sprintf("%s> ", cfg.Name))
	if err != nil {
		return fmt.Errorf("starting readline: %w", err)
	}
	defer rl.Close()

	fmt.Printf("%s ready. Type a goal, or 'exit' to quit.\n", cfg.Name)

	var memory []agent.MemoryEntry
	ctx := context.Background()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		goal := strings.TrimSpace(line)
		if goal == "" {
			continue
		}
		if goal == "exit" || goal == "quit" {
			return nil
		}

		ac := &agent.Context{
			Goal:   goal,
			Memory: &memory,
			Bounds: agent.Bounds{
				MaxRetries:              cfg.Agent.MaxRetries,
				MaxReplans:              cfg.Agent.MaxReplans,
				MaxIterations:           cfg.Agent.MaxIterations,
				PartialSuccessThreshold: cfg.Agent.PartialSuccessThreshold,
			},
			LLM:   llm,
			Shell: sh,
			Emit:  replEmit,
		}

		startedAt := time.Now()
		steps := orch.RunTurn(ctx, ac)

		if store != nil {
			recordREPLTurn(ctx, store, goal, steps, startedAt, logger)
		}
	}
}

// replEmit prints events directly to the terminal for the local REPL.
func replEmit(kind, content string) {
	switch kind {
	case "reply", "summary":
		fmt.Println(content)
	case "terminal":
		fmt.Print(content)
	case "log":
		fmt.Printf("... %s\n", content)
	case "error":
		fmt.Printf("error: %s\n", content)
	case "tasks", "done":
		// The REPL doesn't render the structured task list a WebSocket
		// client would; the terminal output above is enough context.
	}
}

func recordREPLTurn(ctx context.Context, store *history.Store, goal string, steps []agent.Step, startedAt time.Time, logger *slog.Logger) {
	done, failed := 0, 0
	for _, s := range steps {
		switch s.Status {
		case agent.StatusDone:
			done++
		case agent.StatusFailed:
			failed++
		}
	}

	status := "completed"
	switch {
	case len(steps) > 0 && done == 0 && failed > 0:
		status = "blocked"
	case failed > 0:
		status = "incomplete"
	}

	rec := history.TurnRecord{
		TurnID:      uuid.NewString(),
		Goal:        goal,
		StartedAt:   startedAt,
		FinishedAt:  time.Now(),
		StepCount:   len(steps),
		DoneCount:   done,
		FailedCount: failed,
		FinalStatus: status,
	}
	if err := store.RecordTurn(ctx, rec); err != nil {
		logger.Warn("failed to record turn history", "error", err)
	}
}
