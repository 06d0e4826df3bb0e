package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/jholhewres/shellsage/pkg/shellsage/agent"
	"github.com/jholhewres/shellsage/pkg/shellsage/history"
	"github.com/jholhewres/shellsage/pkg/shellsage/llmclient"
	"github.com/jholhewres/shellsage/pkg/shellsage/safety"
	"github.com/jholhewres/shellsage/pkg/shellsage/shell"
)

// newWatchCmd creates the `shellsage watch` command: it runs the fixed
// goal from config.watch.goal on a cron schedule, unattended, logging
// results to the turn history store rather than to a human (spec.md's
// interactive handlers still answer whatever sub-prompts come up, per
// the same safety gate as any other turn).
func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run a scheduled goal unattended",
		Long: `Runs config.watch.goal on the cron schedule in config.watch.schedule,
unattended. Each run is one full agent turn against the shared shell
session; results land in the turn history store.

Examples:
  shellsage watch`,
		RunE: runWatch,
	}
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	if !cfg.Watch.Enabled {
		return fmt.Errorf("watch.enabled is false in config; nothing to do")
	}
	if cfg.Watch.Goal == "" {
		return fmt.Errorf("watch.goal is empty in config")
	}

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

	var memory []agent.MemoryEntry
	bounds := agent.Bounds{
		MaxRetries:              cfg.Agent.MaxRetries,
		MaxReplans:              cfg.Agent.MaxReplans,
		MaxIterations:           cfg.Agent.MaxIterations,
		PartialSuccessThreshold: cfg.Agent.PartialSuccessThreshold,
	}

	runOnce := func() {
		logger.Info("watch: starting scheduled turn", "goal", cfg.Watch.Goal)

		ac := &agent.Context{
			Goal:   cfg.Watch.Goal,
			Memory: &memory,
			Bounds: bounds,
			LLM:    llm,
			Shell:  sh,
			Emit:   func(kind, content string) { logger.Info("watch event", "kind", kind) },
		}

		startedAt := time.Now()
		steps := orch.RunTurn(context.Background(), ac)

		if store != nil {
			done, failed := 0, 0
			for _, s := range steps {
				switch s.Status {
				case agent.StatusDone:
					done++
				case agent.StatusFailed:
					failed++
				}
			}
			rec := history.TurnRecord{
				TurnID:      fmt.Sprintf("watch-%d", startedAt.UnixNano()),
				Goal:        cfg.Watch.Goal,
				StartedAt:   startedAt,
				FinishedAt:  time.Now(),
				StepCount:   len(steps),
				DoneCount:   done,
				FailedCount: failed,
				FinalStatus: watchStatus(done, failed, len(steps)),
			}
			if err := store.RecordTurn(context.Background(), rec); err != nil {
				logger.Warn("failed to record watch turn", "error", err)
			}
		}

		logger.Info("watch: turn finished")
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Watch.Schedule, runOnce); err != nil {
		return fmt.Errorf("invalid watch.schedule %q: %w", cfg.Watch.Schedule, err)
	}

	scheduler.Start()
	logger.Info("watch: scheduler running", "schedule", cfg.Watch.Schedule, "goal", cfg.Watch.Goal)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("watch: shutdown signal received, stopping")
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()

	return nil
}

func watchStatus(done, failed, total int) string {
	switch {
	case total == 0:
		return "completed"
	case failed == 0:
		return "completed"
	case done == 0:
		return "blocked"
	default:
		return "incomplete"
	}
}
