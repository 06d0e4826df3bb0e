package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jholhewres/shellsage/pkg/shellsage/history"
	"github.com/jholhewres/shellsage/pkg/shellsage/llmclient"
	"github.com/jholhewres/shellsage/pkg/shellsage/transport"
)

// newServeCmd creates the `shellsage serve` command that starts the
// WebSocket daemon.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the WebSocket daemon",
		Long: `Start shellsage as a daemon, accepting operator connections over
WebSocket at /session and driving the agent loop against a persistent
shell for each connection.

Examples:
  shellsage serve
  shellsage serve --config ./config.yaml`,
		RunE: runServe,
	}
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
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

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cfg.History.DBPath)
		if err != nil {
			logger.Error("failed to open history store, continuing without it", "error", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	server := transport.NewServer(cfg, llm, store, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe(ctx)
	}()

	logger.Info("shellsage running", "addr", cfg.Transport.ListenAddr, "model", cfg.Model)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("shutdown signal received, stopping...")
		cancel()
		return <-errCh
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server exited: %w", err)
		}
		return nil
	}
}
