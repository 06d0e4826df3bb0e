package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jholhewres/shellsage/pkg/shellsage/config"
	"github.com/jholhewres/shellsage/pkg/shellsage/keyring"
)

// NewRootCmd builds the shellsage root command.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:     "shellsage",
		Short:   "An autonomous Linux operations assistant",
		Version: version,
		Long: `shellsage turns a natural-language goal into a sequence of shell
commands, runs them against a persistent interactive session, recovers
from failures, and reports back.`,
	}

	root.PersistentFlags().String("config", "", "path to config.yaml (auto-discovered if omitted)")
	root.PersistentFlags().Bool("verbose", false, "enable debug logging")

	root.AddCommand(
		newServeCmd(),
		newConfigCmd(),
		newSetupCmd(),
		newSessionCmd(),
		newWatchCmd(),
	)

	return root
}

// resolveConfig loads config from the --config flag, auto-discovers a
// file, or falls back to defaults; always resolves the API key and
// loads a nearby .env file first, mirroring the teacher's idiom.
// LLM_BASE_URL, LLM_MODEL, LLM_TIMEOUT (seconds) and SHELLSAGE_HISTORY_DB,
// when set, override the corresponding config values.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	_ = godotenv.Load()

	configPath, _ := cmd.Root().PersistentFlags().GetString("config")

	var cfg *config.Config
	var err error

	switch {
	case configPath != "":
		cfg, err = config.LoadConfigFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	default:
		if found := config.FindConfigFile(); found != "" {
			cfg, err = config.LoadConfigFromFile(found)
			if err != nil {
				return nil, fmt.Errorf("loading config from %s: %w", found, err)
			}
		} else {
			cfg = config.DefaultConfig()
		}
	}

	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.Model = v
	}
	if secs, err := strconv.Atoi(os.Getenv("LLM_TIMEOUT")); err == nil && secs > 0 {
		cfg.DefaultTimeout = time.Duration(secs) * time.Second
	}
	if v := os.Getenv("SHELLSAGE_HISTORY_DB"); v != "" {
		cfg.History.DBPath = v
	}

	keyring.ResolveAPIKey(cfg, newLogger(cmd, cfg))

	return cfg, nil
}

// newLogger builds the shared slog.Logger from config and the
// --verbose flag.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	level := slog.LevelInfo
	if verbose || cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}
