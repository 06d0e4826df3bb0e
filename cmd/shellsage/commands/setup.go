package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/jholhewres/shellsage/pkg/shellsage/config"
	"github.com/jholhewres/shellsage/pkg/shellsage/keyring"
)

// newSetupCmd creates the `shellsage setup` interactive wizard command.
func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Interactive setup wizard",
		Long: `Starts an interactive wizard to create your initial config.yaml:
assistant name, shell path, LLM endpoint and model, and where to store
the API key.

Examples:
  shellsage setup`,
		RunE: runSetup,
	}
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg := config.DefaultConfig()

	var apiKey string
	var storeInKeyring bool
	var maxIterationsStr string

	storeChoice := "keyring"
	if !keyring.Available() {
		storeChoice = "env"
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Assistant name").
				Value(&cfg.Name),

			huh.NewInput().
				Title("Shell binary").
				Description("The interactive shell this assistant drives commands through").
				Value(&cfg.ShellPath),

			huh.NewInput().
				Title("LLM API base URL").
				Value(&cfg.API.BaseURL),

			huh.NewSelect[string]().
				Title("Model").
				Options(
					huh.NewOption("gpt-4o-mini (fast, cheap)", "gpt-4o-mini"),
					huh.NewOption("gpt-4o", "gpt-4o"),
					huh.NewOption("claude-sonnet-4.5", "claude-sonnet-4.5"),
				).
				Value(&cfg.Model),
		),

		huh.NewGroup(
			huh.NewInput().
				Title("LLM API key").
				Description("Leave empty to set it later with 'shellsage config set-key'").
				Password(true).
				Value(&apiKey),

			huh.NewSelect[string]().
				Title("Where should the API key be stored?").
				Options(
					huh.NewOption("OS keyring (most secure)", "keyring"),
					huh.NewOption(".env file", "env"),
					huh.NewOption("Skip for now", "skip"),
				).
				Value(&storeChoice),
		),

		huh.NewGroup(
			huh.NewInput().
				Title("Max agent iterations per turn").
				Value(&maxIterationsStr).
				Placeholder(strconv.Itoa(cfg.Agent.MaxIterations)),

			huh.NewConfirm().
				Title("Enable turn history (sqlite, for 'shellsage session history')?").
				Value(&cfg.History.Enabled),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}

	if maxIterationsStr != "" {
		if n, err := strconv.Atoi(maxIterationsStr); err == nil && n > 0 {
			cfg.Agent.MaxIterations = n
		}
	}

	if apiKey != "" {
		switch storeChoice {
		case "keyring":
			if err := keyring.MigrateToKeyring(apiKey, slog.Default()); err != nil {
				fmt.Printf("keyring store failed (%v); falling back to .env\n", err)
				storeInKeyring = false
				storeChoice = "env"
			} else {
				storeInKeyring = true
			}
		case "env":
			storeInKeyring = false
		}
	}

	target := "config.yaml"
	if _, err := os.Stat(target); err == nil {
		overwrite := false
		confirm := huh.NewConfirm().
			Title(fmt.Sprintf("%s already exists. Overwrite?", target)).
			Value(&overwrite)
		if err := confirm.Run(); err != nil || !overwrite {
			fmt.Println("Setup cancelled. Existing config.yaml kept.")
			return nil
		}
	}

	if err := config.SaveConfigToFile(cfg, target); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	if apiKey != "" && !storeInKeyring && storeChoice == "env" {
		envContent := fmt.Sprintf("# shellsage secrets — do not commit this file.\nLLM_API_KEY=%s\n", apiKey)
		if err := os.WriteFile(".env", []byte(envContent), 0o600); err != nil {
			fmt.Printf("failed to write .env: %v\nset manually: export LLM_API_KEY=%s\n", err, apiKey)
		} else {
			fmt.Println(".env created with your API key (permissions: 600).")
		}
	}

	fmt.Println("\nconfig.yaml created successfully.")
	fmt.Println("Run: shellsage serve")
	return nil
}
