package commands

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jholhewres/shellsage/pkg/shellsage/config"
	"github.com/jholhewres/shellsage/pkg/shellsage/keyring"
)

// newConfigCmd creates the `shellsage config` command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage shellsage configuration",
		Long: `Manage shellsage configuration.

Examples:
  shellsage config init
  shellsage config show
  shellsage config set-key`,
	}

	cmd.AddCommand(
		newConfigInitCmd(),
		newConfigShowCmd(),
		newConfigSetKeyCmd(),
		newConfigDeleteKeyCmd(),
		newConfigKeyStatusCmd(),
	)

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a default config.yaml",
		RunE: func(_ *cobra.Command, _ []string) error {
			target := "config.yaml"
			if _, err := os.Stat(target); err == nil {
				return fmt.Errorf("config.yaml already exists; remove it first or edit it directly")
			}

			cfg := config.DefaultConfig()
			if err := config.SaveConfigToFile(cfg, target); err != nil {
				return err
			}

			fmt.Printf("Created %s with default configuration.\n", target)
			fmt.Println("\nNext steps:")
			fmt.Println("  1. Set your LLM API key: shellsage config set-key")
			fmt.Println("  2. Run: shellsage serve")
			return nil
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := loadConfigForCLI(cmd)
			if err != nil {
				return err
			}

			fmt.Printf("# Loaded from: %s\n\n", path)

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		},
	}
}

func newConfigSetKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-key",
		Short: "Store the LLM API key in the OS keyring (encrypted)",
		Long: `Securely stores your LLM API key in the operating system's native
keyring. This is the most secure option: the key is encrypted by the OS
and never stored as plaintext on disk.

Examples:
  shellsage config set-key`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if !keyring.Available() {
				fmt.Println("OS keyring is not available on this system.")
				return fmt.Errorf("keyring not available")
			}

			reader := bufio.NewReader(os.Stdin)

			if existing := keyring.Get("api_key"); existing != "" {
				fmt.Printf("API key already in keyring: %s\n", maskSecret(existing))
				fmt.Print("Overwrite? (y/n) [n]: ")
				if ans := strings.TrimSpace(readLine(reader)); strings.ToLower(ans) != "y" {
					fmt.Println("Cancelled.")
					return nil
				}
			}

			fmt.Print("Enter API key: ")
			key := strings.TrimSpace(readLine(reader))
			if key == "" {
				return fmt.Errorf("no key provided")
			}

			if err := keyring.MigrateToKeyring(key, slog.Default()); err != nil {
				return err
			}

			fmt.Println()
			fmt.Println("API key stored in OS keyring (encrypted).")
			fmt.Println("The keyring is checked first, before LLM_API_KEY and config.yaml.")
			return nil
		},
	}
}

func newConfigDeleteKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-key",
		Short: "Remove the LLM API key from the OS keyring",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := keyring.Delete("api_key"); err != nil {
				return fmt.Errorf("deleting from keyring: %w", err)
			}
			fmt.Println("API key removed from OS keyring.")
			return nil
		},
	}
}

func newConfigKeyStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "key-status",
		Short: "Show where the LLM API key is loaded from",
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Println("API key resolution order:")
			fmt.Println()

			if keyring.Available() {
				if val := keyring.Get("api_key"); val != "" {
					fmt.Printf("  1. [OK] OS keyring:     %s\n", maskSecret(val))
				} else {
					fmt.Println("  1. [--] OS keyring:     (not set)")
				}
			} else {
				fmt.Println("  1. [!!] OS keyring:     (not available)")
			}

			if val := os.Getenv("LLM_API_KEY"); val != "" {
				fmt.Printf("  2. [OK] LLM_API_KEY:    %s\n", maskSecret(val))
			} else {
				fmt.Println("  2. [--] LLM_API_KEY:    (not set)")
			}

			fmt.Println()
			fmt.Println("Recommendation: use 'shellsage config set-key' for maximum security.")
			return nil
		},
	}
}

// loadConfigForCLI loads config from --config or auto-discovery,
// returning an error if neither yields a file.
func loadConfigForCLI(cmd *cobra.Command) (*config.Config, string, error) {
	configPath, _ := cmd.Root().PersistentFlags().GetString("config")

	if configPath == "" {
		configPath = config.FindConfigFile()
	}
	if configPath == "" {
		return nil, "", fmt.Errorf("no config file found.\nRun 'shellsage config init' to create one, or use --config <path>")
	}

	cfg, err := config.LoadConfigFromFile(configPath)
	if err != nil {
		return nil, configPath, fmt.Errorf("loading config from %s: %w", configPath, err)
	}

	return cfg, configPath, nil
}

func readLine(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func maskSecret(val string) string {
	if len(val) <= 4 {
		return "****"
	}
	tailStart := len(val) - 4
	if tailStart < 4 {
		tailStart = 4
	}
	return val[:4] + "****" + val[tailStart:]
}
