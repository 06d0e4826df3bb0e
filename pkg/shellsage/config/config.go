// Package config holds shellsage's configuration. Adapted from the
// teacher's Config/loader.go idiom: YAML on disk, defaults overlaid by
// file contents, env-var and OS-keyring resolution for secrets.
package config

import "time"

// APIConfig holds LLM endpoint settings.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// TransportConfig controls the WebSocket server.
type TransportConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// SafetyConfig controls the catastrophic-command gate and the shell.
type SafetyConfig struct {
	AllowDestructive bool     `yaml:"allow_destructive"`
	ExtraPatterns    []string `yaml:"extra_patterns"`
}

// AgentConfig controls orchestrator-wide bounds.
type AgentConfig struct {
	MaxRetries              int     `yaml:"max_retries"`
	MaxReplans              int     `yaml:"max_replans"`
	MaxIterations           int     `yaml:"max_iterations"`
	PartialSuccessThreshold float64 `yaml:"partial_success_threshold"`
}

// HistoryConfig controls the turn history store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path"`
}

// WatchConfig controls the optional scheduled-autonomous-turn feature.
type WatchConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"` // cron expression
	Goal     string `yaml:"goal"`
}

// Config is the root configuration object.
type Config struct {
	Name string `yaml:"name"`
	Model string `yaml:"model"`

	API       APIConfig       `yaml:"api"`
	Logging   LoggingConfig   `yaml:"logging"`
	Transport TransportConfig `yaml:"transport"`
	Safety    SafetyConfig    `yaml:"safety"`
	Agent     AgentConfig     `yaml:"agent"`
	History   HistoryConfig   `yaml:"history"`
	Watch     WatchConfig     `yaml:"watch"`

	ShellPath      string        `yaml:"shell_path"`
	DefaultTimeout time.Duration `yaml:"default_timeout"`
}

// DefaultConfig returns sensible defaults matching spec.md's stated
// bounds (maxRetries=3, maxReplans=3, iteration cap=20, threshold=0.7).
func DefaultConfig() *Config {
	return &Config{
		Name:  "shellsage",
		Model: "gpt-4o-mini",
		API: APIConfig{
			BaseURL: "https://api.openai.com/v1",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Transport: TransportConfig{
			ListenAddr: ":8787",
		},
		Safety: SafetyConfig{
			AllowDestructive: false,
		},
		Agent: AgentConfig{
			MaxRetries:              3,
			MaxReplans:              3,
			MaxIterations:           20,
			PartialSuccessThreshold: 0.7,
		},
		History: HistoryConfig{
			Enabled: true,
			DBPath:  "./data/history.db",
		},
		Watch: WatchConfig{
			Enabled: false,
		},
		ShellPath:      "/bin/bash",
		DefaultTimeout: 60 * time.Second,
	}
}
