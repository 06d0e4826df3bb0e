package config

import "testing"

func TestParseConfigOverlaysDefaults(t *testing.T) {
	yaml := []byte("name: opsbot\napi:\n  base_url: https://example.com/v1\n")

	cfg, err := ParseConfig(yaml)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Name != "opsbot" {
		t.Errorf("expected overlaid name, got %q", cfg.Name)
	}
	if cfg.API.BaseURL != "https://example.com/v1" {
		t.Errorf("expected overlaid base_url, got %q", cfg.API.BaseURL)
	}
	// Untouched fields must keep their defaults.
	if cfg.Agent.MaxRetries != 3 {
		t.Errorf("expected default max_retries=3, got %d", cfg.Agent.MaxRetries)
	}
	if cfg.Agent.MaxIterations != 20 {
		t.Errorf("expected default max_iterations=20, got %d", cfg.Agent.MaxIterations)
	}
}

func TestParseConfigRejectsInvalidYAML(t *testing.T) {
	if _, err := ParseConfig([]byte("not: [valid")); err == nil {
		t.Fatal("expected an error for malformed YAML")
	}
}
