package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Endpoint != "https://api.tensalis.com/v1" {
		t.Errorf("Endpoint: got %q, want production default", cfg.Endpoint)
	}
	if cfg.Timeout != "30s" {
		t.Errorf("Timeout: got %q, want %q", cfg.Timeout, "30s")
	}
	if cfg.Retries != 3 {
		t.Errorf("Retries: got %d, want 3", cfg.Retries)
	}
	if cfg.Mode != "balanced" {
		t.Errorf("Mode: got %q, want %q", cfg.Mode, "balanced")
	}
	if cfg.CheckInterval != 50 {
		t.Errorf("CheckInterval: got %d, want 50", cfg.CheckInterval)
	}
	if cfg.IntervalUnit != "words" {
		t.Errorf("IntervalUnit: got %q, want %q", cfg.IntervalUnit, "words")
	}
	if cfg.Provider != "anthropic" {
		t.Errorf("Provider: got %q, want %q", cfg.Provider, "anthropic")
	}
	if cfg.MaxTokens != 4096 {
		t.Errorf("MaxTokens: got %d, want 4096", cfg.MaxTokens)
	}
}

func TestMergeFile(t *testing.T) {
	cfg := Defaults()
	mergeFile(cfg, &Config{
		APIKey:        "file-key",
		Mode:          "strict",
		CheckInterval: 25,
		OTELEndpoint:  "http://localhost:4318",
	})

	if cfg.APIKey != "file-key" {
		t.Errorf("APIKey: got %q", cfg.APIKey)
	}
	if cfg.Mode != "strict" {
		t.Errorf("Mode: got %q", cfg.Mode)
	}
	if cfg.CheckInterval != 25 {
		t.Errorf("CheckInterval: got %d", cfg.CheckInterval)
	}
	// Unset file values keep their defaults.
	if cfg.Endpoint != "https://api.tensalis.com/v1" {
		t.Errorf("Endpoint: got %q, want untouched default", cfg.Endpoint)
	}
	if cfg.Retries != 3 {
		t.Errorf("Retries: got %d, want untouched default", cfg.Retries)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("TENSALIS_API_KEY", "env-key")
	t.Setenv("TENSALIS_MODE", "permissive")
	t.Setenv("TENSALIS_RETRIES", "0")
	t.Setenv("TENSALIS_CHECK_INTERVAL", "10")

	cfg := Defaults()
	mergeFile(cfg, &Config{APIKey: "file-key", Mode: "strict"})
	mergeEnv(cfg)

	if cfg.APIKey != "env-key" {
		t.Errorf("APIKey: got %q, want env value", cfg.APIKey)
	}
	if cfg.Mode != "permissive" {
		t.Errorf("Mode: got %q, want env value", cfg.Mode)
	}
	if cfg.Retries != 0 {
		t.Errorf("Retries: got %d, want 0", cfg.Retries)
	}
	if cfg.CheckInterval != 10 {
		t.Errorf("CheckInterval: got %d, want 10", cfg.CheckInterval)
	}
}

func TestGenAPIKeyFallbacks(t *testing.T) {
	t.Setenv("TENSALIS_GEN_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "anthropic-key")
	t.Setenv("OPENAI_API_KEY", "openai-key")

	cfg := Defaults()
	mergeEnv(cfg)
	if cfg.GenAPIKey != "anthropic-key" {
		t.Errorf("GenAPIKey: got %q, want ANTHROPIC_API_KEY fallback", cfg.GenAPIKey)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".tensalis.yaml")
	content := []byte("api_key: yaml-key\nmode: strict\ntimeout: 10s\ncheck_interval: 20\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	// Clear env so the file values win.
	t.Setenv("TENSALIS_API_KEY", "")
	t.Setenv("TENSALIS_MODE", "")
	t.Setenv("TENSALIS_TIMEOUT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIKey != "yaml-key" {
		t.Errorf("APIKey: got %q", cfg.APIKey)
	}
	if cfg.Mode != "strict" {
		t.Errorf("Mode: got %q", cfg.Mode)
	}
	if cfg.TimeoutDuration != 10*time.Second {
		t.Errorf("TimeoutDuration: got %s, want 10s", cfg.TimeoutDuration)
	}
	if cfg.ConfigFile != ".tensalis.yaml" {
		t.Errorf("ConfigFile: got %q", cfg.ConfigFile)
	}
}

func TestLoadInvalidTimeout(t *testing.T) {
	t.Setenv("TENSALIS_TIMEOUT", "not-a-duration")
	if _, err := Load(); err == nil {
		t.Error("Load: expected error for invalid timeout")
	}
}
