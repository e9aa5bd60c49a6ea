// Package config loads tensalis CLI configuration from file and environment.
//
// Precedence (highest to lowest):
//  1. Environment variables (TENSALIS_*)
//  2. Config file
//  3. Built-in defaults
//
// Config file search order:
//  1. .tensalis.yaml in current directory
//  2. ~/.config/tensalis/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all tensalis CLI configuration.
type Config struct {
	// API settings
	APIKey   string `yaml:"api_key"`
	Endpoint string `yaml:"endpoint"`
	Timeout  string `yaml:"timeout"` // Go duration string, e.g. "30s"
	Retries  int    `yaml:"retries"`
	Mode     string `yaml:"mode"` // strict, balanced, permissive

	// Streaming settings
	CheckInterval int    `yaml:"check_interval"`
	IntervalUnit  string `yaml:"interval_unit"` // words, runes

	// Generation settings (for `tensalis stream --prompt`)
	Provider   string `yaml:"provider"` // anthropic, openai
	Model      string `yaml:"model"`
	GenBaseURL string `yaml:"gen_base_url"`
	GenAPIKey  string `yaml:"gen_api_key"`
	MaxTokens  int64  `yaml:"max_tokens"`

	// OTEL
	OTELEndpoint string `yaml:"otel_endpoint"`
	OTELHeaders  string `yaml:"otel_headers"` // Comma-separated key=value pairs

	// Parsed duration (not from YAML, set after loading)
	TimeoutDuration time.Duration `yaml:"-"`

	// ConfigFile is the path of the loaded config file (empty if none).
	ConfigFile string `yaml:"-"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		Endpoint:      "https://api.tensalis.com/v1",
		Timeout:       "30s",
		Retries:       3,
		Mode:          "balanced",
		CheckInterval: 50,
		IntervalUnit:  "words",
		Provider:      "anthropic",
		MaxTokens:     4096,
	}
}

// Load reads configuration from file and environment variables.
// Environment variables always override file values.
func Load() (*Config, error) {
	cfg := Defaults()

	if path, data, err := findConfigFile(); err == nil {
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		cfg.ConfigFile = path
		mergeFile(cfg, &fileCfg)
	}

	mergeEnv(cfg)

	var err error
	cfg.TimeoutDuration, err = time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout %q: %w", cfg.Timeout, err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file and returns its path and contents.
func findConfigFile() (string, []byte, error) {
	// 1. Current directory
	if data, err := os.ReadFile(".tensalis.yaml"); err == nil {
		return ".tensalis.yaml", data, nil
	}

	// 2. XDG config dir / ~/.config
	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", "tensalis", "config.yaml")
		if data, err := os.ReadFile(path); err == nil {
			return path, data, nil
		}
	}

	return "", nil, fmt.Errorf("no config file found")
}

// mergeFile applies non-zero file values onto cfg.
func mergeFile(cfg *Config, file *Config) {
	if file.APIKey != "" {
		cfg.APIKey = file.APIKey
	}
	if file.Endpoint != "" {
		cfg.Endpoint = file.Endpoint
	}
	if file.Timeout != "" {
		cfg.Timeout = file.Timeout
	}
	if file.Retries > 0 {
		cfg.Retries = file.Retries
	}
	if file.Mode != "" {
		cfg.Mode = file.Mode
	}
	if file.CheckInterval > 0 {
		cfg.CheckInterval = file.CheckInterval
	}
	if file.IntervalUnit != "" {
		cfg.IntervalUnit = file.IntervalUnit
	}
	if file.Provider != "" {
		cfg.Provider = file.Provider
	}
	if file.Model != "" {
		cfg.Model = file.Model
	}
	if file.GenBaseURL != "" {
		cfg.GenBaseURL = file.GenBaseURL
	}
	if file.GenAPIKey != "" {
		cfg.GenAPIKey = file.GenAPIKey
	}
	if file.MaxTokens > 0 {
		cfg.MaxTokens = file.MaxTokens
	}
	if file.OTELEndpoint != "" {
		cfg.OTELEndpoint = file.OTELEndpoint
	}
	if file.OTELHeaders != "" {
		cfg.OTELHeaders = file.OTELHeaders
	}
}

// mergeEnv applies environment variables onto cfg. Env always wins.
func mergeEnv(cfg *Config) {
	if v := os.Getenv("TENSALIS_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("TENSALIS_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("TENSALIS_TIMEOUT"); v != "" {
		cfg.Timeout = v
	}
	if v := os.Getenv("TENSALIS_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Retries = n
		}
	}
	if v := os.Getenv("TENSALIS_MODE"); v != "" {
		cfg.Mode = v
	}
	if v := os.Getenv("TENSALIS_CHECK_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CheckInterval = n
		}
	}
	if v := os.Getenv("TENSALIS_INTERVAL_UNIT"); v != "" {
		cfg.IntervalUnit = v
	}
	if v := os.Getenv("TENSALIS_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("TENSALIS_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("TENSALIS_GEN_BASE_URL"); v != "" {
		cfg.GenBaseURL = v
	}
	if v := os.Getenv("TENSALIS_GEN_API_KEY"); v != "" {
		cfg.GenAPIKey = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTELEndpoint = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"); v != "" {
		cfg.OTELHeaders = v
	}

	// Generation API key fallbacks
	if cfg.GenAPIKey == "" {
		if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
			cfg.GenAPIKey = v
		}
	}
	if cfg.GenAPIKey == "" {
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			cfg.GenAPIKey = v
		}
	}
}
