package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	tensalis "github.com/tensalis/tensalis-go"
	"github.com/tensalis/tensalis-go/internal/config"
	"github.com/tensalis/tensalis-go/internal/telemetry"
)

var (
	// Global flags. Empty or zero means "use config/env/default".
	flagEndpoint string
	flagAPIKey   string
	flagMode     string
	flagTimeout  string
	flagRetries  int
	flagJSON     bool
)

// errBlocked signals a BLOCKED verdict. Execute maps it to exit code 2 so
// scripts can distinguish "content rejected" from operational failures.
var errBlocked = errors.New("content blocked")

var rootCmd = &cobra.Command{
	Use:   "tensalis",
	Short: "Verify AI-generated text against reference documents",
	Long: `tensalis checks AI-generated text for hallucinations by sending it,
together with reference documents, to the Tensalis verification API.

Every verdict is produced server-side by the detection pipeline. The CLI
only provides transport, streaming, and rendering.

Configuration is loaded from .tensalis.yaml or environment variables
(TENSALIS_API_KEY etc.); flags override both.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errBlocked) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagEndpoint, "endpoint", "", "API base URL (default: https://api.tensalis.com/v1)")
	rootCmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "API key (default: TENSALIS_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&flagMode, "mode", "", "verification mode: strict, balanced, permissive")
	rootCmd.PersistentFlags().StringVar(&flagTimeout, "timeout", "", "per-request timeout, e.g. 30s")
	rootCmd.PersistentFlags().IntVar(&flagRetries, "retries", -1, "retries after the initial attempt for transient failures")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output raw JSON instead of formatted text")
}

// setup loads configuration, applies flag overrides, initializes telemetry,
// and constructs the API client. The returned shutdown func flushes telemetry.
func setup(cmd *cobra.Command) (*tensalis.Client, *config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("config: %w", err)
	}

	if flagEndpoint != "" {
		cfg.Endpoint = flagEndpoint
	}
	if flagAPIKey != "" {
		cfg.APIKey = flagAPIKey
	}
	if flagMode != "" {
		cfg.Mode = flagMode
	}
	if flagTimeout != "" {
		cfg.Timeout = flagTimeout
		cfg.TimeoutDuration, err = time.ParseDuration(flagTimeout)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("invalid timeout %q: %w", flagTimeout, err)
		}
	}
	if flagRetries >= 0 {
		cfg.Retries = flagRetries
	}

	// Wire build version into OTEL service metadata.
	telemetry.Version = tensalis.Version

	// No-op if no endpoint configured.
	tel, err := telemetry.Init(cmd.Context(), telemetry.Config{
		Endpoint: cfg.OTELEndpoint,
		Headers:  cfg.OTELHeaders,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: otel init failed: %v\n", err)
	}

	retries := cfg.Retries
	client, err := tensalis.New(tensalis.Config{
		APIKey:   cfg.APIKey,
		Endpoint: cfg.Endpoint,
		Timeout:  cfg.TimeoutDuration,
		Retries:  &retries,
		Mode:     tensalis.Mode(cfg.Mode),
	})
	if err != nil {
		if tel != nil {
			tel.Shutdown(context.Background())
		}
		return nil, nil, nil, err
	}

	shutdown := func() {
		if tel != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			tel.Shutdown(ctx)
		}
	}
	return client, cfg, shutdown, nil
}
