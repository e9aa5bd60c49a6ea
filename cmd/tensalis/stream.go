package main

import (
	"fmt"
	"iter"
	"os"

	"github.com/spf13/cobra"

	tensalis "github.com/tensalis/tensalis-go"
	"github.com/tensalis/tensalis-go/internal/config"
	"github.com/tensalis/tensalis-go/internal/generator"
	"github.com/tensalis/tensalis-go/internal/watch"
)

var (
	flagPrompt        string
	flagCheckInterval int
	flagIntervalUnit  string
	flagWatch         bool
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Verify text incrementally as it is generated",
	Long: `Verify a stream of text against reference documents, checking the
accumulated output at a fixed interval so hallucinations are caught
mid-generation instead of after the fact.

By default the stream is read from stdin. With --prompt the text is
generated live by an LLM provider (anthropic or openai) and verified as
it arrives. A BLOCKED verdict stops the stream immediately.

Generated text goes to stdout; interim verdicts go to stderr, so piping
stdout yields clean text. Use --watch for an interactive view instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		contextDocs, err := collectContext()
		if err != nil {
			return err
		}

		client, cfg, shutdown, err := setup(cmd)
		if err != nil {
			return err
		}
		defer shutdown()

		gen, err := newGenerator(cfg)
		if err != nil {
			return err
		}

		// Bridge the generator's fallible sequence into the chunk source.
		// A generation failure ends the stream; the error surfaces after
		// the verification loop drains.
		var genErr error
		chunks := func(yield func(string) bool) {
			for chunk, err := range gen.Stream(cmd.Context(), flagPrompt) {
				if err != nil {
					genErr = err
					return
				}
				if !yield(chunk) {
					return
				}
			}
		}

		opts := streamOptions(cfg)
		events := client.VerifyStream(cmd.Context(), chunks, contextDocs, opts...)

		var blocked bool
		if flagWatch {
			blocked, err = runWatch(cmd, events)
		} else {
			blocked, err = runPlain(events)
		}
		if err != nil {
			return err
		}
		if genErr != nil {
			return fmt.Errorf("generation: %w", genErr)
		}
		if blocked {
			return errBlocked
		}
		return nil
	},
}

func init() {
	streamCmd.Flags().StringVar(&flagPrompt, "prompt", "", "generate the stream from this prompt instead of reading stdin")
	streamCmd.Flags().IntVar(&flagCheckInterval, "check-interval", 0, "verify after this many new units (default: 50)")
	streamCmd.Flags().StringVar(&flagIntervalUnit, "interval-unit", "", "interval unit: words, runes")
	streamCmd.Flags().BoolVar(&flagWatch, "watch", false, "interactive view of the stream and its verdicts")
	streamCmd.Flags().StringArrayVarP(&flagContext, "context", "c", nil, "reference document (repeatable)")
	streamCmd.Flags().StringArrayVar(&flagContextFile, "context-file", nil, "file containing one reference document (repeatable)")
	rootCmd.AddCommand(streamCmd)
}

// newGenerator picks the chunk source: stdin without --prompt, otherwise the
// configured LLM provider.
func newGenerator(cfg *config.Config) (generator.Generator, error) {
	if flagPrompt == "" {
		return &generator.Reader{R: os.Stdin}, nil
	}
	if cfg.GenAPIKey == "" {
		return nil, fmt.Errorf("no generation API key found. Set TENSALIS_GEN_API_KEY, ANTHROPIC_API_KEY, or OPENAI_API_KEY")
	}
	switch cfg.Provider {
	case "anthropic":
		return generator.NewAnthropicGenerator(generator.AnthropicConfig{
			BaseURL:   cfg.GenBaseURL,
			APIKey:    cfg.GenAPIKey,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
		}), nil
	case "openai":
		return generator.NewOpenAIGenerator(generator.OpenAIConfig{
			BaseURL:   cfg.GenBaseURL,
			APIKey:    cfg.GenAPIKey,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (supported: anthropic, openai)", cfg.Provider)
	}
}

// streamOptions resolves check interval settings from flags and config.
func streamOptions(cfg *config.Config) []tensalis.StreamOption {
	interval := cfg.CheckInterval
	if flagCheckInterval > 0 {
		interval = flagCheckInterval
	}
	unit := cfg.IntervalUnit
	if flagIntervalUnit != "" {
		unit = flagIntervalUnit
	}

	var opts []tensalis.StreamOption
	if interval > 0 {
		opts = append(opts, tensalis.WithCheckInterval(interval))
	}
	if unit == "runes" {
		opts = append(opts, tensalis.WithIntervalUnit(tensalis.IntervalRunes))
	}
	return opts
}

// runPlain streams text to stdout and verdicts to stderr.
func runPlain(events iter.Seq2[tensalis.StreamEvent, error]) (bool, error) {
	for ev, err := range events {
		if err != nil {
			fmt.Println()
			return false, err
		}
		fmt.Print(ev.Text)
		if ev.Status == tensalis.StatusPending || ev.Result == nil {
			continue
		}
		fmt.Fprintf(os.Stderr, "\n%s", statusText(ev.Status))
		if ev.Result.Reason != "" {
			fmt.Fprintf(os.Stderr, " %s", ev.Result.Reason)
		}
		fmt.Fprintln(os.Stderr)
		if ev.Status == tensalis.StatusBlocked {
			fmt.Println()
			return true, nil
		}
	}
	fmt.Println()
	return false, nil
}

// runWatch feeds the stream into the interactive TUI.
func runWatch(cmd *cobra.Command, events iter.Seq2[tensalis.StreamEvent, error]) (bool, error) {
	ch := make(chan watch.Event)
	go func() {
		defer close(ch)
		for ev, err := range events {
			if err != nil {
				ch <- watch.Event{Err: err}
				return
			}
			we := watch.Event{
				Text:       ev.Text,
				Status:     string(ev.Status),
				Confidence: -1,
			}
			if ev.Result != nil {
				we.Reason = ev.Result.Reason
				we.Layer = ev.Result.Layer
				if ev.Result.Confidence != nil {
					we.Confidence = *ev.Result.Confidence
				}
			}
			ch <- we
		}
	}()
	return watch.Run(cmd.Context(), ch)
}
