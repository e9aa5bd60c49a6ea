package tensalis

import (
	"context"
	"iter"
	"strings"
	"unicode/utf8"
)

// IntervalUnit selects how VerifyStream counts accumulated text between
// remote checks. The original service contract leaves the unit open, so it
// is caller-configurable.
type IntervalUnit string

const (
	// IntervalWords counts whitespace-delimited words. Default.
	IntervalWords IntervalUnit = "words"
	// IntervalRunes counts Unicode code points.
	IntervalRunes IntervalUnit = "runes"
)

// DefaultCheckInterval is the accumulation threshold between remote checks.
const DefaultCheckInterval = 50

// StreamEvent pairs one input chunk with the latest verification verdict.
type StreamEvent struct {
	// Text is the chunk as produced by the upstream source.
	Text string
	// Status is the verdict of the check run at this chunk, or StatusPending
	// for interval-skipped chunks.
	Status Status
	// Result is the full verdict when a check ran at this chunk, nil
	// otherwise.
	Result *VerificationResult
}

// streamOptions holds per-stream settings.
type streamOptions struct {
	checkInterval int
	unit          IntervalUnit
	mode          Mode
}

// StreamOption customizes a VerifyStream session.
type StreamOption func(*streamOptions)

// WithCheckInterval sets the number of units accumulated between remote
// checks. Values below 1 fall back to DefaultCheckInterval.
func WithCheckInterval(n int) StreamOption {
	return func(o *streamOptions) { o.checkInterval = n }
}

// WithIntervalUnit sets the accumulation unit.
func WithIntervalUnit(u IntervalUnit) StreamOption {
	return func(o *streamOptions) { o.unit = u }
}

// WithStreamMode overrides the client-level verification mode for every
// check in the stream.
func WithStreamMode(m Mode) StreamOption {
	return func(o *streamOptions) { o.mode = m }
}

// VerifyStream turns an incremental sequence of generated-text chunks into a
// sequence of verification-annotated events, one event per input chunk.
//
// The adapter keeps a rolling buffer of all text seen so far. Every
// checkInterval units it verifies the accumulated text against contextDocs
// and attaches the verdict to that chunk's event; chunks between checks
// carry StatusPending. After yielding a BLOCKED event the sequence ends.
// The adapter never suppresses or rewrites chunks, it only annotates.
//
// The sequence is pull-driven and single-pass. A verification failure is
// yielded as the error of the next event and terminates the sequence.
// Cancellation is cooperative: stop pulling (break), or cancel ctx.
func (c *Client) VerifyStream(ctx context.Context, chunks iter.Seq[string], contextDocs []string, opts ...StreamOption) iter.Seq2[StreamEvent, error] {
	o := streamOptions{checkInterval: DefaultCheckInterval, unit: IntervalWords}
	for _, opt := range opts {
		opt(&o)
	}
	if o.checkInterval < 1 {
		o.checkInterval = DefaultCheckInterval
	}

	return func(yield func(StreamEvent, error) bool) {
		if len(contextDocs) == 0 {
			yield(StreamEvent{}, &ValidationError{Field: "context", Message: "at least one context fragment is required"})
			return
		}

		var accumulated strings.Builder
		count := 0
		for chunk := range chunks {
			if ctx.Err() != nil {
				yield(StreamEvent{Text: chunk}, &ConnectionError{Err: ctx.Err()})
				return
			}

			accumulated.WriteString(chunk)
			count += countUnits(chunk, o.unit)
			if count < o.checkInterval {
				if !yield(StreamEvent{Text: chunk, Status: StatusPending}, nil) {
					return
				}
				continue
			}

			var verifyOpts []VerifyOption
			if o.mode != "" {
				verifyOpts = append(verifyOpts, WithMode(o.mode))
			}
			result, err := c.Verify(ctx, accumulated.String(), contextDocs, verifyOpts...)
			if err != nil {
				yield(StreamEvent{Text: chunk}, err)
				return
			}

			if !yield(StreamEvent{Text: chunk, Status: result.Status, Result: result}, nil) {
				return
			}
			if result.IsBlocked() {
				return
			}
			count = 0
		}
	}
}

// countUnits measures one chunk in the configured unit.
func countUnits(chunk string, unit IntervalUnit) int {
	switch unit {
	case IntervalRunes:
		return utf8.RuneCountInString(chunk)
	default:
		return len(strings.Fields(chunk))
	}
}

// Chunks adapts a slice to the iter.Seq form VerifyStream consumes. Useful
// for tests and for sources that buffer their output.
func Chunks(parts []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, p := range parts {
			if !yield(p) {
				return
			}
		}
	}
}
