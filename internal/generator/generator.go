// Package generator provides streaming text sources for live verification.
//
// A Generator produces the LLM output that gets verified; it makes no
// judgment calls itself. The verification verdict always comes from the
// Tensalis API, generators only supply chunks.
package generator

import (
	"bufio"
	"context"
	"io"
	"iter"
)

// Generator streams generated text as incremental chunks.
type Generator interface {
	// Stream yields response chunks for the given prompt. The sequence is
	// single-pass; iteration stops cleanly when the consumer stops pulling.
	Stream(ctx context.Context, prompt string) iter.Seq2[string, error]

	// Provider returns the provider name (e.g., "anthropic", "openai").
	Provider() string

	// Model returns the model name used for generation.
	Model() string
}

// Reader streams chunks from an io.Reader, one whitespace-delimited word per
// chunk. It backs piped input (`cat answer.txt | tensalis stream`) and is
// useful in tests.
type Reader struct {
	R io.Reader
}

// Provider returns "reader".
func (g *Reader) Provider() string { return "reader" }

// Model returns "-".
func (g *Reader) Model() string { return "-" }

// Stream yields one word per chunk with its trailing space restored, so the
// concatenation of all chunks reads naturally.
func (g *Reader) Stream(ctx context.Context, _ string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		scanner := bufio.NewScanner(g.R)
		scanner.Split(bufio.ScanWords)
		for scanner.Scan() {
			if ctx.Err() != nil {
				yield("", ctx.Err())
				return
			}
			if !yield(scanner.Text()+" ", nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield("", err)
		}
	}
}
