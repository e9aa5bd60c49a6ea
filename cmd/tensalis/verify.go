package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	tensalis "github.com/tensalis/tensalis-go"
)

var (
	flagContext     []string
	flagContextFile []string
	flagMetadata    []string
)

var verifyCmd = &cobra.Command{
	Use:   "verify <response>",
	Short: "Verify one response against reference documents",
	Long: `Verify a single LLM response against reference documents.

Pass "-" as the response to read it from stdin. Reference documents come
from --context (inline) and --context-file (one document per file), in the
order given.

Exits 0 on VERIFIED or WARNING, 2 on BLOCKED, 1 on operational failure.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		response := args[0]
		if response == "-" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading response from stdin: %w", err)
			}
			response = string(data)
		}

		contextDocs, err := collectContext()
		if err != nil {
			return err
		}

		client, _, shutdown, err := setup(cmd)
		if err != nil {
			return err
		}
		defer shutdown()

		var opts []tensalis.VerifyOption
		if md := parseMetadata(flagMetadata); len(md) > 0 {
			opts = append(opts, tensalis.WithMetadata(md))
		}

		res, err := client.Verify(cmd.Context(), response, contextDocs, opts...)
		if err != nil {
			return err
		}

		if flagJSON {
			if err := printJSON(res.Raw()); err != nil {
				return err
			}
		} else {
			renderResult(os.Stdout, res)
		}

		if res.IsBlocked() {
			return errBlocked
		}
		return nil
	},
}

func init() {
	verifyCmd.Flags().StringArrayVarP(&flagContext, "context", "c", nil, "reference document (repeatable)")
	verifyCmd.Flags().StringArrayVar(&flagContextFile, "context-file", nil, "file containing one reference document (repeatable)")
	verifyCmd.Flags().StringArrayVar(&flagMetadata, "metadata", nil, "request metadata as key=value (repeatable)")
	rootCmd.AddCommand(verifyCmd)
}

// collectContext merges inline and file-based reference documents, inline
// first, preserving flag order within each group.
func collectContext() ([]string, error) {
	docs := append([]string(nil), flagContext...)
	for _, path := range flagContextFile {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading context file: %w", err)
		}
		docs = append(docs, string(data))
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("at least one --context or --context-file is required")
	}
	return docs, nil
}

// parseMetadata turns key=value pairs into a metadata map. Malformed pairs
// (no "=") are dropped.
func parseMetadata(pairs []string) map[string]any {
	md := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			continue
		}
		md[k] = v
	}
	return md
}
