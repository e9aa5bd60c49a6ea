package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	tensalis "github.com/tensalis/tensalis-go"
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Verify a batch of responses in one request",
	Long: `Verify multiple responses in a single API call.

The input file is a JSON array of items:

  [{"response": "...", "context": ["...", "..."]}, ...]

Pass "-" to read the array from stdin. Results are printed in input order.
Exits 2 when any item is BLOCKED.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error
		if args[0] == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("reading batch input: %w", err)
		}

		var items []tensalis.BatchItem
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("parsing batch input: %w", err)
		}

		// Fill in the shared context for items that carry none of their own.
		if len(flagContext) > 0 {
			for i := range items {
				if len(items[i].Context) == 0 {
					items[i].Context = flagContext
				}
			}
		}

		client, _, shutdown, err := setup(cmd)
		if err != nil {
			return err
		}
		defer shutdown()

		results, err := client.VerifyBatch(cmd.Context(), items)
		if err != nil {
			return err
		}

		anyBlocked := false
		if flagJSON {
			raws := make([]json.RawMessage, len(results))
			for i, res := range results {
				raws[i] = res.Raw()
				anyBlocked = anyBlocked || res.IsBlocked()
			}
			if err := printJSON(raws); err != nil {
				return err
			}
		} else {
			for i, res := range results {
				fmt.Printf("%s\n", labelStyle.Render(fmt.Sprintf("[%d]", i)))
				renderResult(os.Stdout, res)
				anyBlocked = anyBlocked || res.IsBlocked()
			}
		}

		if anyBlocked {
			return errBlocked
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringArrayVarP(&flagContext, "context", "c", nil, "reference document applied to items without their own context (repeatable)")
	rootCmd.AddCommand(batchCmd)
}
