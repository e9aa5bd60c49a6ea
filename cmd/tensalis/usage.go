package main

import (
	"os"

	"github.com/spf13/cobra"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show API usage and quota for the configured key",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, shutdown, err := setup(cmd)
		if err != nil {
			return err
		}
		defer shutdown()

		u, err := client.Usage(cmd.Context())
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(u)
		}
		renderUsage(os.Stdout, u)

		// Surface the latest rate limit snapshot when the server sent one.
		if rl, ok := client.RateLimit(); ok {
			renderRateLimit(os.Stdout, rl)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(usageCmd)
}
