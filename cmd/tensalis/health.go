package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check API service health",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, shutdown, err := setup(cmd)
		if err != nil {
			return err
		}
		defer shutdown()

		h, err := client.Health(cmd.Context())
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(h)
		}
		renderHealth(os.Stdout, h)
		if h.Status != "ok" {
			return fmt.Errorf("service unhealthy: %s", h.Status)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
