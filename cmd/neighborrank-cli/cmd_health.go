package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server liveness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := apiClient.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("health: %w", err)
			}

			if flagFmt == "quiet" {
				fmt.Fprintln(cmd.OutOrStdout(), resp.Status)
				return nil
			}
			return formatJSON(cmd.OutOrStdout(), resp)
		},
	}
}
