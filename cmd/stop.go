package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/odralabshq/polis/internal/provision"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the workspace VM",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	return withReporter(cmd.Context(), "polis stop", func(ctx context.Context, r provision.Reporter) error {
		return a.Orchestrator(r).Stop(ctx)
	})
}
