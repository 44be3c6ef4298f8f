package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/odralabshq/polis/internal/provision"
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the workspace VM and its records",
	Long: `Delete and purge the workspace VM, then remove the persisted workspace
record and any interrupted-install checkpoint. The configuration bundle and
agent manifests are kept.`,
	Args: cobra.NoArgs,
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	return withReporter(cmd.Context(), "polis delete", func(ctx context.Context, r provision.Reporter) error {
		return a.Orchestrator(r).Delete(ctx)
	})
}
