package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/odralabshq/polis/internal/logging"
	"github.com/odralabshq/polis/internal/provision"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Create or start the workspace",
	Long: `Bring the workspace VM to running with the requested agent.

A missing VM is created and fully provisioned. A stopped VM is started.
A running workspace without an agent gets the agent attached in place.
An interrupted install resumes after the last completed stage.`,
	Args: cobra.NoArgs,
	RunE: runStart,
}

var startAgent string

func init() {
	startCmd.Flags().StringVarP(&startAgent, "agent", "a", "", "Agent to run in the workspace")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	logging.Debug("starting workspace", "agent", startAgent, "home", a.Paths.Home)

	var res *provision.Result
	err = withReporter(cmd.Context(), "polis start", func(ctx context.Context, r provision.Reporter) error {
		var err error
		res, err = a.Orchestrator(r).Provision(ctx, startAgent)
		return err
	})
	if err != nil {
		return err
	}

	logging.Debug("start finished", "outcome", string(res.Outcome))
	return nil
}
