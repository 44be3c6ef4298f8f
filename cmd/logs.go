package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/odralabshq/polis/internal/vm"
)

var logsCmd = &cobra.Command{
	Use:   "logs [service]",
	Short: "View compose service logs",
	Long:  "View logs of the workspace compose stack, or of one service.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogs,
}

var logsLines int

func init() {
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 50, "Number of lines to show")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := requireRunning(ctx, a); err != nil {
		return err
	}

	c := a.Config.Compose
	logArgs := []string{
		"docker", "compose", "-p", c.Project, "-f", c.File,
		"logs", "--no-color", "--tail", strconv.Itoa(logsLines),
	}
	logArgs = append(logArgs, args...)

	out, err := a.Workspace.Exec(ctx, logArgs...)
	if err := vm.RequireSuccess("docker compose logs", out, err); err != nil {
		return err
	}
	_, _ = cmd.OutOrStdout().Write(out.Stdout)
	_, _ = cmd.ErrOrStderr().Write(out.Stderr)
	return nil
}
