package cmd

import (
	shellquote "github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/odralabshq/polis/internal/errors"
	"github.com/odralabshq/polis/internal/logging"
)

var execCmd = &cobra.Command{
	Use:   "exec -- <command>",
	Short: "Execute command in the workspace VM",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	if cmd.ArgsLenAtDash() < 0 {
		return errors.ValidationError("usage: polis exec -- <command>")
	}
	execArgs := args[cmd.ArgsLenAtDash():]
	if len(execArgs) == 0 {
		return errors.ValidationError("usage: polis exec -- <command>")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := requireRunning(ctx, a); err != nil {
		return err
	}

	logging.Debug("exec in workspace", "cmd", shellquote.Join(execArgs...))
	out, err := a.Workspace.Exec(ctx, execArgs...)
	if err != nil {
		return err
	}

	_, _ = cmd.OutOrStdout().Write(out.Stdout)
	_, _ = cmd.ErrOrStderr().Write(out.Stderr)
	if !out.Success() {
		return errors.New(out.ExitCode, "")
	}
	return nil
}
