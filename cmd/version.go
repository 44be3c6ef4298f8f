package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odralabshq/polis/internal/logging"
)

// Version is set at build time with -ldflags "-X github.com/odralabshq/polis/cmd.Version=...".
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print polis and multipass versions",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "polis %s\n", Version)

	a, err := newApp()
	if err != nil {
		return err
	}
	v, err := a.Inspect.Version(cmd.Context())
	if err != nil {
		logging.Debug("multipass version unavailable", "error", err)
		fmt.Fprintln(out, "multipass not available")
		return nil
	}
	fmt.Fprintf(out, "multipass %s\n", v)
	return nil
}
