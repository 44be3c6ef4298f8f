package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/odralabshq/polis/internal/errors"
	"github.com/odralabshq/polis/internal/logging"
)

var (
	verbose    bool
	jsonOutput bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "polis",
	Short: "Isolated VM workspace for AI coding agents",
	Long: `polis runs AI coding agents inside a dedicated multipass VM.

The VM hosts a docker compose stack:
  - A workspace service that must report healthy
  - At most one agent, added as a compose overlay
  - Images checked against pinned digests

State lives in ~/.polis (override with POLIS_HOME).`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(verbose, jsonOutput, os.Stderr)
	},
}

// Execute runs the command tree and prints any error with its recovery hint.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		printError(err)
	}
	return err
}

func printError(err error) {
	var pe *errors.PolisError
	if errors.As(err, &pe) && pe.Message == "" && pe.Cause == nil {
		// exit status passthrough
		return
	}
	logging.UserError("%v", err)
	if hint := errors.GetHint(err); hint != "" {
		logging.UserHint(hint)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only print warnings and errors")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
