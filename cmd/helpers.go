package cmd

import (
	"context"
	"os"

	"golang.org/x/term"

	"github.com/odralabshq/polis/internal/app"
	"github.com/odralabshq/polis/internal/errors"
	"github.com/odralabshq/polis/internal/logging"
	"github.com/odralabshq/polis/internal/provision"
	"github.com/odralabshq/polis/internal/tui"
	"github.com/odralabshq/polis/internal/vm"
)

// newApp builds the application context. Tests replace it.
var newApp = func() (*app.App, error) {
	return app.New()
}

// interactive reports whether progress can be drawn with the TUI.
func interactive() bool {
	if quiet || verbose || jsonOutput {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// withReporter runs fn with a spinner on terminals and plain lines otherwise.
func withReporter(ctx context.Context, title string, fn func(ctx context.Context, r provision.Reporter) error) error {
	if interactive() {
		return tui.RunProgress(ctx, os.Stdout, title, func(ctx context.Context, p *tui.Progress) error {
			return fn(ctx, p)
		})
	}
	return fn(ctx, logging.NewUserReporter(quiet))
}

// requireRunning fails unless the workspace VM is running.
func requireRunning(ctx context.Context, a *app.App) error {
	st := vm.NewProbe(a.Inspect, a.Config.VM.Instance).State(ctx)
	if st != vm.Running {
		return errors.Precondition("workspace is "+st.String(), "polis start")
	}
	return nil
}
