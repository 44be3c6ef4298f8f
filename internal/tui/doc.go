// Package tui provides terminal user interface components for polis.
//
// This package uses the Bubble Tea framework to render provisioning
// progress when stdout is a terminal.
//
// # Progress
//
// RunProgress runs a function while a spinner shows the current step and
// completed steps stay listed above it:
//
//	err := tui.RunProgress(ctx, os.Stdout, "polis start", func(ctx context.Context, p *tui.Progress) error {
//	    _, err := orchestrator.Provision(ctx, agent)
//	    return err
//	})
//
// Progress satisfies the provisioning Reporter interface. Ctrl+C cancels the
// context handed to the function; the display stays until it returns.
//
// # Dependencies
//
// Uses the Charm libraries:
//   - github.com/charmbracelet/bubbletea - TUI framework
//   - github.com/charmbracelet/bubbles - spinner component
//   - github.com/charmbracelet/lipgloss - Styling
package tui
