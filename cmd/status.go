package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/odralabshq/polis/internal/health"
	"github.com/odralabshq/polis/internal/provision"
	"github.com/odralabshq/polis/internal/state"
	"github.com/odralabshq/polis/internal/vm"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show workspace status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

var (
	labelStyle = lipgloss.NewStyle().Width(12).Foreground(lipgloss.Color("245"))
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	rep, err := a.Orchestrator(nil).Status(cmd.Context(), a.Inspect)
	if err != nil {
		return err
	}
	printStatus(cmd.OutOrStdout(), rep, time.Now())
	return nil
}

func printStatus(w io.Writer, rep *provision.StatusReport, now time.Time) {
	row := func(label, value string) {
		fmt.Fprintf(w, "%s%s\n", labelStyle.Render(label), value)
	}

	vmValue := rep.VM.String()
	switch rep.VM {
	case vm.Running:
		vmValue = goodStyle.Render(vmValue)
	case vm.NotFound:
		vmValue = mutedStyle.Render(vmValue)
	}
	row("VM:", vmValue)

	if rep.ManagerVersion != "" {
		row("Multipass:", rep.ManagerVersion)
	}

	if rep.VM == vm.Running {
		h := rep.Health.String()
		switch rep.Health.Kind {
		case health.KindHealthy:
			h = goodStyle.Render(h)
		case health.KindUnhealthy:
			h = badStyle.Render(h)
		}
		row("Health:", h)
	}

	if ws := rep.Workspace; ws != nil {
		row("Workspace:", ws.WorkspaceID)
		agent := ws.ActiveAgent
		if agent == "" {
			agent = mutedStyle.Render("none")
		}
		row("Agent:", agent)
		if !ws.CreatedAt.IsZero() {
			row("Created:", fmt.Sprintf("%s ago", formatAge(now.Sub(ws.CreatedAt))))
		}
		if ws.ImageSource != "" {
			row("Image:", ws.ImageSource)
		}
	}

	if cp := rep.Checkpoint; cp != nil {
		pending := "interrupted install"
		if cp.Stage != state.StageNone {
			pending += " after " + cp.Stage.String()
		}
		row("Pending:", pending+" (run polis start to resume)")
	}
}

// formatAge renders d compactly, e.g. "2h 30m".
func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
	return fmt.Sprintf("%dd %dh", int(d.Hours())/24, int(d.Hours())%24)
}
