package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// User-facing output functions with status prefixes.
// These write to stdout/stderr directly for CLI output,
// separate from the structured debug logging.

var (
	stepStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// UserStep prints a step heading to stdout.
func UserStep(format string, args ...interface{}) {
	fmt.Fprintln(os.Stdout, stepStyle.Render("→ "+fmt.Sprintf(format, args...)))
}

// UserInfo prints an info message to stdout.
func UserInfo(format string, args ...interface{}) {
	fmt.Fprintln(os.Stdout, infoStyle.Render("ℹ "+fmt.Sprintf(format, args...)))
}

// UserSuccess prints a success message to stdout.
func UserSuccess(format string, args ...interface{}) {
	fmt.Fprintln(os.Stdout, successStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

// UserWarning prints a warning message to stderr.
func UserWarning(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, warnStyle.Render("⚠ "+fmt.Sprintf(format, args...)))
}

// UserError prints an error message to stderr.
func UserError(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

// UserHint prints a recovery hint to stderr.
func UserHint(hint string) {
	fmt.Fprintln(os.Stderr, hintStyle.Render("  hint: "+hint))
}

// UserReporter reports orchestration progress to a terminal.
type UserReporter struct {
	Out   io.Writer
	Err   io.Writer
	Quiet bool
}

// NewUserReporter returns a reporter writing to stdout and stderr.
func NewUserReporter(quiet bool) *UserReporter {
	return &UserReporter{Out: os.Stdout, Err: os.Stderr, Quiet: quiet}
}

// Step announces a new phase.
func (r *UserReporter) Step(msg string) {
	Debug("step", "msg", msg)
	if r.Quiet {
		return
	}
	fmt.Fprintln(r.Out, stepStyle.Render("→ "+msg))
}

// Info prints secondary detail.
func (r *UserReporter) Info(msg string) {
	Debug("info", "msg", msg)
	if r.Quiet {
		return
	}
	fmt.Fprintln(r.Out, infoStyle.Render("  "+msg))
}

// Success reports a completed phase.
func (r *UserReporter) Success(msg string) {
	Debug("success", "msg", msg)
	if r.Quiet {
		return
	}
	fmt.Fprintln(r.Out, successStyle.Render("✓ "+msg))
}

// Warn reports a non-fatal problem. Warnings are shown even when quiet.
func (r *UserReporter) Warn(msg string) {
	Warn(msg)
	fmt.Fprintln(r.Err, warnStyle.Render("⚠ "+msg))
}
