package tui

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styles
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

type (
	stepMsg    string
	infoMsg    string
	successMsg string
	warnMsg    string
	doneMsg    struct{ err error }
)

// model renders finished steps above a spinner for the current one.
type model struct {
	title      string
	spinner    spinner.Model
	current    string
	lines      []string
	cancel     context.CancelFunc
	cancelling bool
	done       bool
	err        error
}

func newModel(title string, cancel context.CancelFunc) model {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(spinnerStyle),
	)
	return model{title: title, spinner: s, cancel: cancel}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" && !m.cancelling {
			m.cancelling = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil

	case stepMsg:
		m.finishCurrent()
		m.current = string(msg)
		return m, nil

	case infoMsg:
		m.lines = append(m.lines, infoStyle.Render("  "+string(msg)))
		return m, nil

	case successMsg:
		m.finishCurrent()
		m.lines = append(m.lines, doneStyle.Render("✓ "+string(msg)))
		return m, nil

	case warnMsg:
		m.lines = append(m.lines, warnStyle.Render("⚠ "+string(msg)))
		return m, nil

	case doneMsg:
		m.done = true
		m.err = msg.err
		if m.err != nil && m.current != "" {
			m.lines = append(m.lines, failStyle.Render("✗ "+m.current))
			m.current = ""
		}
		m.finishCurrent()
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) finishCurrent() {
	if m.current == "" {
		return
	}
	m.lines = append(m.lines, doneStyle.Render("✓")+" "+m.current)
	m.current = ""
}

func (m model) View() string {
	var b strings.Builder
	if m.title != "" {
		b.WriteString(titleStyle.Render(m.title))
		b.WriteString("\n")
	}
	for _, l := range m.lines {
		b.WriteString(l)
		b.WriteString("\n")
	}
	if m.current != "" {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(m.current)
		if m.cancelling {
			b.WriteString(infoStyle.Render(" (cancelling)"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Progress forwards reporter calls to a running bubbletea program.
type Progress struct {
	program *tea.Program
}

func (p *Progress) Step(msg string)    { p.program.Send(stepMsg(msg)) }
func (p *Progress) Info(msg string)    { p.program.Send(infoMsg(msg)) }
func (p *Progress) Success(msg string) { p.program.Send(successMsg(msg)) }
func (p *Progress) Warn(msg string)    { p.program.Send(warnMsg(msg)) }

// RunProgress runs fn while rendering its progress to out. Ctrl+C cancels
// the context passed to fn; the display stays up until fn returns. The
// error is fn's.
func RunProgress(ctx context.Context, out io.Writer, title string, fn func(ctx context.Context, p *Progress) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prog := tea.NewProgram(newModel(title, cancel), tea.WithOutput(out))
	p := &Progress{program: prog}

	errCh := make(chan error, 1)
	go func() {
		err := fn(ctx, p)
		errCh <- err
		prog.Send(doneMsg{err: err})
	}()

	if _, err := prog.Run(); err != nil {
		// The display failed; reporter calls become no-ops and fn still
		// runs to completion.
		if ferr := <-errCh; ferr != nil {
			return ferr
		}
		return err
	}
	return <-errCh
}
