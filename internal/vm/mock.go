package vm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	perrors "github.com/odralabshq/polis/internal/errors"
	"github.com/odralabshq/polis/internal/system"
)

// Call records one capability invocation on a Mock.
type Call struct {
	Method string
	Args   []string
	Stdin  []byte
}

// Line returns the call as "Method arg1 arg2...".
func (c Call) Line() string {
	return strings.Join(append([]string{c.Method}, c.Args...), " ")
}

// ExecResult is a canned response for in-VM commands.
type ExecResult struct {
	Output system.Output
	Err    error
}

// Mock implements Workspace for testing. Lifecycle calls move Status the
// way multipass would.
type Mock struct {
	mu sync.Mutex

	// Status is the multipass state string. Empty means the instance does
	// not exist and Info fails.
	Status string

	VersionString string

	// Calls records every invocation in order.
	Calls []Call

	// ExecResponses maps the longest matching prefix of the space-joined
	// exec args to a result. Unmatched commands succeed with no output.
	ExecResponses map[string]ExecResult

	// Failures maps a method name (Launch, Start, Transfer, ...) to the
	// error it returns.
	Failures map[string]error
}

var _ Workspace = (*Mock)(nil)

// NewMock returns a mock whose instance has the given multipass status.
func NewMock(status string) *Mock {
	return &Mock{
		Status:        status,
		VersionString: "1.14.0",
		ExecResponses: make(map[string]ExecResult),
		Failures:      make(map[string]error),
	}
}

// OnExec registers stdout and exit status for commands starting with prefix.
func (m *Mock) OnExec(prefix, stdout string, exitCode int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExecResponses[prefix] = ExecResult{Output: system.Output{Stdout: []byte(stdout), ExitCode: exitCode}}
}

// Fail makes method return err.
func (m *Mock) Fail(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Failures[method] = err
}

func (m *Mock) record(method string, stdin []byte, args ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, Call{Method: method, Args: args, Stdin: stdin})
	return m.Failures[method]
}

func (m *Mock) setStatus(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Status = s
}

func (m *Mock) Launch(ctx context.Context, spec InstanceSpec) error {
	if err := m.record("Launch", nil, spec.Image); err != nil {
		return err
	}
	m.setStatus("Running")
	return nil
}

func (m *Mock) Start(ctx context.Context) error {
	if err := m.record("Start", nil); err != nil {
		return err
	}
	m.setStatus("Running")
	return nil
}

func (m *Mock) Stop(ctx context.Context) error {
	if err := m.record("Stop", nil); err != nil {
		return err
	}
	m.setStatus("Stopped")
	return nil
}

func (m *Mock) Delete(ctx context.Context) error {
	if err := m.record("Delete", nil); err != nil {
		return err
	}
	m.setStatus("Deleted")
	return nil
}

func (m *Mock) Purge(ctx context.Context) error {
	if err := m.record("Purge", nil); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Status == "Deleted" {
		m.Status = ""
	}
	return nil
}

func (m *Mock) Info(ctx context.Context) ([]byte, error) {
	if err := m.record("Info", nil); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Status == "" {
		return nil, perrors.ToolFailed("multipass info", fmt.Errorf("instance \"polis\" does not exist"))
	}
	return []byte(fmt.Sprintf(`{"errors":[],"info":{"polis":{"state":%q}}}`, m.Status)), nil
}

func (m *Mock) Version(ctx context.Context) (string, error) {
	if err := m.record("Version", nil); err != nil {
		return "", err
	}
	return m.VersionString, nil
}

func (m *Mock) Transfer(ctx context.Context, local, remote string) error {
	return m.record("Transfer", nil, local, remote)
}

func (m *Mock) TransferRecursive(ctx context.Context, local, remote string) error {
	return m.record("TransferRecursive", nil, local, remote)
}

func (m *Mock) Exec(ctx context.Context, args ...string) (system.Output, error) {
	if err := m.record("Exec", nil, args...); err != nil {
		return system.Output{}, err
	}
	r := m.lookup(args)
	return r.Output, r.Err
}

func (m *Mock) ExecWithStdin(ctx context.Context, stdin []byte, args ...string) (system.Output, error) {
	if err := m.record("ExecWithStdin", stdin, args...); err != nil {
		return system.Output{}, err
	}
	r := m.lookup(args)
	return r.Output, r.Err
}

func (m *Mock) ExecStatus(ctx context.Context, args ...string) (int, error) {
	if err := m.record("ExecStatus", nil, args...); err != nil {
		return -1, err
	}
	r := m.lookup(args)
	return r.Output.ExitCode, r.Err
}

func (m *Mock) Spawn(ctx context.Context, args ...string) error {
	return m.record("Spawn", nil, args...)
}

func (m *Mock) lookup(args []string) ExecResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	line := strings.Join(args, " ")
	best := -1
	var res ExecResult
	for prefix, r := range m.ExecResponses {
		if strings.HasPrefix(line, prefix) && len(prefix) > best {
			best = len(prefix)
			res = r
		}
	}
	return res
}

// Mutations returns every call other than Info and Version.
func (m *Mock) Mutations() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Call
	for _, c := range m.Calls {
		if c.Method == "Info" || c.Method == "Version" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Called reports whether method was invoked.
func (m *Mock) Called(method string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Calls {
		if c.Method == method {
			return true
		}
	}
	return false
}

// Lines returns every call rendered with Call.Line.
func (m *Mock) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := make([]string, len(m.Calls))
	for i, c := range m.Calls {
		lines[i] = c.Line()
	}
	return lines
}
