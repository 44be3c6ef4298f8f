package system

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MockExecutor implements Executor for testing.
type MockExecutor struct {
	mu sync.Mutex

	// Commands records all executed commands for verification.
	Commands []MockCommand

	// Responses maps command prefixes to responses. The longest prefix of
	// "name arg1 arg2..." that has an entry wins.
	Responses map[string]MockResponse

	// DefaultResponse is used when no matching response is found.
	DefaultResponse MockResponse
}

// MockCommand records an executed command.
type MockCommand struct {
	Name    string
	Args    []string
	Stdin   []byte
	Timeout time.Duration
	Spawned bool
}

// Line returns the command as a space-joined string.
func (c MockCommand) Line() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// MockResponse defines the response for a command.
type MockResponse struct {
	Output Output
	Err    error
}

// NewMockExecutor creates a new MockExecutor.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{
		Commands:  make([]MockCommand, 0),
		Responses: make(map[string]MockResponse),
	}
}

// AddResponse adds a response for a command prefix.
func (m *MockExecutor) AddResponse(prefix string, stdout string, exitCode int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[prefix] = MockResponse{
		Output: Output{Stdout: []byte(stdout), ExitCode: exitCode},
		Err:    err,
	}
}

func (m *MockExecutor) Run(ctx context.Context, name string, args ...string) (Output, error) {
	return m.record(MockCommand{Name: name, Args: args})
}

func (m *MockExecutor) RunWithTimeout(ctx context.Context, timeout time.Duration, name string, args ...string) (Output, error) {
	return m.record(MockCommand{Name: name, Args: args, Timeout: timeout})
}

func (m *MockExecutor) RunWithStdin(ctx context.Context, stdin []byte, name string, args ...string) (Output, error) {
	return m.record(MockCommand{Name: name, Args: args, Stdin: stdin})
}

func (m *MockExecutor) RunStatus(ctx context.Context, name string, args ...string) (int, error) {
	out, err := m.record(MockCommand{Name: name, Args: args})
	if err != nil {
		return -1, err
	}
	return out.ExitCode, nil
}

func (m *MockExecutor) Spawn(ctx context.Context, name string, args ...string) error {
	_, err := m.record(MockCommand{Name: name, Args: args, Spawned: true})
	return err
}

func (m *MockExecutor) record(c MockCommand) (Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Commands = append(m.Commands, c)

	line := c.Line()
	best := -1
	var resp MockResponse
	for prefix, r := range m.Responses {
		if strings.HasPrefix(line, prefix) && len(prefix) > best {
			best = len(prefix)
			resp = r
		}
	}
	if best < 0 {
		resp = m.DefaultResponse
	}
	return resp.Output, resp.Err
}

// LastCommand returns the most recently executed command.
func (m *MockExecutor) LastCommand() (MockCommand, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Commands) == 0 {
		return MockCommand{}, false
	}
	return m.Commands[len(m.Commands)-1], true
}

// Lines returns every recorded command as a joined string.
func (m *MockExecutor) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := make([]string, len(m.Commands))
	for i, c := range m.Commands {
		lines[i] = c.Line()
	}
	return lines
}

// Reset clears all recorded commands.
func (m *MockExecutor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Commands = make([]MockCommand, 0)
}
