package system

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/odralabshq/polis/internal/logging"
)

// ErrTimeout is wrapped by errors returned when a program exceeded its budget.
var ErrTimeout = errors.New("timed out")

// waitDelay bounds how long Wait blocks on pipes still held by
// grandchildren after the process group was killed.
const waitDelay = 2 * time.Second

// Output is the captured result of a finished program.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Success reports whether the program exited with status 0.
func (o Output) Success() bool {
	return o.ExitCode == 0
}

// Err returns nil on success, otherwise an error carrying stderr.
func (o Output) Err() error {
	if o.Success() {
		return nil
	}
	msg := strings.TrimSpace(string(o.Stderr))
	if msg == "" {
		msg = strings.TrimSpace(string(o.Stdout))
	}
	if msg == "" {
		return fmt.Errorf("exit status %d", o.ExitCode)
	}
	return fmt.Errorf("exit status %d: %s", o.ExitCode, msg)
}

// Executor abstracts program execution for testability.
type Executor interface {
	// Run runs a program to completion within the executor's budget.
	Run(ctx context.Context, name string, args ...string) (Output, error)

	// RunWithTimeout is Run with an explicit budget for this call only.
	RunWithTimeout(ctx context.Context, timeout time.Duration, name string, args ...string) (Output, error)

	// RunWithStdin pipes stdin to the program.
	RunWithStdin(ctx context.Context, stdin []byte, name string, args ...string) (Output, error)

	// RunStatus runs a program and reports only its exit status.
	RunStatus(ctx context.Context, name string, args ...string) (int, error)

	// Spawn starts a program and returns without waiting for it.
	Spawn(ctx context.Context, name string, args ...string) error
}

// OSExecutor implements Executor using real processes.
type OSExecutor struct {
	// Timeout is the default budget of Run, RunWithStdin and RunStatus.
	// Zero means no budget beyond the caller's context.
	Timeout time.Duration

	// Label names this executor in debug logs.
	Label string
}

// NewOSExecutor returns an executor with the given default budget.
func NewOSExecutor(label string, timeout time.Duration) *OSExecutor {
	return &OSExecutor{Label: label, Timeout: timeout}
}

func (e *OSExecutor) Run(ctx context.Context, name string, args ...string) (Output, error) {
	return e.run(ctx, e.Timeout, nil, name, args)
}

func (e *OSExecutor) RunWithTimeout(ctx context.Context, timeout time.Duration, name string, args ...string) (Output, error) {
	return e.run(ctx, timeout, nil, name, args)
}

func (e *OSExecutor) RunWithStdin(ctx context.Context, stdin []byte, name string, args ...string) (Output, error) {
	return e.run(ctx, e.Timeout, stdin, name, args)
}

func (e *OSExecutor) RunStatus(ctx context.Context, name string, args ...string) (int, error) {
	out, err := e.run(ctx, e.Timeout, nil, name, args)
	if err != nil {
		return -1, err
	}
	return out.ExitCode, nil
}

func (e *OSExecutor) Spawn(ctx context.Context, name string, args ...string) error {
	logging.Debug("spawning detached", "executor", e.Label, "cmd", commandLine(name, args))

	// Detached children are not tied to ctx: the caller explicitly does not wait.
	cmd := exec.Command(name, args...) //nolint:gosec
	detach(cmd)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

func (e *OSExecutor) run(ctx context.Context, timeout time.Duration, stdin []byte, name string, args []string) (Output, error) {
	runCtx := ctx
	cancel := context.CancelFunc(func() {})
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	cmd := exec.CommandContext(runCtx, name, args...) //nolint:gosec
	killProcessGroup(cmd)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	start := time.Now()
	logging.Debug("running", "executor", e.Label, "cmd", commandLine(name, args), "timeout", timeout)

	err := cmd.Run()
	out := Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	// The caller's own cancellation wins over our budget.
	if ctx.Err() != nil {
		return out, ctx.Err()
	}
	if runCtx.Err() == context.DeadlineExceeded {
		logging.Debug("killed after timeout", "executor", e.Label, "cmd", name, "elapsed", time.Since(start))
		return out, fmt.Errorf("%s after %s: %w", name, timeout, ErrTimeout)
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			logging.Debug("exited", "executor", e.Label, "cmd", name, "status", out.ExitCode, "elapsed", time.Since(start))
			return out, nil
		}
		return out, fmt.Errorf("run %s: %w", name, err)
	}

	logging.Debug("exited", "executor", e.Label, "cmd", name, "status", 0, "elapsed", time.Since(start))
	return out, nil
}

func commandLine(name string, args []string) string {
	return shellquote.Join(append([]string{name}, args...)...)
}
