package vm

import (
	"context"
	"errors"
	"strings"
	"time"

	perrors "github.com/odralabshq/polis/internal/errors"
	"github.com/odralabshq/polis/internal/logging"
	"github.com/odralabshq/polis/internal/system"
)

// DefaultBinary is the VM manager program.
const DefaultBinary = "multipass"

// launchSlack is added to the launch budget so multipass can report its
// own --timeout failure before we kill it.
const launchSlack = 30 * time.Second

// Multipass implements Workspace by driving the multipass CLI.
//
// Inspection and lifecycle calls go through the admin executor. Transfers
// and in-VM execution go through the shell executor, whose budget is sized
// for long image pulls.
type Multipass struct {
	Instance string
	Binary   string

	Admin system.Executor
	Shell system.Executor

	// LifecycleTimeout bounds start, stop and delete.
	LifecycleTimeout time.Duration
}

var _ Workspace = (*Multipass)(nil)

// NewMultipass returns an adapter for instance.
func NewMultipass(instance string, admin, shell system.Executor, lifecycleTimeout time.Duration) *Multipass {
	return &Multipass{
		Instance:         instance,
		Binary:           DefaultBinary,
		Admin:            admin,
		Shell:            shell,
		LifecycleTimeout: lifecycleTimeout,
	}
}

func (m *Multipass) Launch(ctx context.Context, spec InstanceSpec) error {
	args, err := spec.Args(m.Instance)
	if err != nil {
		return perrors.ConfigError("invalid instance spec", err)
	}
	logging.Debug("launching instance", "instance", m.Instance, "spec", spec.String())
	out, err := m.Admin.RunWithTimeout(ctx, spec.Timeout()+launchSlack, m.Binary, args...)
	return RequireSuccess("multipass launch", out, err)
}

func (m *Multipass) Start(ctx context.Context) error {
	return m.lifecycle(ctx, "start")
}

func (m *Multipass) Stop(ctx context.Context) error {
	return m.lifecycle(ctx, "stop")
}

func (m *Multipass) Delete(ctx context.Context) error {
	return m.lifecycle(ctx, "delete")
}

func (m *Multipass) Purge(ctx context.Context) error {
	out, err := m.Admin.Run(ctx, m.Binary, "purge")
	return RequireSuccess("multipass purge", out, err)
}

func (m *Multipass) lifecycle(ctx context.Context, verb string) error {
	out, err := m.Admin.RunWithTimeout(ctx, m.LifecycleTimeout, m.Binary, verb, m.Instance)
	return RequireSuccess("multipass "+verb, out, err)
}

func (m *Multipass) Info(ctx context.Context) ([]byte, error) {
	out, err := m.Admin.Run(ctx, m.Binary, m.infoArgs()...)
	if err := RequireSuccess("multipass info", out, err); err != nil {
		return nil, err
	}
	return out.Stdout, nil
}

func (m *Multipass) infoArgs() []string {
	return []string{"info", m.Instance, "--format", "json"}
}

func (m *Multipass) Version(ctx context.Context) (string, error) {
	out, err := m.Admin.Run(ctx, m.Binary, "version")
	if err := RequireSuccess("multipass version", out, err); err != nil {
		return "", err
	}
	return parseVersion(out.Stdout), nil
}

// parseVersion extracts the client version from output such as
// "multipass   1.14.0\nmultipassd  1.14.0".
func parseVersion(out []byte) string {
	first, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	fields := strings.Fields(first)
	if len(fields) >= 2 {
		return fields[1]
	}
	return strings.TrimSpace(first)
}

func (m *Multipass) Transfer(ctx context.Context, local, remote string) error {
	out, err := m.Shell.Run(ctx, m.Binary, "transfer", local, m.Instance+":"+remote)
	return RequireSuccess("multipass transfer", out, err)
}

func (m *Multipass) TransferRecursive(ctx context.Context, local, remote string) error {
	out, err := m.Shell.Run(ctx, m.Binary, "transfer", "--recursive", local, m.Instance+":"+remote)
	return RequireSuccess("multipass transfer", out, err)
}

func (m *Multipass) Exec(ctx context.Context, args ...string) (system.Output, error) {
	out, err := m.Shell.Run(ctx, m.Binary, m.execArgs(args)...)
	return out, classify("multipass exec", err)
}

func (m *Multipass) ExecWithStdin(ctx context.Context, stdin []byte, args ...string) (system.Output, error) {
	out, err := m.Shell.RunWithStdin(ctx, stdin, m.Binary, m.execArgs(args)...)
	return out, classify("multipass exec", err)
}

func (m *Multipass) ExecStatus(ctx context.Context, args ...string) (int, error) {
	code, err := m.Shell.RunStatus(ctx, m.Binary, m.execArgs(args)...)
	return code, classify("multipass exec", err)
}

func (m *Multipass) Spawn(ctx context.Context, args ...string) error {
	return classify("multipass exec", m.Shell.Spawn(ctx, m.Binary, m.execArgs(args)...))
}

func (m *Multipass) execArgs(args []string) []string {
	return append([]string{"exec", m.Instance, "--"}, args...)
}

// RequireSuccess turns a finished command into an error naming op when it
// could not run, timed out, or exited non-zero.
func RequireSuccess(op string, out system.Output, err error) error {
	if err != nil {
		return classify(op, err)
	}
	if !out.Success() {
		return perrors.ToolFailed(op, out.Err())
	}
	return nil
}

func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, system.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return perrors.Timeout(op, err)
	default:
		return perrors.ToolFailed(op, err)
	}
}
