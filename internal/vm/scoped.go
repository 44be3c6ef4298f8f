package vm

import (
	"context"
	"time"

	"github.com/odralabshq/polis/internal/system"
)

// Scoped bounds every inspection and shell call of a Multipass adapter by a
// short timeout, for probes where a hung call must fail fast. It has no
// Lifecycle or FileTransfer methods.
type Scoped struct {
	inner   *Multipass
	timeout time.Duration
}

var (
	_ Inspection    = (*Scoped)(nil)
	_ ShellExecutor = (*Scoped)(nil)
)

// NewScoped wraps m with a per-call timeout.
func NewScoped(m *Multipass, timeout time.Duration) *Scoped {
	return &Scoped{inner: m, timeout: timeout}
}

func (s *Scoped) Info(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.inner.Info(ctx)
}

func (s *Scoped) Version(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.inner.Version(ctx)
}

func (s *Scoped) Exec(ctx context.Context, args ...string) (system.Output, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.inner.Exec(ctx, args...)
}

func (s *Scoped) ExecWithStdin(ctx context.Context, stdin []byte, args ...string) (system.Output, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.inner.ExecWithStdin(ctx, stdin, args...)
}

func (s *Scoped) ExecStatus(ctx context.Context, args ...string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.inner.ExecStatus(ctx, args...)
}

// Spawn does not wait, so the timeout does not apply.
func (s *Scoped) Spawn(ctx context.Context, args ...string) error {
	return s.inner.Spawn(ctx, args...)
}
