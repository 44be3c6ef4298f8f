// Package lock serializes mutating polis commands on one host.
package lock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	perrors "github.com/odralabshq/polis/internal/errors"
	"github.com/odralabshq/polis/internal/logging"
)

// Lock is an exclusive advisory lock on a file, held for one provisioning run.
type Lock struct {
	path string
	fl   *flock.Flock
}

// Acquire takes the lock without waiting. A lock held by another process
// is a precondition failure.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire flock %s: %w", path, err)
	}
	if !ok {
		return nil, perrors.Precondition(
			"another polis command is already running",
			"wait for it to finish, then retry",
		)
	}
	logging.Debug("acquired lock", "path", path)
	return &Lock{path: path, fl: fl}, nil
}

// Release drops the lock. Releasing twice is a no-op.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	err := l.fl.Unlock()
	l.fl = nil
	if err != nil {
		return fmt.Errorf("release flock %s: %w", l.path, err)
	}
	logging.Debug("released lock", "path", l.path)
	return nil
}

// With runs fn while holding the lock at path.
func With(path string, fn func() error) (err error) {
	l, err := Acquire(path)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := l.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()
	return fn()
}
