package lock

import (
	"errors"
	"path/filepath"
	"testing"

	perrors "github.com/odralabshq/polis/internal/errors"
)

func TestAcquire_Exclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "polis.lock")

	first, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire error: %v", err)
	}

	_, err = Acquire(path)
	if err == nil {
		t.Fatal("second Acquire should fail while the lock is held")
	}
	if perrors.GetExitCode(err) != perrors.ExitPrecondition {
		t.Errorf("exit code = %d, want %d", perrors.GetExitCode(err), perrors.ExitPrecondition)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release error: %v", err)
	}
	if err := first.Release(); err != nil {
		t.Errorf("second Release error: %v", err)
	}

	again, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	_ = again.Release()
}

func TestWith(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "polis.lock")
	sentinel := errors.New("step failed")

	err := With(path, func() error {
		if _, err := Acquire(path); err == nil {
			t.Error("lock should be held inside With")
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("With() = %v, want fn's error", err)
	}

	if err := With(path, func() error { return nil }); err != nil {
		t.Errorf("lock should be released after With: %v", err)
	}
}
