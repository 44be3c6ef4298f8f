package vm

import (
	"context"

	"github.com/odralabshq/polis/internal/system"
)

// Lifecycle creates and tears down the workspace VM.
type Lifecycle interface {
	// Launch blocks until the VM is up or spec.LaunchTimeout elapses.
	Launch(ctx context.Context, spec InstanceSpec) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	// Delete is a soft delete; Purge removes soft-deleted instances for good.
	Delete(ctx context.Context) error
	Purge(ctx context.Context) error
}

// Inspection reads VM manager status without changing anything.
type Inspection interface {
	// Info returns the raw `info --format json` payload. It fails when the
	// manager cannot be run or reports a non-zero exit.
	Info(ctx context.Context) ([]byte, error)
	Version(ctx context.Context) (string, error)
}

// FileTransfer copies host files into the VM.
type FileTransfer interface {
	Transfer(ctx context.Context, local, remote string) error
	TransferRecursive(ctx context.Context, local, remote string) error
}

// ShellExecutor runs commands inside the VM.
type ShellExecutor interface {
	Exec(ctx context.Context, args ...string) (system.Output, error)
	ExecWithStdin(ctx context.Context, stdin []byte, args ...string) (system.Output, error)
	ExecStatus(ctx context.Context, args ...string) (int, error)
	Spawn(ctx context.Context, args ...string) error
}

// Workspace is the full capability set of a VM manager adapter.
type Workspace interface {
	Lifecycle
	Inspection
	FileTransfer
	ShellExecutor
}
