// Package vm controls the workspace VM through the multipass CLI.
//
// The control port is split into four capability interfaces so consumers
// depend only on what they use:
//
//	Lifecycle     launch, start, stop, delete, purge
//	Inspection    info, version
//	FileTransfer  transfer, transfer --recursive
//	ShellExecutor exec and its stdin, status-only and detached variants
//
// [Multipass] implements all four. [Scoped] wraps only Inspection and
// ShellExecutor with a short per-call timeout for readiness probes.
//
// [Probe] turns `multipass info` into a [State]. Inspection failures read as
// NotFound and unrecognized state strings read as Stopped.
package vm
