// Package system runs external programs for polis.
//
// Every externally observable side effect (multipass, and through it the
// in-VM docker compose stack) goes through an [Executor]. An [OSExecutor]
// carries its own timeout budget; polis builds two of them, one for short
// administrative calls and one for long in-VM shell executions, and the
// budgets never interact.
//
// On timeout the child's whole process group is killed before the call
// returns, so a hung multipass client cannot outlive polis.
//
// Non-zero exit is not an error at this layer: callers inspect
// [Output.ExitCode]. Errors are reserved for spawn failures, [ErrTimeout]
// and cancellation of the caller's context.
package system
