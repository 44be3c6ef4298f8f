// Package logging provides logging utilities for polis.
//
// This package provides two categories of output:
//   - Debug logging: Structured logs for debugging (via slog)
//   - User output: Styled progress messages for operators
//
// # Debug Logging
//
// Debug logs are written using slog and controlled by verbosity settings.
// Every record carries a per-invocation run attribute:
//
//	logging.Debug("spawning", "program", "multipass", "timeout", timeout)
//
// # User Output
//
// UserReporter prints provisioning progress with status indicators:
//   - → (step)
//   - ✓ (success)
//   - ⚠ (warning)
//   - ✗ (error)
//
// Output destinations:
//   - Step, Info, Success: stdout
//   - Warn, UserError, UserHint: stderr
package logging
