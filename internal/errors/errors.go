package errors

import (
	"errors"
	"fmt"
)

// Exit codes for polis
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitPrecondition = 2
	ExitToolFailed   = 3
	ExitTimeout      = 4
	ExitIntegrity    = 5
	ExitConfigError  = 6
	ExitHealthFailed = 7
)

// PolisError is the base error type for polis
type PolisError struct {
	Code    int
	Message string
	Cause   error

	// Hint is a concrete recovery action shown to the operator.
	Hint string
}

func (e *PolisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *PolisError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the exit code for this error
func (e *PolisError) ExitCode() int {
	return e.Code
}

// WithHint returns e with the recovery hint set.
func (e *PolisError) WithHint(hint string) *PolisError {
	e.Hint = hint
	return e
}

// New creates a new PolisError
func New(code int, message string) *PolisError {
	return &PolisError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a PolisError
func Wrap(code int, message string, cause error) *PolisError {
	return &PolisError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Common error constructors

// Precondition returns an error for an operation the current workspace state does not allow.
func Precondition(message, hint string) *PolisError {
	return New(ExitPrecondition, message).WithHint(hint)
}

// AgentConflict returns the error for a running workspace serving a different agent.
func AgentConflict(active, requested string) *PolisError {
	if active == "" {
		active = "none"
	}
	if requested == "" {
		requested = "none"
	}
	return Precondition(
		fmt.Sprintf("workspace is running with agent %s, requested %s", active, requested),
		"polis stop",
	)
}

// ToolFailed returns an error for an external program that failed or could not be spawned
func ToolFailed(op string, cause error) *PolisError {
	return Wrap(ExitToolFailed, fmt.Sprintf("%s failed", op), cause)
}

// Timeout returns an error for an external program killed after exceeding its budget
func Timeout(op string, cause error) *PolisError {
	return Wrap(ExitTimeout, fmt.Sprintf("%s timed out", op), cause).WithHint("try again")
}

// Integrity returns an error for digest mismatches and tampered persisted state
func Integrity(message string, cause error, hint string) *PolisError {
	return Wrap(ExitIntegrity, message, cause).WithHint(hint)
}

// ConfigError returns an error for configuration issues
func ConfigError(message string, cause error) *PolisError {
	return Wrap(ExitConfigError, message, cause)
}

// HealthFailed returns an error for a workspace that never became healthy
func HealthFailed(reason, hint string) *PolisError {
	return New(ExitHealthFailed, fmt.Sprintf("workspace did not become healthy: %s", reason)).WithHint(hint)
}

// ValidationError returns an error for input validation failures
func ValidationError(message string) *PolisError {
	return New(ExitGeneralError, message)
}

// GetExitCode extracts the exit code from an error
func GetExitCode(err error) int {
	var polisErr *PolisError
	if errors.As(err, &polisErr) {
		return polisErr.ExitCode()
	}
	return ExitGeneralError
}

// GetHint returns the first recovery hint found in err's chain.
func GetHint(err error) string {
	var polisErr *PolisError
	for err != nil {
		if !errors.As(err, &polisErr) {
			return ""
		}
		if polisErr.Hint != "" {
			return polisErr.Hint
		}
		err = polisErr.Cause
	}
	return ""
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}
