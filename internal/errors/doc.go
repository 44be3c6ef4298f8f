// Package errors provides typed errors with exit codes for polis.
//
// # Error Types
//
// PolisError is the base error type that wraps an error with an exit code
// and an optional recovery hint:
//
//	type PolisError struct {
//	    Code    int    // Exit code
//	    Message string // User-facing message
//	    Cause   error  // Wrapped error
//	    Hint    string // Command the operator can run to recover
//	}
//
// # Exit Codes
//
//	ExitSuccess      = 0  // Success
//	ExitGeneralError = 1  // General/unknown errors
//	ExitPrecondition = 2  // Workspace state does not allow the operation
//	ExitToolFailed   = 3  // multipass or an in-VM command failed
//	ExitTimeout      = 4  // A subprocess exceeded its budget and was killed
//	ExitIntegrity    = 5  // Digest mismatch or tampered state
//	ExitConfigError  = 6  // Configuration error
//	ExitHealthFailed = 7  // Workspace never reported healthy
//
// # Extracting Exit Codes
//
//	if err != nil {
//	    os.Exit(errors.GetExitCode(err))
//	}
package errors
