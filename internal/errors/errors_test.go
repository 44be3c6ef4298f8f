package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestPolisError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *PolisError
		wantMsg string
	}{
		{
			name:    "without cause",
			err:     New(ExitGeneralError, "something went wrong"),
			wantMsg: "something went wrong",
		},
		{
			name:    "with cause",
			err:     Wrap(ExitGeneralError, "operation failed", fmt.Errorf("underlying error")),
			wantMsg: "operation failed: underlying error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestPolisError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Wrap(ExitGeneralError, "wrapped", cause)

	if unwrapped := err.Unwrap(); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	errNoCause := New(ExitGeneralError, "no cause")
	if unwrapped := errNoCause.Unwrap(); unwrapped != nil {
		t.Errorf("Unwrap() = %v, want nil", unwrapped)
	}
}

func TestConstructors(t *testing.T) {
	cause := fmt.Errorf("boom")

	tests := []struct {
		name     string
		err      *PolisError
		wantCode int
		wantHint string
	}{
		{"precondition", Precondition("busy", "polis stop"), ExitPrecondition, "polis stop"},
		{"tool failed", ToolFailed("multipass launch", cause), ExitToolFailed, ""},
		{"timeout", Timeout("multipass info", cause), ExitTimeout, "try again"},
		{"integrity", Integrity("digest mismatch", cause, "polis delete"), ExitIntegrity, "polis delete"},
		{"config", ConfigError("bad config", cause), ExitConfigError, ""},
		{"health", HealthFailed("state: exited", "polis status"), ExitHealthFailed, "polis status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %d, want %d", tt.err.Code, tt.wantCode)
			}
			if tt.err.Hint != tt.wantHint {
				t.Errorf("Hint = %q, want %q", tt.err.Hint, tt.wantHint)
			}
		})
	}
}

func TestToolFailed_Message(t *testing.T) {
	err := ToolFailed("multipass start", fmt.Errorf("exit status 2"))

	if err.Message != "multipass start failed" {
		t.Errorf("Message = %q, want %q", err.Message, "multipass start failed")
	}
}

func TestAgentConflict(t *testing.T) {
	tests := []struct {
		active    string
		requested string
		want      string
	}{
		{"alpha", "beta", "agent alpha, requested beta"},
		{"alpha", "", "agent alpha, requested none"},
		{"", "beta", "agent none, requested beta"},
	}

	for _, tt := range tests {
		t.Run(tt.active+"->"+tt.requested, func(t *testing.T) {
			err := AgentConflict(tt.active, tt.requested)
			if err.Code != ExitPrecondition {
				t.Errorf("Code = %d, want %d", err.Code, ExitPrecondition)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Error() = %q, want it to contain %q", err.Error(), tt.want)
			}
			if err.Hint != "polis stop" {
				t.Errorf("Hint = %q, want %q", err.Hint, "polis stop")
			}
		})
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{
			name:     "PolisError",
			err:      Precondition("x", ""),
			wantCode: ExitPrecondition,
		},
		{
			name:     "wrapped PolisError",
			err:      fmt.Errorf("outer: %w", Timeout("exec", nil)),
			wantCode: ExitTimeout,
		},
		{
			name:     "regular error",
			err:      fmt.Errorf("some error"),
			wantCode: ExitGeneralError,
		},
		{
			name:     "nil error",
			err:      nil,
			wantCode: ExitGeneralError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.wantCode {
				t.Errorf("GetExitCode() = %d, want %d", got, tt.wantCode)
			}
		})
	}
}

func TestGetHint(t *testing.T) {
	inner := Timeout("multipass exec", fmt.Errorf("killed"))
	outer := ToolFailed("compose pull", inner)

	if got := GetHint(outer); got != "try again" {
		t.Errorf("GetHint() = %q, want %q", got, "try again")
	}
	if got := GetHint(fmt.Errorf("plain")); got != "" {
		t.Errorf("GetHint(plain) = %q, want empty", got)
	}
	if got := GetHint(nil); got != "" {
		t.Errorf("GetHint(nil) = %q, want empty", got)
	}
}

func TestErrorChaining(t *testing.T) {
	root := fmt.Errorf("root cause")
	middle := Wrap(ExitConfigError, "config error", root)
	outer := fmt.Errorf("operation failed: %w", middle)

	if !errors.Is(outer, root) {
		t.Error("errors.Is should find root cause")
	}

	var polisErr *PolisError
	if !As(outer, &polisErr) {
		t.Fatal("As should find PolisError")
	}
	if polisErr.Code != ExitConfigError {
		t.Errorf("Code = %d, want %d", polisErr.Code, ExitConfigError)
	}
}
