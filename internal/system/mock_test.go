package system

import (
	"context"
	"errors"
	"testing"
)

func TestMockExecutor_LongestPrefixWins(t *testing.T) {
	m := NewMockExecutor()
	m.AddResponse("multipass", "generic", 0, nil)
	m.AddResponse("multipass info", `{"info":{}}`, 0, nil)
	m.AddResponse("multipass info other", "", 2, nil)

	out, err := m.Run(context.Background(), "multipass", "info", "polis", "--format", "json")
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if string(out.Stdout) != `{"info":{}}` {
		t.Errorf("Stdout = %q, want info response", out.Stdout)
	}

	out, _ = m.Run(context.Background(), "multipass", "version")
	if string(out.Stdout) != "generic" {
		t.Errorf("Stdout = %q, want generic response", out.Stdout)
	}
}

func TestMockExecutor_DefaultResponse(t *testing.T) {
	m := NewMockExecutor()
	m.DefaultResponse = MockResponse{Err: errors.New("not installed")}

	if _, err := m.Run(context.Background(), "docker", "ps"); err == nil {
		t.Error("expected default error")
	}
}

func TestMockExecutor_RecordsStdinAndTimeout(t *testing.T) {
	m := NewMockExecutor()
	ctx := context.Background()

	_, _ = m.RunWithStdin(ctx, []byte("abc"), "multipass", "exec", "polis", "--", "tee", "/tmp/x")
	_, _ = m.RunWithTimeout(ctx, 42, "multipass", "launch")
	_ = m.Spawn(ctx, "multipass", "exec", "polis", "--", "sleep", "1")

	if len(m.Commands) != 3 {
		t.Fatalf("recorded %d commands, want 3", len(m.Commands))
	}
	if string(m.Commands[0].Stdin) != "abc" {
		t.Errorf("Stdin = %q, want %q", m.Commands[0].Stdin, "abc")
	}
	if m.Commands[1].Timeout != 42 {
		t.Errorf("Timeout = %v, want 42", m.Commands[1].Timeout)
	}
	if !m.Commands[2].Spawned {
		t.Error("Spawn should be recorded as spawned")
	}

	last, ok := m.LastCommand()
	if !ok || last.Line() != "multipass exec polis -- sleep 1" {
		t.Errorf("LastCommand = %q", last.Line())
	}

	m.Reset()
	if len(m.Lines()) != 0 {
		t.Error("Reset should clear commands")
	}
}

func TestMockExecutor_RunStatus(t *testing.T) {
	m := NewMockExecutor()
	m.AddResponse("false", "", 1, nil)

	code, err := m.RunStatus(context.Background(), "false")
	if err != nil {
		t.Fatalf("RunStatus error: %v", err)
	}
	if code != 1 {
		t.Errorf("code = %d, want 1", code)
	}
}
