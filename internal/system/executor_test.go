//go:build !windows

package system

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"
)

func requireProgram(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available", name)
	}
}

func TestOSExecutor_CapturesOutputAndStatus(t *testing.T) {
	requireProgram(t, "sh")
	e := NewOSExecutor("test", 5*time.Second)

	out, err := e.Run(context.Background(), "sh", "-c", "echo out; echo err >&2; exit 3")
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if strings.TrimSpace(string(out.Stdout)) != "out" {
		t.Errorf("Stdout = %q", out.Stdout)
	}
	if strings.TrimSpace(string(out.Stderr)) != "err" {
		t.Errorf("Stderr = %q", out.Stderr)
	}
	if out.ExitCode != 3 || out.Success() {
		t.Errorf("ExitCode = %d, want 3", out.ExitCode)
	}
	if out.Err() == nil || !strings.Contains(out.Err().Error(), "err") {
		t.Errorf("Err() = %v, want stderr text", out.Err())
	}
}

func TestOSExecutor_Stdin(t *testing.T) {
	requireProgram(t, "cat")
	e := NewOSExecutor("test", 5*time.Second)

	out, err := e.RunWithStdin(context.Background(), []byte("piped"), "cat")
	if err != nil {
		t.Fatalf("RunWithStdin error: %v", err)
	}
	if string(out.Stdout) != "piped" {
		t.Errorf("Stdout = %q, want %q", out.Stdout, "piped")
	}
}

func TestOSExecutor_SpawnFailure(t *testing.T) {
	e := NewOSExecutor("test", time.Second)

	_, err := e.Run(context.Background(), "polis-definitely-not-installed")
	if err == nil {
		t.Fatal("expected spawn error")
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("spawn failure must not be reported as timeout")
	}
}

func TestOSExecutor_IndependentBudgets(t *testing.T) {
	requireProgram(t, "sleep")

	admin := NewOSExecutor("admin", 100*time.Millisecond)
	shell := NewOSExecutor("shell", 300*time.Millisecond)
	const slack = time.Second

	type result struct {
		elapsed time.Duration
		err     error
	}
	var wg sync.WaitGroup
	results := make([]result, 2)
	for i, e := range []*OSExecutor{admin, shell} {
		wg.Add(1)
		go func(i int, e *OSExecutor) {
			defer wg.Done()
			start := time.Now()
			_, err := e.Run(context.Background(), "sleep", "30")
			results[i] = result{time.Since(start), err}
		}(i, e)
	}
	wg.Wait()

	for i, budget := range []time.Duration{admin.Timeout, shell.Timeout} {
		r := results[i]
		if !errors.Is(r.err, ErrTimeout) {
			t.Errorf("executor %d: err = %v, want ErrTimeout", i, r.err)
		}
		if r.elapsed < budget {
			t.Errorf("executor %d returned after %v, before its budget %v", i, r.elapsed, budget)
		}
		if r.elapsed > budget+slack {
			t.Errorf("executor %d returned after %v, want within %v", i, r.elapsed, budget+slack)
		}
	}
	if results[0].elapsed >= results[1].elapsed+slack {
		t.Errorf("short budget finished at %v, later than long budget %v", results[0].elapsed, results[1].elapsed)
	}
}

func TestOSExecutor_TimeoutKillsProcessGroup(t *testing.T) {
	requireProgram(t, "sh")
	requireProgram(t, "sleep")
	e := NewOSExecutor("test", 200*time.Millisecond)

	// The grandchild keeps stdout open; without a group kill Wait would block
	// until it exits.
	start := time.Now()
	_, err := e.Run(context.Background(), "sh", "-c", "sleep 30 & sleep 30")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond+waitDelay+time.Second {
		t.Errorf("Run returned after %v", elapsed)
	}
}

func TestOSExecutor_RunWithTimeoutOverride(t *testing.T) {
	requireProgram(t, "sleep")
	e := NewOSExecutor("test", time.Minute)

	start := time.Now()
	_, err := e.RunWithTimeout(context.Background(), 100*time.Millisecond, "sleep", "30")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("override budget not applied")
	}
}

func TestOSExecutor_CallerCancellation(t *testing.T) {
	requireProgram(t, "sleep")
	e := NewOSExecutor("test", time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	_, err := e.Run(ctx, "sleep", "30")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("caller cancellation must not be reported as timeout")
	}
}

func TestOSExecutor_RunStatus(t *testing.T) {
	requireProgram(t, "sh")
	e := NewOSExecutor("test", 5*time.Second)

	code, err := e.RunStatus(context.Background(), "sh", "-c", "exit 7")
	if err != nil {
		t.Fatalf("RunStatus error: %v", err)
	}
	if code != 7 {
		t.Errorf("code = %d, want 7", code)
	}
}

func TestOSExecutor_Spawn(t *testing.T) {
	requireProgram(t, "sleep")
	e := NewOSExecutor("test", 100*time.Millisecond)

	start := time.Now()
	if err := e.Spawn(context.Background(), "sleep", "1"); err != nil {
		t.Fatalf("Spawn error: %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("Spawn should not wait for the program")
	}
}
