package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/odralabshq/polis/internal/app"
	"github.com/odralabshq/polis/internal/digest"
	"github.com/odralabshq/polis/internal/errors"
	"github.com/odralabshq/polis/internal/health"
	"github.com/odralabshq/polis/internal/provision"
	"github.com/odralabshq/polis/internal/state"
	"github.com/odralabshq/polis/internal/testutil"
	"github.com/odralabshq/polis/internal/vm"
)

const testWorkspaceID = "polis-0123456789abcdef"

// runCLI executes the command tree against env's mock VM.
func runCLI(t *testing.T, env *testutil.TestEnv, args ...string) (string, error) {
	t.Helper()

	orig := newApp
	newApp = func() (*app.App, error) {
		return app.New(
			app.WithPaths(env.Paths),
			app.WithConfig(env.Config),
			app.WithWorkspace(env.VM),
			app.WithDigests(digest.Manifest{}),
		)
	}
	t.Cleanup(func() { newApp = orig })

	startAgent = ""
	logsLines = 50
	quiet, verbose, jsonOutput = false, false, false

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--quiet"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestStartCommand_CreatesWorkspace(t *testing.T) {
	env := testutil.NewTestEnv(t, "")
	env.SetHealthy()

	if _, err := runCLI(t, env, "start", "--agent", "alpha"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	ws := env.Workspace()
	if ws == nil || ws.ActiveAgent != "alpha" {
		t.Fatalf("workspace = %+v, want alpha active", ws)
	}
	if !env.VM.Called("Launch") {
		t.Error("VM should be launched")
	}
}

func TestStartCommand_Conflict(t *testing.T) {
	env := testutil.NewTestEnv(t, "Running")
	env.SaveWorkspace(testWorkspaceID, "alpha")

	_, err := runCLI(t, env, "start", "--agent", "beta")
	if code := errors.GetExitCode(err); code != errors.ExitPrecondition {
		t.Fatalf("exit code = %d (%v), want %d", code, err, errors.ExitPrecondition)
	}
	if errors.GetHint(err) != "polis stop" {
		t.Errorf("hint = %q", errors.GetHint(err))
	}
}

func TestStopCommand(t *testing.T) {
	env := testutil.NewTestEnv(t, "Running")
	env.SaveWorkspace(testWorkspaceID, "alpha")

	if _, err := runCLI(t, env, "stop"); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if env.Workspace().ActiveAgent != "" {
		t.Error("active agent should be cleared")
	}
}

func TestDeleteCommand(t *testing.T) {
	env := testutil.NewTestEnv(t, "Stopped")
	env.SaveWorkspace(testWorkspaceID, "")

	if _, err := runCLI(t, env, "delete"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if env.Workspace() != nil {
		t.Error("workspace record should be removed")
	}
	if !env.VM.Called("Purge") {
		t.Error("VM should be purged")
	}
}

func TestExecCommand(t *testing.T) {
	env := testutil.NewTestEnv(t, "Running")
	env.VM.OnExec("echo hi", "hi\n", 0)
	env.VM.OnExec("false", "", 3)

	out, err := runCLI(t, env, "exec", "--", "echo", "hi")
	if err != nil {
		t.Fatalf("exec failed: %v", err)
	}
	if out != "hi\n" {
		t.Errorf("stdout = %q, want %q", out, "hi\n")
	}

	_, err = runCLI(t, env, "exec", "--", "false")
	if code := errors.GetExitCode(err); code != 3 {
		t.Errorf("exit code = %d, want in-VM status 3", code)
	}
}

func TestExecCommand_NotRunning(t *testing.T) {
	env := testutil.NewTestEnv(t, "Stopped")

	_, err := runCLI(t, env, "exec", "--", "ls")
	if code := errors.GetExitCode(err); code != errors.ExitPrecondition {
		t.Fatalf("exit code = %d, want %d", code, errors.ExitPrecondition)
	}
	if env.VM.Called("Exec") {
		t.Error("command must not run in a stopped VM")
	}
}

func TestExecCommand_RequiresDash(t *testing.T) {
	env := testutil.NewTestEnv(t, "Running")

	if _, err := runCLI(t, env, "exec", "ls"); err == nil {
		t.Error("expected usage error without --")
	}
}

func TestStatusCommand(t *testing.T) {
	env := testutil.NewTestEnv(t, "Running")
	env.SaveWorkspace(testWorkspaceID, "alpha")
	env.SetHealthy()

	out, err := runCLI(t, env, "status")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	for _, want := range []string{"running", testWorkspaceID, "alpha", "healthy", "1.14.0"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
	if len(env.VM.Mutations()) > 1 {
		t.Errorf("status changed the VM: %v", env.VM.Lines())
	}
}

func TestLogsCommand(t *testing.T) {
	env := testutil.NewTestEnv(t, "Running")
	env.VM.OnExec("docker compose -p polis -f /opt/polis/docker-compose.yml logs", "workspace-1  | ready\n", 0)

	out, err := runCLI(t, env, "logs", "workspace", "-n", "10")
	if err != nil {
		t.Fatalf("logs failed: %v", err)
	}
	if !strings.Contains(out, "ready") {
		t.Errorf("output = %q", out)
	}
	lines := env.VM.Lines()
	last := lines[len(lines)-1]
	if !strings.HasSuffix(last, "--tail 10 workspace") {
		t.Errorf("logs command = %q", last)
	}
}

func TestVersionCommand(t *testing.T) {
	env := testutil.NewTestEnv(t, "")

	out, err := runCLI(t, env, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "polis dev") || !strings.Contains(out, "multipass 1.14.0") {
		t.Errorf("output = %q", out)
	}
}

func TestPrintStatus(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	rep := &provision.StatusReport{
		VM:     vm.Stopped,
		Health: health.Unknown,
		Workspace: &state.WorkspaceState{
			WorkspaceID: testWorkspaceID,
			CreatedAt:   now.Add(-3 * time.Hour),
		},
		Checkpoint: &state.RunState{Stage: state.StageCredentialsSet, WorkspaceID: testWorkspaceID},
	}

	var buf bytes.Buffer
	printStatus(&buf, rep, now)
	out := buf.String()

	if strings.Contains(out, "Health:") {
		t.Error("health is only shown for a running VM")
	}
	if !strings.Contains(out, "3h 0m ago") {
		t.Errorf("missing age in:\n%s", out)
	}
	if !strings.Contains(out, "none") {
		t.Errorf("missing empty agent marker in:\n%s", out)
	}
	if !strings.Contains(out, "credentials_set") {
		t.Errorf("missing pending checkpoint in:\n%s", out)
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		want     string
	}{
		{"seconds", 30 * time.Second, "30s"},
		{"minutes", 45 * time.Minute, "45m"},
		{"hours and minutes", 2*time.Hour + 30*time.Minute, "2h 30m"},
		{"days and hours", 3*24*time.Hour + 5*time.Hour, "3d 5h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatAge(tt.duration); got != tt.want {
				t.Errorf("formatAge(%v) = %q, want %q", tt.duration, got, tt.want)
			}
		})
	}
}
