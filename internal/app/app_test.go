package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/odralabshq/polis/internal/config"
	"github.com/odralabshq/polis/internal/digest"
	"github.com/odralabshq/polis/internal/system"
	"github.com/odralabshq/polis/internal/vm"
)

func noEnv(string) (string, bool) { return "", false }

func TestNew_Defaults(t *testing.T) {
	paths := config.NewPaths(t.TempDir())

	a, err := New(WithPaths(paths), WithLookupEnv(noEnv))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if a.Config == nil || a.Config.VM.Instance != config.DefaultInstance {
		t.Errorf("Config = %+v, want defaults", a.Config)
	}
	mp, ok := a.Workspace.(*vm.Multipass)
	if !ok {
		t.Fatalf("Workspace = %T, want *vm.Multipass", a.Workspace)
	}
	if _, ok := a.Inspect.(*vm.Scoped); !ok {
		t.Errorf("Inspect = %T, want *vm.Scoped", a.Inspect)
	}
	if _, ok := a.Health.(*vm.Scoped); !ok {
		t.Errorf("Health = %T, want *vm.Scoped", a.Health)
	}

	admin, ok := mp.Admin.(*system.OSExecutor)
	if !ok {
		t.Fatalf("Admin = %T", mp.Admin)
	}
	shell, ok := mp.Shell.(*system.OSExecutor)
	if !ok {
		t.Fatalf("Shell = %T", mp.Shell)
	}
	if admin == shell {
		t.Error("admin and shell executors must be distinct")
	}
	if admin.Timeout != config.DefaultAdminTimeout || shell.Timeout != config.DefaultShellTimeout {
		t.Errorf("budgets = %v/%v", admin.Timeout, shell.Timeout)
	}
	if a.Digests == nil {
		t.Error("Digests should be loaded from the embedded manifest")
	}
}

func TestNew_LoadsConfigFile(t *testing.T) {
	home := t.TempDir()
	paths := config.NewPaths(home)
	if err := os.WriteFile(filepath.Join(home, "config.toml"), []byte("[vm]\ncpus = 6\n"), 0644); err != nil {
		t.Fatal(err)
	}
	env := map[string]string{config.EnvHealthTimeout: "90"}

	a, err := New(WithPaths(paths), WithLookupEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if a.Config.VM.CPUs != 6 {
		t.Errorf("CPUs = %d, want 6", a.Config.VM.CPUs)
	}
	if a.Config.Timeouts.Health.Duration != 90*time.Second {
		t.Errorf("Health timeout = %v, want 90s", a.Config.Timeouts.Health.Duration)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	home := t.TempDir()
	if err := os.WriteFile(filepath.Join(home, "config.toml"), []byte("[vm]\ncpus = 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(WithPaths(config.NewPaths(home)), WithLookupEnv(noEnv)); err == nil {
		t.Error("expected configuration error")
	}
}

func TestNew_WithWorkspace(t *testing.T) {
	mock := vm.NewMock("Running")
	a, err := New(
		WithPaths(config.NewPaths(t.TempDir())),
		WithConfig(config.Default()),
		WithWorkspace(mock),
		WithDigests(digest.Manifest{}),
	)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if a.Workspace != mock || a.Inspect != mock || a.Health != mock {
		t.Error("WithWorkspace should set every capability view")
	}

	o := a.Orchestrator(nil)
	if got := o.Probe.State(context.Background()); got != vm.Running {
		t.Errorf("probe state = %s, want running", got)
	}
}
