package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	perrors "github.com/odralabshq/polis/internal/errors"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestNewPaths(t *testing.T) {
	paths := NewPaths("/tmp/polis-home")

	want := map[string]string{
		paths.StateFile:    "/tmp/polis-home/state.json",
		paths.RunStateFile: "/tmp/polis-home/run-state.json",
		paths.LockFile:     "/tmp/polis-home/polis.lock",
		paths.ConfigFile:   "/tmp/polis-home/config.toml",
		paths.BundleDir:    "/tmp/polis-home/bundle",
		paths.AgentsDir:    "/tmp/polis-home/agents",
	}
	for got, w := range want {
		if got != filepath.FromSlash(w) {
			t.Errorf("path = %q, want %q", got, w)
		}
	}
}

func TestDefaultPaths_EnvOverride(t *testing.T) {
	home := t.TempDir()
	t.Setenv(EnvHome, home)

	paths, err := DefaultPaths()
	if err != nil {
		t.Fatalf("DefaultPaths error: %v", err)
	}
	if paths.Home != home {
		t.Errorf("Home = %q, want %q", paths.Home, home)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"), nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.VM.Instance != DefaultInstance {
		t.Errorf("Instance = %q, want %q", cfg.VM.Instance, DefaultInstance)
	}
	if cfg.VM.LaunchTimeout.Duration != DefaultLaunchTimeout {
		t.Errorf("LaunchTimeout = %v, want %v", cfg.VM.LaunchTimeout, DefaultLaunchTimeout)
	}
	if cfg.Timeouts.Health.Duration != DefaultHealthTimeout {
		t.Errorf("Health = %v, want %v", cfg.Timeouts.Health, DefaultHealthTimeout)
	}
	if cfg.Compose.Service != DefaultComposeService {
		t.Errorf("Service = %q, want %q", cfg.Compose.Service, DefaultComposeService)
	}
}

func TestLoad_FileOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
[vm]
cpus = 4
memory = "16G"

[timeouts]
shell = "30m"
`)

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.VM.CPUs != 4 {
		t.Errorf("CPUs = %d, want 4", cfg.VM.CPUs)
	}
	if cfg.VM.Memory != "16G" {
		t.Errorf("Memory = %q, want 16G", cfg.VM.Memory)
	}
	if cfg.Timeouts.Shell.Duration != 30*time.Minute {
		t.Errorf("Shell = %v, want 30m", cfg.Timeouts.Shell)
	}
	if cfg.Timeouts.Admin.Duration != DefaultAdminTimeout {
		t.Errorf("Admin = %v, want default", cfg.Timeouts.Admin)
	}
	if cfg.VM.Disk != DefaultDisk {
		t.Errorf("Disk = %q, want default", cfg.VM.Disk)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "[vm\ncpus = 2"},
		{"unknown key", "[vm]\ncolour = \"blue\""},
		{"bad duration", "[timeouts]\nadmin = \"soon\""},
		{"bad memory", "[vm]\nmemory = \"lots\""},
		{"zero cpus", "[vm]\ncpus = 0"},
		{"bad instance", "[vm]\ninstance = \"../etc\""},
		{"memory below 1M", "[vm]\nmemory = \"512K\""},
		{"relative cloud-init", "[vm]\ncloud_init = \"init.yaml\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content), nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if code := perrors.GetExitCode(err); code != perrors.ExitConfigError {
				t.Errorf("exit code = %d, want %d", code, perrors.ExitConfigError)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name       string
		vars       map[string]string
		wantHealth time.Duration
		wantImage  string
		wantErr    bool
	}{
		{"none", nil, DefaultHealthTimeout, DefaultImage, false},
		{"seconds", map[string]string{EnvHealthTimeout: "120"}, 120 * time.Second, DefaultImage, false},
		{"duration", map[string]string{EnvHealthTimeout: "3m"}, 3 * time.Minute, DefaultImage, false},
		{"image", map[string]string{EnvImage: "/images/polis.img"}, DefaultHealthTimeout, "/images/polis.img", false},
		{"invalid", map[string]string{EnvHealthTimeout: "forever"}, 0, "", true},
		{"negative", map[string]string{EnvHealthTimeout: "-5"}, 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			err := cfg.ApplyEnv(env(tt.vars))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyEnv error: %v", err)
			}
			if cfg.Timeouts.Health.Duration != tt.wantHealth {
				t.Errorf("Health = %v, want %v", cfg.Timeouts.Health, tt.wantHealth)
			}
			if cfg.VM.Image != tt.wantImage {
				t.Errorf("Image = %q, want %q", cfg.VM.Image, tt.wantImage)
			}
		})
	}
}

func TestLoad_ShortHealthOverrideClampsInterval(t *testing.T) {
	path := writeConfig(t, "[timeouts]\nhealth_interval = \"10s\"\nhealth = \"20s\"")

	cfg, err := Load(path, env(map[string]string{EnvHealthTimeout: "5"}))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Timeouts.Health.Duration != 5*time.Second {
		t.Errorf("Health = %v, want 5s", cfg.Timeouts.Health)
	}
	if cfg.Timeouts.HealthInterval.Duration != 5*time.Second {
		t.Errorf("HealthInterval = %v, want clamped to 5s", cfg.Timeouts.HealthInterval)
	}
}

func TestLoad_DefaultIntervalWithOneSecondHealth(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"), env(map[string]string{EnvHealthTimeout: "1"}))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Timeouts.HealthInterval.Duration != time.Second {
		t.Errorf("HealthInterval = %v, want 1s", cfg.Timeouts.HealthInterval)
	}
}
