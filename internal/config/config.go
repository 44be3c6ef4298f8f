package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	perrors "github.com/odralabshq/polis/internal/errors"
	"github.com/odralabshq/polis/internal/vm"
)

// instanceNameRegex validates multipass instance names.
var instanceNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9-]{0,62}$`)

// Environment variables consumed by polis.
const (
	EnvHome          = "POLIS_HOME"
	EnvHealthTimeout = "POLIS_HEALTH_TIMEOUT"
	EnvImage         = "POLIS_IMAGE"
)

const (
	DefaultInstance       = "polis"
	DefaultImage          = "24.04"
	DefaultCPUs           = 2
	DefaultMemory         = "8G"
	DefaultDisk           = "40G"
	DefaultLaunchTimeout  = 600 * time.Second
	DefaultAdminTimeout   = 30 * time.Second
	DefaultShellTimeout   = 15 * time.Minute
	DefaultProbeTimeout   = 10 * time.Second
	DefaultHealthTimeout  = 60 * time.Second
	DefaultHealthInterval = 2 * time.Second
	DefaultComposeProject = "polis"
	DefaultComposeService = "workspace"
)

// Locations inside the VM.
const (
	RemoteRoot        = "/opt/polis"
	RemoteComposeFile = RemoteRoot + "/docker-compose.yml"
	RemoteAgentsDir   = RemoteRoot + "/agents"
	RemoteConfigHash  = RemoteRoot + "/.config-hash"
)

// Duration is a time.Duration decoded from a TOML string such as "90s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// VMConfig holds launch parameters of the workspace VM.
type VMConfig struct {
	Instance      string   `toml:"instance"`
	Image         string   `toml:"image"`
	CPUs          int      `toml:"cpus"`
	Memory        string   `toml:"memory"`
	Disk          string   `toml:"disk"`
	LaunchTimeout Duration `toml:"launch_timeout"`
	CloudInit     string   `toml:"cloud_init"`
}

// TimeoutsConfig holds the independent budgets of each execution context.
type TimeoutsConfig struct {
	Admin          Duration `toml:"admin"`
	Shell          Duration `toml:"shell"`
	Probe          Duration `toml:"probe"`
	Health         Duration `toml:"health"`
	HealthInterval Duration `toml:"health_interval"`
}

// ComposeConfig describes the in-VM container stack.
type ComposeConfig struct {
	Project string `toml:"project"`
	Service string `toml:"service"`
	File    string `toml:"file"`
}

// Config is the polis configuration from config.toml.
type Config struct {
	VM       VMConfig       `toml:"vm"`
	Timeouts TimeoutsConfig `toml:"timeouts"`
	Compose  ComposeConfig  `toml:"compose"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		VM: VMConfig{
			Instance:      DefaultInstance,
			Image:         DefaultImage,
			CPUs:          DefaultCPUs,
			Memory:        DefaultMemory,
			Disk:          DefaultDisk,
			LaunchTimeout: Duration{DefaultLaunchTimeout},
		},
		Timeouts: TimeoutsConfig{
			Admin:          Duration{DefaultAdminTimeout},
			Shell:          Duration{DefaultShellTimeout},
			Probe:          Duration{DefaultProbeTimeout},
			Health:         Duration{DefaultHealthTimeout},
			HealthInterval: Duration{DefaultHealthInterval},
		},
		Compose: ComposeConfig{
			Project: DefaultComposeProject,
			Service: DefaultComposeService,
			File:    RemoteComposeFile,
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. A missing file is not an error.
func Load(path string, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	md, err := toml.DecodeFile(path, cfg)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, perrors.ConfigError(fmt.Sprintf("failed to parse %s", path), err)
	default:
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, perrors.ConfigError(fmt.Sprintf("unknown keys in %s: %s", path, strings.Join(keys, ", ")), nil)
		}
	}

	if lookupEnv != nil {
		if err := cfg.ApplyEnv(lookupEnv); err != nil {
			return nil, err
		}
	}

	cfg.clampHealthInterval()

	if err := cfg.Validate(); err != nil {
		return nil, perrors.ConfigError("invalid configuration", err)
	}
	return cfg, nil
}

// ApplyEnv overlays environment overrides onto the configuration.
func (c *Config) ApplyEnv(lookupEnv func(string) (string, bool)) error {
	if v, ok := lookupEnv(EnvHealthTimeout); ok && v != "" {
		d, err := parseSecondsOrDuration(v)
		if err != nil {
			return perrors.ConfigError(fmt.Sprintf("invalid %s", EnvHealthTimeout), err)
		}
		c.Timeouts.Health = Duration{d}
	}
	if v, ok := lookupEnv(EnvImage); ok && v != "" {
		c.VM.Image = v
	}
	return nil
}

// parseSecondsOrDuration accepts "90" as seconds as well as "90s" or "2m".
func parseSecondsOrDuration(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("must be positive, got %d", n)
		}
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}

// clampHealthInterval keeps the poll interval within the health timeout,
// which POLIS_HEALTH_TIMEOUT may have shortened.
func (c *Config) clampHealthInterval() {
	if c.Timeouts.Health.Duration > 0 && c.Timeouts.HealthInterval.Duration > c.Timeouts.Health.Duration {
		c.Timeouts.HealthInterval = c.Timeouts.Health
	}
}

// Validate checks that the Config is valid.
func (c *Config) Validate() error {
	if !instanceNameRegex.MatchString(c.VM.Instance) {
		return fmt.Errorf("invalid instance name %q: must start with a letter and contain only letters, digits, or hyphens", c.VM.Instance)
	}
	if c.VM.Image == "" {
		return fmt.Errorf("vm.image is required")
	}
	if c.VM.CPUs < 1 {
		return fmt.Errorf("vm.cpus must be at least 1 (got %d)", c.VM.CPUs)
	}
	if _, err := vm.ParseSize(c.VM.Memory); err != nil {
		return fmt.Errorf("vm.memory: %w", err)
	}
	if _, err := vm.ParseSize(c.VM.Disk); err != nil {
		return fmt.Errorf("vm.disk: %w", err)
	}

	durations := []struct {
		name string
		d    Duration
	}{
		{"vm.launch_timeout", c.VM.LaunchTimeout},
		{"timeouts.admin", c.Timeouts.Admin},
		{"timeouts.shell", c.Timeouts.Shell},
		{"timeouts.probe", c.Timeouts.Probe},
		{"timeouts.health", c.Timeouts.Health},
		{"timeouts.health_interval", c.Timeouts.HealthInterval},
	}
	for _, d := range durations {
		if d.d.Duration <= 0 {
			return fmt.Errorf("%s must be positive", d.name)
		}
	}

	if c.Compose.Project == "" || c.Compose.Service == "" || c.Compose.File == "" {
		return fmt.Errorf("compose.project, compose.service and compose.file are required")
	}
	if c.VM.CloudInit != "" && !filepath.IsAbs(c.VM.CloudInit) {
		return fmt.Errorf("vm.cloud_init must be an absolute path (got %q)", c.VM.CloudInit)
	}
	return nil
}

// Paths holds the host-side locations polis persists to.
type Paths struct {
	Home         string
	StateFile    string
	RunStateFile string
	LockFile     string
	ConfigFile   string
	BundleDir    string
	AgentsDir    string
}

// NewPaths returns the path layout rooted at home.
func NewPaths(home string) *Paths {
	return &Paths{
		Home:         home,
		StateFile:    filepath.Join(home, "state.json"),
		RunStateFile: filepath.Join(home, "run-state.json"),
		LockFile:     filepath.Join(home, "polis.lock"),
		ConfigFile:   filepath.Join(home, "config.toml"),
		BundleDir:    filepath.Join(home, "bundle"),
		AgentsDir:    filepath.Join(home, "agents"),
	}
}

// DefaultPaths returns the path configuration, honoring POLIS_HOME.
func DefaultPaths() (*Paths, error) {
	if home := os.Getenv(EnvHome); home != "" {
		return NewPaths(home), nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return nil, perrors.ConfigError("cannot determine home directory; set "+EnvHome, err)
	}
	return NewPaths(filepath.Join(userHome, ".polis")), nil
}
