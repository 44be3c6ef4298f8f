// Package app wires polis dependencies. It allows dependency injection for testing.
package app

import (
	"os"

	"github.com/odralabshq/polis/internal/config"
	"github.com/odralabshq/polis/internal/digest"
	"github.com/odralabshq/polis/internal/logging"
	"github.com/odralabshq/polis/internal/provision"
	"github.com/odralabshq/polis/internal/system"
	"github.com/odralabshq/polis/internal/vm"
)

// App holds the application dependencies
type App struct {
	// Paths holds the configured paths
	Paths *config.Paths

	// Config is the loaded configuration
	Config *config.Config

	// Workspace is the full-capability VM adapter
	Workspace vm.Workspace

	// Inspect and Health are the time-scoped views used for probes
	Inspect vm.Inspection
	Health  vm.ShellExecutor

	// Digests are the pinned image digests
	Digests digest.Manifest

	// LookupEnv reads environment overrides
	LookupEnv func(string) (string, bool)
}

// Option is a function that configures the App
type Option func(*App)

// WithPaths sets custom paths
func WithPaths(paths *config.Paths) Option {
	return func(a *App) {
		a.Paths = paths
	}
}

// WithConfig sets a configuration instead of loading config.toml
func WithConfig(cfg *config.Config) Option {
	return func(a *App) {
		a.Config = cfg
	}
}

// WithWorkspace sets the VM adapter. It also serves probes and health queries.
func WithWorkspace(ws vm.Workspace) Option {
	return func(a *App) {
		a.Workspace = ws
		a.Inspect = ws
		a.Health = ws
	}
}

// WithDigests sets the pinned image digests
func WithDigests(m digest.Manifest) Option {
	return func(a *App) {
		a.Digests = m
	}
}

// WithLookupEnv sets the environment lookup used for overrides
func WithLookupEnv(f func(string) (string, bool)) Option {
	return func(a *App) {
		a.LookupEnv = f
	}
}

// New creates a new App with the given options. Anything not provided is
// built from POLIS_HOME, config.toml and the multipass CLI.
func New(opts ...Option) (*App, error) {
	a := &App{LookupEnv: os.LookupEnv}
	for _, opt := range opts {
		opt(a)
	}

	if a.Paths == nil {
		paths, err := config.DefaultPaths()
		if err != nil {
			return nil, err
		}
		a.Paths = paths
	}

	if a.Config == nil {
		cfg, err := config.Load(a.Paths.ConfigFile, a.LookupEnv)
		if err != nil {
			return nil, err
		}
		a.Config = cfg
	}

	if a.Digests == nil {
		m, err := digest.Embedded()
		if err != nil {
			return nil, err
		}
		a.Digests = m
	}

	if a.Workspace == nil {
		t := a.Config.Timeouts
		admin := system.NewOSExecutor("admin", t.Admin.Duration)
		shell := system.NewOSExecutor("shell", t.Shell.Duration)
		mp := vm.NewMultipass(a.Config.VM.Instance, admin, shell, a.Config.VM.LaunchTimeout.Duration)
		scoped := vm.NewScoped(mp, t.Probe.Duration)

		a.Workspace = mp
		a.Inspect = scoped
		a.Health = scoped
		logging.Debug("using multipass", "instance", a.Config.VM.Instance, "probe_timeout", t.Probe.Duration)
	}

	return a, nil
}

// Orchestrator returns a provisioning orchestrator reporting to r.
func (a *App) Orchestrator(r provision.Reporter) *provision.Orchestrator {
	return provision.New(a.Workspace, a.Config, a.Paths,
		provision.WithReporter(r),
		provision.WithDigests(a.Digests),
		provision.WithInspection(a.Inspect),
		provision.WithHealthExecutor(a.Health),
	)
}
