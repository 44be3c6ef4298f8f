// Package app provides the application context for polis.
//
// This package manages application-wide dependencies using the functional
// options pattern, enabling easy testing through dependency injection.
//
// # App Context
//
// The App struct holds core dependencies:
//
//	type App struct {
//	    Paths     *config.Paths     // POLIS_HOME layout
//	    Config    *config.Config    // config.toml plus environment overrides
//	    Workspace vm.Workspace      // multipass adapter
//	    Inspect   vm.Inspection     // time-scoped view for probes
//	    Health    vm.ShellExecutor  // time-scoped view for health queries
//	    Digests   digest.Manifest   // pinned image digests
//	}
//
// # Creating an App
//
// Use New with functional options:
//
//	// Production usage
//	a, err := app.New()
//
//	// Testing with custom dependencies
//	a, err := app.New(
//	    app.WithPaths(testPaths),
//	    app.WithConfig(config.Default()),
//	    app.WithWorkspace(vm.NewMock("Running")),
//	)
//
// Without WithWorkspace, New builds two process executors with independent
// budgets: an admin executor for lifecycle and inspection calls, and a shell
// executor for transfers and in-VM commands.
//
// # Available Options
//
//	WithPaths(paths)        // Custom path configuration
//	WithConfig(cfg)         // Skip loading config.toml
//	WithWorkspace(ws)       // Custom VM adapter
//	WithDigests(manifest)   // Custom digest manifest
//	WithLookupEnv(f)        // Custom environment lookup
package app
