// Package testutil provides test fixtures and utilities.
//
// Fixtures are embedded with go:embed:
//
//	fixtures/bundle/           configuration bundle (compose file, secrets script)
//	fixtures/agents/alpha/     agent without credentials
//	fixtures/agents/beta/      agent whose credentials file is absent
//	fixtures/config.toml       short health budget
//
// # Test Environments
//
// NewTestEnv lays the fixtures out in a temporary polis home and pairs them
// with a mock VM:
//
//	env := testutil.NewTestEnv(t, "Running")
//	env.SaveWorkspace("polis-0123456789abcdef", "alpha")
//	env.SetHealthy()
//
// State helpers read and write the same files the real commands use, so
// tests can assert on what a command persisted.
package testutil
