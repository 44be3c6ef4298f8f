package testutil

import (
	"embed"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"testing"
	"time"

	"github.com/odralabshq/polis/internal/config"
	"github.com/odralabshq/polis/internal/state"
	"github.com/odralabshq/polis/internal/vm"
)

//go:embed fixtures
var fixturesFS embed.FS

// LoadFixture returns the raw contents of a fixture file, e.g.
// "agents/alpha/agent.yaml".
func LoadFixture(name string) ([]byte, error) {
	return fixturesFS.ReadFile(path.Join("fixtures", name))
}

// TestEnv is a temporary polis home with a bundle, two agents and a mock VM.
type TestEnv struct {
	T      *testing.T
	Home   string
	Paths  *config.Paths
	Config *config.Config
	VM     *vm.Mock
}

// NewTestEnv creates a polis home under t.TempDir. status is the initial
// multipass state of the mock VM; empty means it does not exist.
func NewTestEnv(t *testing.T, status string) *TestEnv {
	t.Helper()

	home := t.TempDir()
	paths := config.NewPaths(home)

	copyFixtureDir(t, "fixtures/bundle", paths.BundleDir)
	copyFixtureDir(t, "fixtures/agents", paths.AgentsDir)

	data, err := LoadFixture("config.toml")
	if err != nil {
		t.Fatalf("Failed to load config fixture: %v", err)
	}
	if err := os.WriteFile(paths.ConfigFile, data, 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	cfg, err := config.Load(paths.ConfigFile, func(string) (string, bool) { return "", false })
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	return &TestEnv{
		T:      t,
		Home:   home,
		Paths:  paths,
		Config: cfg,
		VM:     vm.NewMock(status),
	}
}

func copyFixtureDir(t *testing.T, root, dest string) {
	t.Helper()

	err := fs.WalkDir(fixturesFS, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, filepath.FromSlash(rel))
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		data, err := fixturesFS.ReadFile(p)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0644)
	})
	if err != nil {
		t.Fatalf("Failed to copy fixtures %s: %v", root, err)
	}
}

// SetHealthy makes the mock report the workspace service running and healthy.
func (e *TestEnv) SetHealthy() {
	e.SetServiceStatus("running", "healthy")
}

// SetServiceStatus sets what `docker compose ps` reports for the workspace service.
func (e *TestEnv) SetServiceStatus(state, health string) {
	c := e.Config.Compose
	prefix := "docker compose -p " + c.Project + " -f " + c.File + " ps"
	e.VM.OnExec(prefix, `{"Service":"`+c.Service+`","State":"`+state+`","Health":"`+health+`"}`+"\n", 0)
}

// WriteFile writes content to a path relative to the polis home.
func (e *TestEnv) WriteFile(rel, content string) string {
	e.T.Helper()

	p := filepath.Join(e.Home, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		e.T.Fatalf("Failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		e.T.Fatalf("Failed to write %s: %v", rel, err)
	}
	return p
}

// SaveWorkspace persists a workspace record with activeAgent.
func (e *TestEnv) SaveWorkspace(id, activeAgent string) *state.WorkspaceState {
	e.T.Helper()

	ws := &state.WorkspaceState{
		WorkspaceID: id,
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		ActiveAgent: activeAgent,
	}
	if err := state.NewStore(e.Paths.StateFile).Save(ws); err != nil {
		e.T.Fatalf("Failed to save workspace state: %v", err)
	}
	return ws
}

// Workspace loads the persisted workspace record.
func (e *TestEnv) Workspace() *state.WorkspaceState {
	e.T.Helper()

	ws, err := state.NewStore(e.Paths.StateFile).Load()
	if err != nil {
		e.T.Fatalf("Failed to load workspace state: %v", err)
	}
	return ws
}

// SaveCheckpoint persists an interrupted-run checkpoint.
func (e *TestEnv) SaveCheckpoint(rs *state.RunState) {
	e.T.Helper()

	if err := state.NewRunStore(e.Paths.RunStateFile).Save(rs); err != nil {
		e.T.Fatalf("Failed to save checkpoint: %v", err)
	}
}

// Checkpoint loads the persisted checkpoint, or nil.
func (e *TestEnv) Checkpoint() *state.RunState {
	e.T.Helper()

	rs, err := state.NewRunStore(e.Paths.RunStateFile).Load()
	if err != nil {
		e.T.Fatalf("Failed to load checkpoint: %v", err)
	}
	return rs
}
