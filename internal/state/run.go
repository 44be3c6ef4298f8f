package state

import (
	"encoding/json"
	"fmt"
	"time"

	perrors "github.com/odralabshq/polis/internal/errors"
)

// Stage is a checkpoint of the creation sequence. Stages complete and
// persist strictly in order.
type Stage int

const (
	StageNone Stage = iota
	StageWorkspaceCreated
	StageCredentialsSet
	StageProvisioned
	StageAgentReady
)

var stageNames = map[Stage]string{
	StageNone:             "none",
	StageWorkspaceCreated: "workspace_created",
	StageCredentialsSet:   "credentials_set",
	StageProvisioned:      "provisioned",
	StageAgentReady:       "agent_ready",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	_, ok := stageNames[s]
	return ok
}

func (s Stage) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown stage %d", int(s))
	}
	return json.Marshal(s.String())
}

func (s *Stage) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for stage, n := range stageNames {
		if n == name {
			*s = stage
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", name)
}

// RunState is the checkpoint of an in-progress creation run. Stage is the
// highest stage that fully completed.
type RunState struct {
	Stage       Stage     `json:"stage"`
	Agent       string    `json:"agent,omitempty"`
	WorkspaceID string    `json:"workspace_id"`
	StartedAt   time.Time `json:"started_at"`
	ImageSHA256 string    `json:"image_sha256,omitempty"`
	ImageSource string    `json:"image_source,omitempty"`
	ConfigHash  string    `json:"config_hash,omitempty"`
	RunID       string    `json:"run_id,omitempty"`
}

// RunStore owns the on-disk checkpoint.
type RunStore struct {
	Path string
}

// NewRunStore returns a checkpoint store at path.
func NewRunStore(path string) *RunStore {
	return &RunStore{Path: path}
}

// Load returns nil when no run is in progress.
func (s *RunStore) Load() (*RunState, error) {
	var rs RunState
	found, err := readJSON(s.Path, &rs)
	if !found && err == nil {
		return nil, nil
	}
	if err != nil {
		return nil, perrors.Integrity("provisioning checkpoint is corrupt", err, "polis delete")
	}
	if err := ValidateWorkspaceID(rs.WorkspaceID); err != nil {
		return nil, perrors.Integrity("provisioning checkpoint is corrupt", err, "polis delete")
	}
	return &rs, nil
}

// Save atomically records the checkpoint.
func (s *RunStore) Save(rs *RunState) error {
	if err := ValidateWorkspaceID(rs.WorkspaceID); err != nil {
		return err
	}
	return writeJSONAtomic(s.Path, rs)
}

// Clear removes the checkpoint. Clearing an absent checkpoint succeeds.
func (s *RunStore) Clear() error {
	return removeFile(s.Path)
}
