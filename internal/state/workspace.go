package state

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"time"

	perrors "github.com/odralabshq/polis/internal/errors"
)

// WorkspaceIDPrefix marks polis workspace identifiers.
const WorkspaceIDPrefix = "polis-"

// workspaceIDRegex is the prefix plus 64 random bits in lowercase hex.
var workspaceIDRegex = regexp.MustCompile(`^polis-[0-9a-f]{16}$`)

// NewWorkspaceID returns a fresh identifier.
func NewWorkspaceID() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate workspace id: %w", err)
	}
	return WorkspaceIDPrefix + hex.EncodeToString(b[:]), nil
}

// ValidateWorkspaceID checks the identifier format.
func ValidateWorkspaceID(id string) error {
	if !workspaceIDRegex.MatchString(id) {
		return fmt.Errorf("invalid workspace id %q: want %s followed by 16 hex digits", id, WorkspaceIDPrefix)
	}
	return nil
}

// WorkspaceState is the persisted record of the workspace. The id never
// changes while the VM exists.
type WorkspaceState struct {
	WorkspaceID string    `json:"workspace_id"`
	CreatedAt   time.Time `json:"created_at"`
	ImageSHA256 string    `json:"image_sha256,omitempty"`
	ImageSource string    `json:"image_source,omitempty"`
	ActiveAgent string    `json:"active_agent,omitempty"`
}

// Store owns the on-disk workspace record.
type Store struct {
	Path string
}

// NewStore returns a store for the record at path.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Load returns nil when no record exists. A record that cannot be parsed or
// whose id is malformed is an integrity error.
func (s *Store) Load() (*WorkspaceState, error) {
	var ws WorkspaceState
	found, err := readJSON(s.Path, &ws)
	if !found && err == nil {
		return nil, nil
	}
	if err != nil {
		return nil, perrors.Integrity("workspace state is corrupt", err, "polis delete")
	}
	if err := ValidateWorkspaceID(ws.WorkspaceID); err != nil {
		return nil, perrors.Integrity("workspace state is corrupt", err, "polis delete")
	}
	return &ws, nil
}

// Save atomically replaces the record with owner-only permissions.
func (s *Store) Save(ws *WorkspaceState) error {
	if err := ValidateWorkspaceID(ws.WorkspaceID); err != nil {
		return err
	}
	return writeJSONAtomic(s.Path, ws)
}

// Clear removes the record. Clearing an absent record succeeds.
func (s *Store) Clear() error {
	return removeFile(s.Path)
}
