// Package state persists the workspace record and provisioning checkpoints.
//
// Both files are JSON, written through a temp file that is fsynced, set to
// mode 0600 and renamed over the target. A crash mid-write leaves the
// previous record intact.
//
//	state.json      WorkspaceState
//	run-state.json  RunState of an unfinished creation run
//
// Load returns nil, nil when the file does not exist and an integrity error
// when it cannot be parsed or carries a malformed workspace id.
package state
