// Package provision brings the workspace VM to a desired state.
//
// Decide is a pure function from the live VM state, the persisted workspace
// record, any interrupted-run checkpoint and the requested agent to a Plan.
// The Orchestrator executes plans step by step. A creation run saves a
// checkpoint after each completed stage, so a later Provision call resumes
// after the last stage that finished instead of starting over.
//
// Every mutating operation holds the host lock for its whole duration.
package provision
