package provision

import (
	"fmt"

	perrors "github.com/odralabshq/polis/internal/errors"
	"github.com/odralabshq/polis/internal/state"
	"github.com/odralabshq/polis/internal/vm"
)

// Outcome is what a Provision call did.
type Outcome string

const (
	Created        Outcome = "created"
	AlreadyRunning Outcome = "already-running"
	Restarted      Outcome = "restarted"
	Resumed        Outcome = "resumed"
)

// Action is the branch of the decision table.
type Action string

const (
	ActionNone    Action = "none"
	ActionAttach  Action = "attach"
	ActionCreate  Action = "create"
	ActionRestart Action = "restart"
	ActionResume  Action = "resume"
	ActionReject  Action = "reject"
)

// StepID names one step of a provisioning sequence.
type StepID string

const (
	StepLaunch          StepID = "launch"
	StepStartVM         StepID = "start-vm"
	StepTransferBundle  StepID = "transfer-bundle"
	StepGenerateSecrets StepID = "generate-secrets"
	StepInstallAgent    StepID = "install-agent"
	StepPullImages      StepID = "pull-images"
	StepVerifyDigests   StepID = "verify-digests"
	StepComposeUp       StepID = "compose-up"
	StepWaitHealthy     StepID = "wait-healthy"
	StepWriteConfigHash StepID = "write-config-hash"
	StepPersist         StepID = "persist"
)

// creationSequence is the full install. Each step belongs to the stage that
// is checkpointed once the last step of that stage completes.
var creationSequence = []struct {
	step  StepID
	stage state.Stage
}{
	{StepLaunch, state.StageWorkspaceCreated},
	{StepTransferBundle, state.StageCredentialsSet},
	{StepGenerateSecrets, state.StageCredentialsSet},
	{StepInstallAgent, state.StageProvisioned},
	{StepPullImages, state.StageProvisioned},
	{StepVerifyDigests, state.StageProvisioned},
	{StepComposeUp, state.StageProvisioned},
	{StepWaitHealthy, state.StageAgentReady},
	{StepWriteConfigHash, state.StageAgentReady},
	{StepPersist, state.StageAgentReady},
}

// StageOf returns the creation stage step belongs to, or StageNone for
// steps outside the creation sequence.
func StageOf(step StepID) state.Stage {
	for _, s := range creationSequence {
		if s.step == step {
			return s.stage
		}
	}
	return state.StageNone
}

// Inputs is everything the decision table looks at.
type Inputs struct {
	VM         vm.State
	Workspace  *state.WorkspaceState
	Checkpoint *state.RunState
	Agent      string

	// BundleHash is the current configuration bundle hash. It is only
	// consulted when a checkpoint is resumed.
	BundleHash string
}

// Plan is the chosen branch and the steps to run, in order.
type Plan struct {
	Action  Action
	Outcome Outcome
	Steps   []StepID

	// ResumeAfter is the last completed stage a resumed run continues from.
	ResumeAfter state.Stage

	// DiscardCheckpoint is set when a leftover checkpoint must be cleared
	// before running.
	DiscardCheckpoint bool

	Reason string

	// Err is set for ActionReject.
	Err error
}

// Decide maps the live VM state, the persisted records and the requested
// agent to a Plan. It performs no I/O.
func Decide(in Inputs) Plan {
	discard := false
	if cp := in.Checkpoint; cp != nil {
		switch {
		case cp.Stage >= state.StageAgentReady:
			discard = true
		case in.VM == vm.NotFound:
			discard = true
		case cp.Agent != in.Agent:
			return Plan{
				Action: ActionReject,
				Reason: "interrupted install for a different agent",
				Err: perrors.Precondition(
					fmt.Sprintf("an interrupted install for agent %s is pending, requested %s", orNone(cp.Agent), orNone(in.Agent)),
					startHint(cp.Agent)+" to finish it, or polis delete",
				),
			}
		default:
			return resumePlan(in, cp)
		}
	}

	plan := decideFresh(in)
	plan.DiscardCheckpoint = discard
	return plan
}

func decideFresh(in Inputs) Plan {
	switch in.VM {
	case vm.NotFound:
		return Plan{
			Action:  ActionCreate,
			Outcome: Created,
			Steps:   creationSteps(in.Agent, state.StageNone),
			Reason:  "workspace does not exist",
		}

	case vm.Running:
		active := ""
		if in.Workspace != nil {
			active = in.Workspace.ActiveAgent
		}
		switch {
		case active == in.Agent:
			return Plan{
				Action:  ActionNone,
				Outcome: AlreadyRunning,
				Reason:  "workspace is running with the requested agent",
			}
		case active == "":
			return Plan{
				Action:  ActionAttach,
				Outcome: Restarted,
				Steps:   []StepID{StepInstallAgent, StepComposeUp, StepWaitHealthy, StepPersist},
				Reason:  "attaching agent to the running workspace",
			}
		default:
			return Plan{
				Action: ActionReject,
				Reason: "workspace is running a different agent",
				Err:    perrors.AgentConflict(active, in.Agent),
			}
		}

	default:
		steps := []StepID{StepStartVM}
		if in.Agent != "" {
			steps = append(steps, StepInstallAgent)
		}
		steps = append(steps, StepComposeUp, StepWaitHealthy, StepPersist)
		return Plan{
			Action:  ActionRestart,
			Outcome: Restarted,
			Steps:   steps,
			Reason:  fmt.Sprintf("workspace is %s", in.VM),
		}
	}
}

func resumePlan(in Inputs, cp *state.RunState) Plan {
	after := cp.Stage
	reason := fmt.Sprintf("resuming interrupted install after %s", after)

	// A bundle edited since the interrupted run must be transferred again.
	if in.BundleHash != "" && cp.ConfigHash != "" && in.BundleHash != cp.ConfigHash && after > state.StageWorkspaceCreated {
		after = state.StageWorkspaceCreated
		reason = "resuming interrupted install; configuration bundle changed"
	}

	var steps []StepID
	if in.VM != vm.Running {
		steps = append(steps, StepStartVM)
	}
	steps = append(steps, creationSteps(in.Agent, after)...)

	return Plan{
		Action:      ActionResume,
		Outcome:     Resumed,
		Steps:       steps,
		ResumeAfter: after,
		Reason:      reason,
	}
}

// creationSteps returns the creation sequence after stage, without agent
// installation when no agent was requested.
func creationSteps(agentName string, after state.Stage) []StepID {
	var steps []StepID
	for _, s := range creationSequence {
		if s.stage <= after {
			continue
		}
		if s.step == StepInstallAgent && agentName == "" {
			continue
		}
		steps = append(steps, s.step)
	}
	return steps
}

func orNone(agentName string) string {
	if agentName == "" {
		return "none"
	}
	return agentName
}

func startHint(agentName string) string {
	if agentName == "" {
		return "polis start"
	}
	return "polis start --agent " + agentName
}
