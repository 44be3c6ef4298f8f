package provision

import (
	"context"
	"fmt"
	"time"

	"github.com/odralabshq/polis/internal/agent"
	"github.com/odralabshq/polis/internal/bundle"
	"github.com/odralabshq/polis/internal/config"
	"github.com/odralabshq/polis/internal/digest"
	perrors "github.com/odralabshq/polis/internal/errors"
	"github.com/odralabshq/polis/internal/lock"
	"github.com/odralabshq/polis/internal/logging"
	"github.com/odralabshq/polis/internal/state"
	"github.com/odralabshq/polis/internal/vm"
)

// Reporter receives user-facing progress. Implementations must not block.
type Reporter interface {
	Step(msg string)
	Info(msg string)
	Success(msg string)
	Warn(msg string)
}

type nopReporter struct{}

func (nopReporter) Step(string)    {}
func (nopReporter) Info(string)    {}
func (nopReporter) Success(string) {}
func (nopReporter) Warn(string)    {}

// Result is the outcome of a successful Provision.
type Result struct {
	Outcome   Outcome
	Workspace *state.WorkspaceState
}

// Orchestrator drives the workspace VM through its lifecycle. Each
// capability is held separately so read-only paths cannot mutate.
type Orchestrator struct {
	Lifecycle vm.Lifecycle
	Files     vm.FileTransfer
	Shell     vm.ShellExecutor
	Probe     *vm.Probe

	// Health runs readiness and status queries, normally through a
	// time-scoped adapter.
	Health vm.ShellExecutor

	Config     *config.Config
	Paths      *config.Paths
	Workspaces *state.Store
	Runs       *state.RunStore
	Digests    digest.Manifest
	Reporter   Reporter

	now   func() time.Time
	newID func() (string, error)
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithReporter sets the progress sink. A nil reporter keeps the silent default.
func WithReporter(r Reporter) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.Reporter = r
		}
	}
}

// WithDigests sets the pinned image digests.
func WithDigests(m digest.Manifest) Option {
	return func(o *Orchestrator) {
		o.Digests = m
	}
}

// WithHealthExecutor sets the executor used for health queries.
func WithHealthExecutor(sh vm.ShellExecutor) Option {
	return func(o *Orchestrator) {
		o.Health = sh
	}
}

// WithInspection sets the capability the VM probe reads from.
func WithInspection(in vm.Inspection) Option {
	return func(o *Orchestrator) {
		o.Probe = vm.NewProbe(in, o.Config.VM.Instance)
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithIDGenerator overrides workspace ID generation.
func WithIDGenerator(f func() (string, error)) Option {
	return func(o *Orchestrator) {
		o.newID = f
	}
}

// WithSleep overrides the wait between health polls.
func WithSleep(f func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) {
		o.sleep = f
	}
}

// New returns an orchestrator acting on ws. Health queries and probes use
// ws itself unless overridden.
func New(ws vm.Workspace, cfg *config.Config, paths *config.Paths, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		Lifecycle:  ws,
		Files:      ws,
		Shell:      ws,
		Health:     ws,
		Config:     cfg,
		Paths:      paths,
		Workspaces: state.NewStore(paths.StateFile),
		Runs:       state.NewRunStore(paths.RunStateFile),
		Reporter:   nopReporter{},
		now:        time.Now,
		newID:      state.NewWorkspaceID,
	}
	o.Probe = vm.NewProbe(ws, cfg.VM.Instance)
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// run is the mutable context of one Provision call.
type run struct {
	plan       Plan
	agent      string
	workspace  *state.WorkspaceState
	checkpoint *state.RunState
	bundle     *bundle.Bundle
	image      bundle.Image
	artifacts  *agent.Artifacts
}

func (r *run) creating() bool {
	return r.plan.Action == ActionCreate || r.plan.Action == ActionResume
}

func (r *run) overlays() []string {
	if r.artifacts == nil {
		return nil
	}
	return []string{r.artifacts.RemoteOverlay}
}

// Provision brings the workspace to running with agentName active, or with
// no agent when agentName is empty. It holds the host lock throughout.
func (o *Orchestrator) Provision(ctx context.Context, agentName string) (*Result, error) {
	if agentName != "" {
		if err := agent.ValidateName(agentName); err != nil {
			return nil, perrors.ConfigError("invalid agent", err)
		}
	}

	var res *Result
	err := lock.With(o.Paths.LockFile, func() error {
		var err error
		res, err = o.provision(ctx, agentName)
		return err
	})
	return res, err
}

func (o *Orchestrator) provision(ctx context.Context, agentName string) (*Result, error) {
	vmState := o.Probe.State(ctx)

	ws, err := o.Workspaces.Load()
	if err != nil {
		return nil, err
	}
	cp, err := o.Runs.Load()
	if err != nil {
		return nil, err
	}

	in := Inputs{VM: vmState, Workspace: ws, Checkpoint: cp, Agent: agentName}
	var b *bundle.Bundle
	if cp != nil && cp.Stage < state.StageAgentReady && vmState != vm.NotFound && cp.Agent == agentName {
		if b, err = bundle.Load(o.Paths.BundleDir); err != nil {
			return nil, err
		}
		in.BundleHash = b.Hash
	}

	plan := Decide(in)
	logging.Info("provision plan",
		"vm", vmState.String(),
		"action", string(plan.Action),
		"agent", agentName,
		"steps", len(plan.Steps),
		"reason", plan.Reason,
	)
	if plan.Err != nil {
		return nil, plan.Err
	}

	if plan.DiscardCheckpoint {
		o.Reporter.Warn(fmt.Sprintf("discarding stale checkpoint from run %s", cp.RunID))
		if err := o.Runs.Clear(); err != nil {
			return nil, err
		}
		cp = nil
	}

	if plan.Action == ActionNone {
		o.Reporter.Success("Workspace is already running")
		return &Result{Outcome: AlreadyRunning, Workspace: ws}, nil
	}

	r := &run{plan: plan, agent: agentName, workspace: ws, checkpoint: cp, bundle: b}
	if r.creating() {
		if err := o.prepareCreation(r); err != nil {
			return nil, err
		}
	}

	if err := o.execute(ctx, r); err != nil {
		logging.Error("provision failed", "action", string(plan.Action), "error", err)
		return nil, err
	}
	return &Result{Outcome: plan.Outcome, Workspace: r.workspace}, nil
}

// prepareCreation loads the bundle, resolves the image and starts or
// refreshes the checkpoint. A new run's checkpoint is on disk before the
// first step runs.
func (o *Orchestrator) prepareCreation(r *run) error {
	if r.bundle == nil {
		b, err := bundle.Load(o.Paths.BundleDir)
		if err != nil {
			return err
		}
		r.bundle = b
	}

	if r.plan.Action == ActionCreate {
		if r.workspace != nil {
			o.Reporter.Warn(fmt.Sprintf("workspace record %s has no VM; creating a new workspace", r.workspace.WorkspaceID))
		}
		id, err := o.newID()
		if err != nil {
			return err
		}
		img, err := bundle.ResolveImage(o.Config.VM.Image)
		if err != nil {
			return err
		}
		r.image = img
		r.checkpoint = &state.RunState{
			Stage:       state.StageNone,
			Agent:       r.agent,
			WorkspaceID: id,
			StartedAt:   o.now().UTC(),
			ImageSHA256: img.SHA256,
			ImageSource: img.Source,
			RunID:       logging.RunID,
		}
	} else {
		if r.plan.ResumeAfter == state.StageNone {
			o.Reporter.Info("Resuming interrupted install")
		} else {
			o.Reporter.Info(fmt.Sprintf("Resuming interrupted install after stage %s", r.plan.ResumeAfter))
		}
		r.checkpoint.Stage = r.plan.ResumeAfter
		r.checkpoint.RunID = logging.RunID
	}
	r.checkpoint.ConfigHash = r.bundle.Hash

	// Saved before launch: a launch that fails after the instance exists
	// must resume through the creation sequence, not attach to a bare VM.
	if r.plan.Action == ActionCreate {
		if err := o.Runs.Save(r.checkpoint); err != nil {
			return err
		}
	}
	return nil
}

// execute runs the plan's steps, checkpointing each creation stage once
// its last step completes.
func (o *Orchestrator) execute(ctx context.Context, r *run) error {
	steps := r.plan.Steps
	for i, id := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		logging.Debug("running step", "step", string(id))
		if err := o.step(ctx, id, r); err != nil {
			return err
		}

		if !r.creating() {
			continue
		}
		stage := StageOf(id)
		if stage == state.StageNone || stage >= state.StageAgentReady {
			continue
		}
		if i+1 < len(steps) && StageOf(steps[i+1]) == stage {
			continue
		}
		r.checkpoint.Stage = stage
		if err := o.Runs.Save(r.checkpoint); err != nil {
			return err
		}
		logging.Debug("checkpoint saved", "stage", stage.String())
	}
	return nil
}

func (o *Orchestrator) step(ctx context.Context, id StepID, r *run) error {
	switch id {
	case StepLaunch:
		return o.launch(ctx, r)
	case StepStartVM:
		o.Reporter.Step("Starting workspace VM")
		return o.Lifecycle.Start(ctx)
	case StepTransferBundle:
		return o.transferBundle(ctx, r)
	case StepGenerateSecrets:
		return o.generateSecrets(ctx)
	case StepInstallAgent:
		return o.installAgent(ctx, r)
	case StepPullImages:
		return o.pullImages(ctx, r)
	case StepVerifyDigests:
		return o.verifyDigests(ctx)
	case StepComposeUp:
		return o.composeUp(ctx, r)
	case StepWaitHealthy:
		return o.waitHealthy(ctx)
	case StepWriteConfigHash:
		return o.writeConfigHash(ctx, r)
	case StepPersist:
		return o.persist(r)
	default:
		return fmt.Errorf("unknown step %q", id)
	}
}

// Stop halts the VM and clears the active agent. Stopping an already
// stopped VM only clears the record.
func (o *Orchestrator) Stop(ctx context.Context) error {
	return lock.With(o.Paths.LockFile, func() error {
		switch o.Probe.State(ctx) {
		case vm.NotFound:
			return perrors.Precondition("workspace does not exist", "polis start")
		case vm.Stopped:
			o.Reporter.Info("Workspace VM is already stopped")
		default:
			o.Reporter.Step("Stopping workspace VM")
			if err := o.Lifecycle.Stop(ctx); err != nil {
				return err
			}
		}

		ws, err := o.Workspaces.Load()
		if err != nil {
			return err
		}
		if ws != nil && ws.ActiveAgent != "" {
			ws.ActiveAgent = ""
			if err := o.Workspaces.Save(ws); err != nil {
				return err
			}
		}
		o.Reporter.Success("Workspace stopped")
		return nil
	})
}

// Delete removes the VM for good and clears every persisted record.
func (o *Orchestrator) Delete(ctx context.Context) error {
	return lock.With(o.Paths.LockFile, func() error {
		if o.Probe.State(ctx) != vm.NotFound {
			o.Reporter.Step("Deleting workspace VM")
			if err := o.Lifecycle.Delete(ctx); err != nil {
				return err
			}
			if err := o.Lifecycle.Purge(ctx); err != nil {
				return err
			}
		} else {
			o.Reporter.Info("Workspace VM does not exist")
		}

		if err := o.Runs.Clear(); err != nil {
			return err
		}
		if err := o.Workspaces.Clear(); err != nil {
			return err
		}
		o.Reporter.Success("Workspace deleted")
		return nil
	})
}
