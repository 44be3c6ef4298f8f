package provision

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/kballard/go-shellquote"

	"github.com/odralabshq/polis/internal/agent"
	"github.com/odralabshq/polis/internal/bundle"
	"github.com/odralabshq/polis/internal/config"
	"github.com/odralabshq/polis/internal/digest"
	"github.com/odralabshq/polis/internal/health"
	"github.com/odralabshq/polis/internal/logging"
	"github.com/odralabshq/polis/internal/state"
	"github.com/odralabshq/polis/internal/vm"
)

// Staging paths inside the VM. multipass transfers run as the default
// user, so files land here before being installed with sudo.
const (
	stagingBundle = "/tmp/polis-bundle"
	stagingAgent  = "/tmp/polis-agent"
)

func (o *Orchestrator) exec(ctx context.Context, op string, args ...string) error {
	out, err := o.Shell.Exec(ctx, args...)
	return vm.RequireSuccess(op, out, err)
}

// sudoSh runs script through `sudo sh -c`.
func (o *Orchestrator) sudoSh(ctx context.Context, op, script string) error {
	return o.exec(ctx, op, "sudo", "sh", "-c", script)
}

func (o *Orchestrator) launch(ctx context.Context, r *run) error {
	if o.Probe.Exists(ctx) {
		o.Reporter.Info("Workspace VM already exists")
		return nil
	}

	if r.image.Launch == "" {
		img, err := bundle.ResolveImage(o.Config.VM.Image)
		if err != nil {
			return err
		}
		r.image = img
	}
	spec := vm.InstanceSpec{
		Image:         r.image.Launch,
		CPUs:          o.Config.VM.CPUs,
		Memory:        o.Config.VM.Memory,
		Disk:          o.Config.VM.Disk,
		CloudInit:     o.Config.VM.CloudInit,
		LaunchTimeout: o.Config.VM.LaunchTimeout.Duration,
	}
	if err := spec.Validate(); err != nil {
		return err
	}
	o.Reporter.Step(fmt.Sprintf("Launching workspace VM (%s)", spec))
	return o.Lifecycle.Launch(ctx, spec)
}

func (o *Orchestrator) transferBundle(ctx context.Context, r *run) error {
	o.Reporter.Step("Transferring configuration bundle")
	if err := o.exec(ctx, "clear bundle staging", "rm", "-rf", stagingBundle); err != nil {
		return err
	}
	if err := o.Files.TransferRecursive(ctx, r.bundle.Dir, stagingBundle); err != nil {
		return err
	}
	script := fmt.Sprintf("mkdir -p %[1]s && cp -a %[2]s/. %[1]s/ && rm -rf %[2]s",
		shellquote.Join(config.RemoteRoot), shellquote.Join(stagingBundle))
	return o.sudoSh(ctx, "install bundle", script)
}

func (o *Orchestrator) generateSecrets(ctx context.Context) error {
	o.Reporter.Step("Generating certificates and secrets")
	script := path.Join(config.RemoteRoot, bundle.SecretsScript)
	return o.exec(ctx, "generate secrets", "sudo", "bash", script)
}

func (o *Orchestrator) installAgent(ctx context.Context, r *run) error {
	a, err := agent.Generate(o.Paths.AgentsDir, r.agent, o.Config.Compose.Service, config.RemoteAgentsDir)
	if err != nil {
		return err
	}
	r.artifacts = a

	o.Reporter.Step(fmt.Sprintf("Installing agent %s", a.Name))
	staged := stagingAgent + "-" + a.Name + ".yaml"
	if err := o.Files.Transfer(ctx, a.Overlay, staged); err != nil {
		return err
	}
	if err := o.exec(ctx, "install agent overlay",
		"sudo", "install", "-D", "-m", "0644", staged, a.RemoteOverlay); err != nil {
		return err
	}

	if a.Credentials != "" {
		o.installCredentials(ctx, a)
	}
	return nil
}

// installCredentials copies the agent's credentials file when present.
// Failures only warn: the agent can still be configured by hand.
func (o *Orchestrator) installCredentials(ctx context.Context, a *agent.Artifacts) {
	if _, err := os.Stat(a.Credentials); err != nil {
		o.Reporter.Warn(fmt.Sprintf("credentials for agent %s not found at %s", a.Name, a.Credentials))
		return
	}
	staged := stagingAgent + "-" + a.Name + ".credentials"
	err := o.Files.Transfer(ctx, a.Credentials, staged)
	if err == nil {
		script := fmt.Sprintf("install -D -m 0600 %s %s && rm -f %s",
			shellquote.Join(staged), shellquote.Join(a.RemoteCredentials), shellquote.Join(staged))
		err = o.sudoSh(ctx, "install agent credentials", script)
	}
	if err != nil {
		logging.Warn("agent credentials not installed", "agent", a.Name, "error", err)
		o.Reporter.Warn(fmt.Sprintf("could not install credentials for agent %s: %v", a.Name, err))
	}
}

func (o *Orchestrator) pullImages(ctx context.Context, r *run) error {
	o.Reporter.Step("Pulling container images")
	return o.exec(ctx, "docker compose pull", composePull(o.Config.Compose, r.overlays()...)...)
}

func (o *Orchestrator) verifyDigests(ctx context.Context) error {
	v := &digest.Verifier{Exec: o.Shell, Warn: o.Reporter}
	outcome, err := v.Verify(ctx, o.Digests)
	if err != nil {
		return err
	}
	if outcome == digest.Verified {
		o.Reporter.Success("Image digests verified")
	}
	return nil
}

func (o *Orchestrator) composeUp(ctx context.Context, r *run) error {
	if r.plan.Action == ActionAttach {
		o.Reporter.Step(fmt.Sprintf("Starting agent %s", r.agent))
	} else {
		o.Reporter.Step("Starting services")
	}
	return o.exec(ctx, "docker compose up", composeUp(o.Config.Compose, r.overlays()...)...)
}

func (o *Orchestrator) waitHealthy(ctx context.Context) error {
	c := o.Config
	o.Reporter.Step("Waiting for workspace to become healthy")

	var last health.Status
	p := &health.Poller{
		Exec:     o.Health,
		Command:  health.StatusCommand(c.Compose.Project, c.Compose.File, c.Compose.Service),
		Service:  c.Compose.Service,
		Interval: c.Timeouts.HealthInterval.Duration,
		Timeout:  c.Timeouts.Health.Duration,
		Sleep:    o.sleep,
		OnAttempt: func(attempt, total int, s health.Status) {
			if s != last && s.Kind != health.KindHealthy {
				o.Reporter.Info(fmt.Sprintf("%s: %s (attempt %d/%d)", c.Compose.Service, s, attempt, total))
			}
			last = s
		},
	}
	if err := p.Wait(ctx); err != nil {
		return err
	}
	o.Reporter.Success("Workspace is healthy")
	return nil
}

func (o *Orchestrator) writeConfigHash(ctx context.Context, r *run) error {
	out, err := o.Shell.ExecWithStdin(ctx, []byte(r.bundle.Hash+"\n"),
		"sudo", "tee", config.RemoteConfigHash)
	return vm.RequireSuccess("write config hash", out, err)
}

// persist records the workspace. For a creation run it also clears the
// checkpoint, which completes the final stage.
func (o *Orchestrator) persist(r *run) error {
	var ws *state.WorkspaceState
	switch {
	case r.creating():
		ws = &state.WorkspaceState{
			WorkspaceID: r.checkpoint.WorkspaceID,
			CreatedAt:   o.now().UTC(),
			ImageSHA256: r.checkpoint.ImageSHA256,
			ImageSource: r.checkpoint.ImageSource,
		}
	case r.workspace != nil:
		cp := *r.workspace
		ws = &cp
	default:
		id, err := o.newID()
		if err != nil {
			return err
		}
		ws = &state.WorkspaceState{WorkspaceID: id, CreatedAt: o.now().UTC()}
	}
	ws.ActiveAgent = r.agent

	if err := o.Workspaces.Save(ws); err != nil {
		return err
	}
	if r.creating() {
		if err := o.Runs.Clear(); err != nil {
			return err
		}
	}
	r.workspace = ws
	logging.Info("workspace persisted", "workspace", ws.WorkspaceID, "agent", ws.ActiveAgent)

	switch r.plan.Outcome {
	case Created:
		o.Reporter.Success(fmt.Sprintf("Workspace %s created", ws.WorkspaceID))
	case Resumed:
		o.Reporter.Success(fmt.Sprintf("Workspace %s ready", ws.WorkspaceID))
	default:
		o.Reporter.Success(fmt.Sprintf("Workspace %s running", ws.WorkspaceID))
	}
	return nil
}
