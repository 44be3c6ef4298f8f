package provision

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/odralabshq/polis/internal/health"
	"github.com/odralabshq/polis/internal/logging"
	"github.com/odralabshq/polis/internal/state"
	"github.com/odralabshq/polis/internal/vm"
)

// StatusReport is a read-only snapshot of the workspace.
type StatusReport struct {
	VM             vm.State
	ManagerVersion string
	Health         health.Status
	Workspace      *state.WorkspaceState
	Checkpoint     *state.RunState
}

// Status gathers VM state, manager version and container health
// concurrently. It takes no lock and changes nothing.
func (o *Orchestrator) Status(ctx context.Context, inspect vm.Inspection) (*StatusReport, error) {
	ws, err := o.Workspaces.Load()
	if err != nil {
		return nil, err
	}
	cp, err := o.Runs.Load()
	if err != nil {
		return nil, err
	}

	rep := &StatusReport{Workspace: ws, Checkpoint: cp, Health: health.Unknown}
	probe := vm.NewProbe(inspect, o.Config.VM.Instance)
	c := o.Config.Compose

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rep.VM = probe.State(gctx)
		return nil
	})
	g.Go(func() error {
		v, err := inspect.Version(gctx)
		if err != nil {
			logging.Debug("manager version unavailable", "error", err)
			return nil
		}
		rep.ManagerVersion = v
		return nil
	})
	g.Go(func() error {
		rep.Health = health.Query(gctx, o.Health, health.StatusCommand(c.Project, c.File, c.Service))
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if rep.VM != vm.Running {
		rep.Health = health.Unknown
	}
	return rep, nil
}
