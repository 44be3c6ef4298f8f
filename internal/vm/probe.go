package vm

import (
	"context"
	"encoding/json"

	"github.com/odralabshq/polis/internal/logging"
)

// State is the coarse VM state polis acts on. It is derived on every query
// and never cached.
type State int

const (
	NotFound State = iota
	Stopped
	Starting
	Running
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Starting:
		return "starting"
	case Stopped:
		return "stopped"
	default:
		return "not found"
	}
}

// infoPayload is the subset of `multipass info --format json` polis reads.
type infoPayload struct {
	Info map[string]struct {
		State string `json:"state"`
	} `json:"info"`
}

// Probe derives State from the Inspection capability.
type Probe struct {
	Inspect  Inspection
	Instance string
}

// NewProbe returns a probe for instance.
func NewProbe(inspect Inspection, instance string) *Probe {
	return &Probe{Inspect: inspect, Instance: instance}
}

// Exists reports whether the info call succeeds, whatever its payload.
func (p *Probe) Exists(ctx context.Context) bool {
	_, err := p.Inspect.Info(ctx)
	return err == nil
}

// State queries the VM manager. Any inspection failure, including the
// manager not being installed, is reported as NotFound.
func (p *Probe) State(ctx context.Context) State {
	payload, err := p.Inspect.Info(ctx)
	if err != nil {
		logging.Debug("info failed, treating instance as absent", "instance", p.Instance, "error", err)
		return NotFound
	}
	raw := rawState(payload, p.Instance)
	s := ParseState(raw)
	logging.Debug("probed instance", "instance", p.Instance, "raw", raw, "state", s)
	return s
}

// ParseState maps a multipass state string. Anything other than Running or
// Starting, including values this version does not know, is Stopped so that
// the caller's safe default is to attempt a start.
func ParseState(raw string) State {
	switch raw {
	case "Running":
		return Running
	case "Starting":
		return Starting
	default:
		return Stopped
	}
}

func rawState(payload []byte, instance string) string {
	var info infoPayload
	if err := json.Unmarshal(payload, &info); err != nil {
		return ""
	}
	if entry, ok := info.Info[instance]; ok {
		return entry.State
	}
	if len(info.Info) == 1 {
		for _, entry := range info.Info {
			return entry.State
		}
	}
	return ""
}
