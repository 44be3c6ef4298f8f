package health

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	perrors "github.com/odralabshq/polis/internal/errors"
	"github.com/odralabshq/polis/internal/logging"
	"github.com/odralabshq/polis/internal/vm"
)

// Kind classifies a compose service status.
type Kind string

const (
	KindHealthy   Kind = "healthy"
	KindUnhealthy Kind = "unhealthy"
	KindUnknown   Kind = "unknown"
)

// Status is the readiness of the workspace container.
type Status struct {
	Kind   Kind
	Reason string
}

var (
	Healthy = Status{Kind: KindHealthy}
	Unknown = Status{Kind: KindUnknown}
)

// Unhealthy returns an Unhealthy status with reason.
func Unhealthy(reason string) Status {
	return Status{Kind: KindUnhealthy, Reason: reason}
}

func (s Status) String() string {
	if s.Reason != "" {
		return fmt.Sprintf("%s (%s)", s.Kind, s.Reason)
	}
	return string(s.Kind)
}

// serviceStatus is one line of `docker compose ps --format json`.
type serviceStatus struct {
	Service string `json:"Service"`
	State   string `json:"State"`
	Health  string `json:"Health"`
}

// StatusCommand returns the in-VM compose query for service.
func StatusCommand(project, composeFile, service string) []string {
	return []string{"docker", "compose", "-p", project, "-f", composeFile, "ps", "--format", "json", service}
}

// Parse maps compose ps output to a Status. Output that does not contain a
// service record is Unknown.
func Parse(out []byte) Status {
	st, ok := firstRecord(out)
	if !ok {
		return Unknown
	}
	if st.State != "running" {
		return Unhealthy("state: " + st.State)
	}
	if st.Health != "healthy" {
		return Unhealthy("health: " + st.Health)
	}
	return Healthy
}

// firstRecord accepts both the line-delimited objects of compose v2 and the
// single JSON array printed by older releases.
func firstRecord(out []byte) (serviceStatus, bool) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return serviceStatus{}, false
	}
	if trimmed[0] == '[' {
		var list []serviceStatus
		if err := json.Unmarshal(trimmed, &list); err != nil || len(list) == 0 {
			return serviceStatus{}, false
		}
		return list[0], true
	}
	for _, line := range strings.Split(string(trimmed), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var st serviceStatus
		if err := json.Unmarshal([]byte(line), &st); err != nil {
			return serviceStatus{}, false
		}
		return st, true
	}
	return serviceStatus{}, false
}

// Query runs cmd in the VM and classifies the result. Spawn failures and
// non-zero exits are Unknown.
func Query(ctx context.Context, sh vm.ShellExecutor, cmd []string) Status {
	out, err := sh.Exec(ctx, cmd...)
	if err != nil {
		logging.Debug("health query failed", "error", err)
		return Unknown
	}
	if !out.Success() {
		logging.Debug("health query exited non-zero", "status", out.ExitCode)
		return Unknown
	}
	return Parse(out.Stdout)
}

// Poller waits for the workspace container to report running and healthy.
type Poller struct {
	Exec     vm.ShellExecutor
	Command  []string
	Service  string
	Interval time.Duration
	Timeout  time.Duration

	// Sleep waits between attempts. Tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error

	// OnAttempt, when set, observes each poll result.
	OnAttempt func(attempt, total int, s Status)
}

// Attempts is the poll budget implied by Timeout and Interval.
func (p *Poller) Attempts() int {
	if p.Interval <= 0 {
		return 1
	}
	n := int((p.Timeout + p.Interval - 1) / p.Interval)
	if n < 1 {
		return 1
	}
	return n
}

// Wait polls until Healthy or the attempt budget runs out. A container that
// does not exist yet and one that is unhealthy are retried alike.
func (p *Poller) Wait(ctx context.Context) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	total := p.Attempts()
	last := Unknown
	for attempt := 1; attempt <= total; attempt++ {
		last = Query(ctx, p.Exec, p.Command)
		logging.Debug("health poll", "service", p.Service, "attempt", attempt, "of", total, "status", last.String())
		if p.OnAttempt != nil {
			p.OnAttempt(attempt, total, last)
		}
		if last.Kind == KindHealthy {
			return nil
		}
		if attempt == total {
			break
		}
		if err := sleep(ctx, p.Interval); err != nil {
			return err
		}
	}

	reason := last.Reason
	if last.Kind == KindUnknown {
		reason = "status unavailable"
	}
	return perrors.HealthFailed(
		fmt.Sprintf("%s after %s: %s", p.Service, p.Timeout, reason),
		fmt.Sprintf("polis exec -- docker compose logs %s", p.Service),
	)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
