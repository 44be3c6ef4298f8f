// Package health reports readiness of the in-VM workspace container.
//
// # Status
//
// The compose status query maps to one of three kinds:
//
//	KindHealthy   - State "running" and Health "healthy"
//	KindUnhealthy - any other State/Health pair; Reason names the field
//	KindUnknown   - the query failed, exited non-zero, or printed garbage
//
// # Poller
//
// Poller runs the query every Interval until Healthy or until
// Timeout/Interval attempts have been made:
//
//	p := &health.Poller{Exec: shell, Command: cmd, Interval: 2*time.Second, Timeout: time.Minute}
//	if err := p.Wait(ctx); err != nil {
//	    // *errors.PolisError with ExitHealthFailed and a diagnostic hint
//	}
package health
