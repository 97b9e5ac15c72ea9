// Package status derives the appliance's network posture from independent
// backend probes. A failed probe only degrades its own field.
package status

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"roamctl/internal/backend"
	"roamctl/internal/metrics"
	"roamctl/internal/model"
)

// Probe names recorded in StatusSnapshot.Faults.
const (
	ProbeInternet = "internet"
	ProbeUpstream = "upstream"
	ProbeAP       = "ap"
	ProbeVPN      = "vpn"
	ProbeUptime   = "uptime"
)

// Reconciler builds status snapshots on demand. Nothing is cached between calls.
type Reconciler struct {
	b       backend.Backend
	log     zerolog.Logger
	metrics *metrics.Metrics
}

func New(b backend.Backend, log zerolog.Logger, m *metrics.Metrics) *Reconciler {
	return &Reconciler{b: b, log: log.With().Str("component", "status").Logger(), metrics: m}
}

// Snapshot runs every probe concurrently and assembles the result. It never
// fails; degraded probes are listed in Faults in a fixed order.
func (r *Reconciler) Snapshot(ctx context.Context) model.StatusSnapshot {
	var (
		snap   model.StatusSnapshot
		faults [5]error
		wg     sync.WaitGroup
	)

	run := func(i int, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			faults[i] = fn()
		}()
	}

	run(0, func() error {
		ok, err := r.b.ProbeInternet(ctx)
		snap.InternetReachable = ok && err == nil
		return err
	})
	run(1, func() error {
		conns, err := r.b.ActiveUpstreamConnections(ctx)
		if err != nil {
			return err
		}
		snap.UpstreamConnection = UpstreamName(conns)
		return nil
	})
	run(2, func() error {
		aps, err := r.b.ActiveAPConnections(ctx)
		snap.APActive = err == nil && len(aps) > 0
		return err
	})
	run(3, func() error {
		up, err := r.b.VPNIsUp(ctx)
		snap.VPNActive = up && err == nil
		return err
	})
	run(4, func() error {
		d, err := r.b.SystemUptime(ctx)
		if err != nil {
			return err
		}
		snap.Uptime, snap.UptimeKnown = d, true
		return nil
	})
	wg.Wait()

	names := [5]string{ProbeInternet, ProbeUpstream, ProbeAP, ProbeVPN, ProbeUptime}
	for i, err := range faults {
		if err == nil {
			continue
		}
		snap.Faults = append(snap.Faults, model.ProbeFault{Probe: names[i], Err: err})
		r.metrics.ProbeDegraded(names[i])
		r.log.Warn().Str("probe", names[i]).Err(err).Msg("status probe degraded")
	}
	return snap
}

// UpstreamName picks the first active wireless upstream connection, or "".
func UpstreamName(conns []model.Connection) string {
	for _, c := range conns {
		if c.Kind == "802-11-wireless" || c.Kind == "wifi" {
			return c.Name
		}
	}
	return ""
}

// FormatUptime renders d as "<h>h <m>m", or "unknown".
func FormatUptime(d time.Duration, known bool) string {
	if !known || d < 0 {
		return "unknown"
	}
	h := int64(d / time.Hour)
	m := int64((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%dh %dm", h, m)
}
