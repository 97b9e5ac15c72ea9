// Package netprobe answers "can this appliance reach the internet right now".
//
// A Prober returns (false, nil) when the target did not answer and a non-nil
// error only when the probe itself could not be carried out (bad target,
// missing socket permissions, cancelled context).
package netprobe

import (
	"context"
	"fmt"
	"time"

	"roamctl/internal/config"
)

const (
	MethodICMP = "icmp"
	MethodSTUN = "stun"
	MethodDNS  = "dns"
)

// Prober checks internet reachability once.
type Prober interface {
	Probe(ctx context.Context) (bool, error)
}

// New builds the prober selected by cfg.Method.
func New(cfg config.ProbeConfig) (Prober, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultProbeTimeout
	}
	switch cfg.Method {
	case "", MethodICMP:
		return NewICMP(cfg.Target, timeout), nil
	case MethodSTUN:
		if len(cfg.STUNServers) == 0 {
			return nil, fmt.Errorf("stun probe requires at least one server")
		}
		return &STUN{Servers: cfg.STUNServers, Timeout: timeout}, nil
	case MethodDNS:
		return NewDNS(cfg.Target, cfg.DNSName, timeout), nil
	default:
		return nil, fmt.Errorf("unknown probe method %q", cfg.Method)
	}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
