package netprobe

import (
	"context"
	"fmt"
	"os"
	"time"

	probing "github.com/prometheus-community/pro-bing"

	"roamctl/internal/addrutil"
)

// pingFunc sends count echo requests and returns the observed round trips.
type pingFunc func(ctx context.Context, target string, count int, interval, timeout time.Duration) ([]time.Duration, error)

// ICMP probes reachability with echo requests.
type ICMP struct {
	Target  string
	Timeout time.Duration

	ping pingFunc
}

func NewICMP(target string, timeout time.Duration) *ICMP {
	return &ICMP{Target: addrutil.Host(target), Timeout: timeout, ping: ping}
}

func (p *ICMP) Probe(ctx context.Context) (bool, error) {
	rtts, err := p.Samples(ctx, 1, 0)
	if err != nil {
		return false, err
	}
	return len(rtts) > 0, nil
}

// Samples sends count echo requests spaced by interval and returns the RTT of
// every reply received. Lost packets are simply absent from the result.
func (p *ICMP) Samples(ctx context.Context, count int, interval time.Duration) ([]time.Duration, error) {
	if p.Target == "" {
		return nil, fmt.Errorf("icmp probe target is required")
	}
	if count <= 0 {
		count = 1
	}
	fn := p.ping
	if fn == nil {
		fn = ping
	}
	return fn(ctx, p.Target, count, interval, p.Timeout)
}

func ping(ctx context.Context, target string, count int, interval, timeout time.Duration) ([]time.Duration, error) {
	pinger, err := probing.NewPinger(target)
	if err != nil {
		return nil, fmt.Errorf("failed to create pinger: %w", err)
	}

	pinger.Count = count
	if interval > 0 {
		pinger.Interval = interval
	}
	pinger.Timeout = timeout + time.Duration(count-1)*pinger.Interval
	pinger.SetPrivileged(privileged(os.Geteuid()))

	var rtts []time.Duration
	pinger.OnRecv = func(pkt *probing.Packet) {
		rtts = append(rtts, pkt.Rtt)
	}

	if err := pinger.RunWithContext(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return rtts, nil
}

// privileged reports whether raw ICMP sockets should be used. Root does not
// depend on net.ipv4.ping_group_range admitting it to unprivileged ping.
func privileged(euid int) bool {
	return euid == 0
}
