package netprobe

import (
	"context"
	"fmt"
	"time"

	"github.com/miekg/dns"

	"roamctl/internal/addrutil"
)

// DNS probes reachability by resolving Name against Server. Any answer,
// including NXDOMAIN, proves the path to the resolver works.
type DNS struct {
	Server  string
	Name    string
	Timeout time.Duration

	client *dns.Client
}

func NewDNS(server, name string, timeout time.Duration) *DNS {
	if addr, ok := addrutil.WithDefaultPort(server, 53); ok {
		server = addr
	}
	return &DNS{
		Server:  server,
		Name:    name,
		Timeout: timeout,
		client:  &dns.Client{Net: "udp", Timeout: timeout},
	}
}

func (p *DNS) Probe(ctx context.Context) (bool, error) {
	if p.Server == "" || p.Name == "" {
		return false, fmt.Errorf("dns probe requires server and name")
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(p.Name), dns.TypeA)
	msg.RecursionDesired = true

	probeCtx, cancel := withTimeout(ctx, p.Timeout)
	defer cancel()

	client := p.client
	if client == nil {
		client = &dns.Client{Net: "udp", Timeout: p.Timeout}
	}
	resp, _, err := client.ExchangeContext(probeCtx, msg, p.Server)
	if err != nil {
		// Caller cancellation is a probe failure; anything else is silence.
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, nil
	}
	return resp != nil, nil
}
