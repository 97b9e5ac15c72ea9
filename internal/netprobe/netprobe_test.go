package netprobe

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roamctl/internal/config"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	if got := Classify([]string{"1.2.3.4:1"}); got != NATTypeUnknown {
		t.Fatalf("got=%q", got)
	}
	if got := Classify([]string{"1.2.3.4:1", "1.2.3.4:1"}); got != NATTypeConeOrRestricted {
		t.Fatalf("got=%q", got)
	}
	if got := Classify([]string{"1.2.3.4:1", "1.2.3.4:2"}); got != NATTypeSymmetric {
		t.Fatalf("got=%q", got)
	}
}

func TestNew_SelectsMethod(t *testing.T) {
	t.Parallel()

	p, err := New(config.ProbeConfig{Method: "icmp", Target: "8.8.8.8"})
	require.NoError(t, err)
	assert.IsType(t, &ICMP{}, p)

	p, err = New(config.ProbeConfig{Method: "dns", Target: "1.1.1.1", DNSName: "example.com"})
	require.NoError(t, err)
	require.IsType(t, &DNS{}, p)
	assert.Equal(t, "1.1.1.1:53", p.(*DNS).Server)

	_, err = New(config.ProbeConfig{Method: "stun"})
	assert.Error(t, err)

	_, err = New(config.ProbeConfig{Method: "smoke-signal"})
	assert.Error(t, err)
}

func TestICMP_ReplyMeansReachable(t *testing.T) {
	t.Parallel()

	p := NewICMP("8.8.8.8", time.Second)
	p.ping = func(ctx context.Context, target string, count int, interval, timeout time.Duration) ([]time.Duration, error) {
		assert.Equal(t, "8.8.8.8", target)
		assert.Equal(t, 1, count)
		return []time.Duration{12 * time.Millisecond}, nil
	}

	ok, err := p.Probe(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestICMP_LossIsUnreachableNotError(t *testing.T) {
	t.Parallel()

	p := NewICMP("8.8.8.8", time.Second)
	p.ping = func(context.Context, string, int, time.Duration, time.Duration) ([]time.Duration, error) {
		return nil, nil
	}

	ok, err := p.Probe(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestICMP_SocketFailureIsError(t *testing.T) {
	t.Parallel()

	p := NewICMP("8.8.8.8", time.Second)
	p.ping = func(context.Context, string, int, time.Duration, time.Duration) ([]time.Duration, error) {
		return nil, errors.New("socket: operation not permitted")
	}

	_, err := p.Probe(context.Background())
	assert.Error(t, err)
}

func TestICMP_TargetPortIsStripped(t *testing.T) {
	t.Parallel()

	p := NewICMP("9.9.9.9:53", time.Second)
	assert.Equal(t, "9.9.9.9", p.Target)
}

func TestICMP_RawSocketsOnlyForRoot(t *testing.T) {
	t.Parallel()

	assert.True(t, privileged(0))
	assert.False(t, privileged(1000))
}

func TestDNS_AnswerMeansReachable(t *testing.T) {
	t.Parallel()

	addr := startDNSServer(t, func(w dns.ResponseWriter, req *dns.Msg) {
		resp := new(dns.Msg)
		resp.SetRcode(req, dns.RcodeNameError)
		_ = w.WriteMsg(resp)
	})

	p := NewDNS(addr, "connectivity.test", time.Second)
	ok, err := p.Probe(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDNS_SilenceIsUnreachable(t *testing.T) {
	t.Parallel()

	// Bind then close to obtain a port with no listener.
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := pc.LocalAddr().String()
	require.NoError(t, pc.Close())

	p := NewDNS(addr, "connectivity.test", 200*time.Millisecond)
	ok, err := p.Probe(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDNS_CancelledContextIsError(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewDNS("127.0.0.1:1", "connectivity.test", time.Second)
	_, err := p.Probe(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func startDNSServer(t *testing.T, handler dns.HandlerFunc) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	started := make(chan struct{})
	srv := &dns.Server{PacketConn: pc, Handler: handler, NotifyStartedFunc: func() { close(started) }}
	go func() { _ = srv.ActivateAndServe() }()
	t.Cleanup(func() { _ = srv.Shutdown() })

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("dns server did not start")
	}
	return pc.LocalAddr().String()
}
