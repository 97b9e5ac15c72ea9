// Package backendtest provides an in-memory backend.Backend for tests.
package backendtest

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"roamctl/internal/backend"
	"roamctl/internal/model"
)

// Fake is a stateful backend. AP profiles and the VPN flip state when the
// corresponding mutations succeed, so toggles can be observed end to end.
// Errors are injected per backend operation name.
type Fake struct {
	mu sync.Mutex

	Internet  bool
	Upstream  []model.Connection
	Networks  []model.WifiNetwork
	Neighbors []model.Neighbor
	Leases    []model.Lease
	Uptime    time.Duration

	// Profiles maps AP profile name to SSID; ActiveAP holds those brought up.
	Profiles  map[string]Profile
	ActiveAP  []string
	VPNActive bool

	Errs  map[string]error
	Calls []string

	// Delay is applied to every call, to widen race windows in tests.
	Delay time.Duration

	inflight    int
	MaxInflight int
}

// Profile is a created AP connection.
type Profile struct {
	SSID     string
	Password string
	Iface    string
}

var _ backend.Backend = (*Fake)(nil)

func New() *Fake {
	return &Fake{Profiles: map[string]Profile{}, Errs: map[string]error{}}
}

// Fail makes op return err from now on. A nil err clears it.
func (f *Fake) Fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.Errs, op)
		return
	}
	f.Errs[op] = err
}

// Called returns a copy of the recorded call log.
func (f *Fake) Called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.Calls)
}

// enter records the call, waits Delay and returns the injected error for op.
func (f *Fake) enter(ctx context.Context, op, call string) (func(), error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, call)
	f.inflight++
	if f.inflight > f.MaxInflight {
		f.MaxInflight = f.inflight
	}
	err := f.Errs[op]
	delay := f.Delay
	f.mu.Unlock()

	done := func() {
		f.mu.Lock()
		f.inflight--
		f.mu.Unlock()
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			done()
			return func() {}, &backend.Error{Op: op, Err: ctx.Err()}
		}
	}
	if err != nil {
		done()
		return func() {}, &backend.Error{Op: op, Err: err}
	}
	return done, nil
}

func (f *Fake) ProbeInternet(ctx context.Context) (bool, error) {
	done, err := f.enter(ctx, backend.OpProbeInternet, "probe")
	if err != nil {
		return false, err
	}
	defer done()
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Internet, nil
}

func (f *Fake) ActiveUpstreamConnections(ctx context.Context) ([]model.Connection, error) {
	done, err := f.enter(ctx, backend.OpActiveConnections, "upstream")
	if err != nil {
		return nil, err
	}
	defer done()
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.Upstream), nil
}

func (f *Fake) ScanWifi(ctx context.Context) ([]model.WifiNetwork, error) {
	done, err := f.enter(ctx, backend.OpScanWifi, "scan")
	if err != nil {
		return nil, err
	}
	defer done()
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.Networks), nil
}

func (f *Fake) ConnectWifi(ctx context.Context, ssid, password string) error {
	done, err := f.enter(ctx, backend.OpConnectWifi, "connect "+ssid)
	if err != nil {
		return err
	}
	defer done()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Upstream = append([]model.Connection{{Name: ssid, Kind: "802-11-wireless"}}, f.Upstream...)
	return nil
}

func (f *Fake) ActiveAPConnections(ctx context.Context) ([]string, error) {
	done, err := f.enter(ctx, backend.OpActiveConnections, "ap-state")
	if err != nil {
		return nil, err
	}
	defer done()
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.ActiveAP), nil
}

func (f *Fake) CreateOrReplaceAP(ctx context.Context, name, ssid, password, iface string) error {
	done, err := f.enter(ctx, backend.OpCreateAP, "create-ap "+name)
	if err != nil {
		return err
	}
	defer done()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Profiles[name] = Profile{SSID: ssid, Password: password, Iface: iface}
	f.ActiveAP = slices.DeleteFunc(f.ActiveAP, func(n string) bool { return n == name })
	return nil
}

func (f *Fake) BringConnectionUp(ctx context.Context, name string) error {
	done, err := f.enter(ctx, backend.OpConnectionUp, "up "+name)
	if err != nil {
		return err
	}
	defer done()
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.Profiles[name]; !ok {
		return &backend.Error{Op: backend.OpConnectionUp, Err: fmt.Errorf("unknown connection %q", name)}
	}
	if !slices.Contains(f.ActiveAP, name) {
		f.ActiveAP = append(f.ActiveAP, name)
	}
	return nil
}

func (f *Fake) BringConnectionDown(ctx context.Context, name string) error {
	done, err := f.enter(ctx, backend.OpConnectionDown, "down "+name)
	if err != nil {
		return err
	}
	defer done()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ActiveAP = slices.DeleteFunc(f.ActiveAP, func(n string) bool { return n == name })
	return nil
}

func (f *Fake) VPNIsUp(ctx context.Context) (bool, error) {
	done, err := f.enter(ctx, backend.OpVPNState, "vpn-state")
	if err != nil {
		return false, err
	}
	defer done()
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.VPNActive, nil
}

func (f *Fake) VPNUp(ctx context.Context) error {
	done, err := f.enter(ctx, backend.OpVPNUp, "vpn-up")
	if err != nil {
		return err
	}
	defer done()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.VPNActive = true
	return nil
}

func (f *Fake) VPNDown(ctx context.Context) error {
	done, err := f.enter(ctx, backend.OpVPNDown, "vpn-down")
	if err != nil {
		return err
	}
	defer done()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.VPNActive = false
	return nil
}

func (f *Fake) NeighborTable(ctx context.Context) ([]model.Neighbor, error) {
	done, err := f.enter(ctx, backend.OpNeighbors, "neighbors")
	if err != nil {
		return nil, err
	}
	defer done()
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.Neighbors), nil
}

func (f *Fake) LeaseStore(ctx context.Context) ([]model.Lease, error) {
	done, err := f.enter(ctx, backend.OpLeases, "leases")
	if err != nil {
		return nil, err
	}
	defer done()
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.Leases), nil
}

func (f *Fake) SystemUptime(ctx context.Context) (time.Duration, error) {
	done, err := f.enter(ctx, backend.OpUptime, "uptime")
	if err != nil {
		return 0, err
	}
	defer done()
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Uptime, nil
}

func (f *Fake) Reboot(ctx context.Context) error {
	done, err := f.enter(ctx, backend.OpReboot, "reboot")
	if err != nil {
		return err
	}
	defer done()
	return nil
}
