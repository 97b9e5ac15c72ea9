package wireguard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.zx2c4.com/wireguard/wgctrl"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"

	"roamctl/internal/execx"
)

// DeviceQuerier reports kernel WireGuard device state.
// The real implementation wraps wgctrl.Client.
type DeviceQuerier interface {
	Device(name string) (*wgtypes.Device, error)
}

// Manager drives a single wg-quick managed tunnel. It is injectable for unit tests.
type Manager struct {
	r          execx.Runner
	iface      string
	configPath string

	once    sync.Once
	devices DeviceQuerier
}

// NewManager returns a manager for iface whose wg-quick config lives at
// configPath. A nil runner uses the host.
func NewManager(r execx.Runner, iface, configPath string) *Manager {
	if r == nil {
		r = execx.NewOSRunner(0)
	}
	return &Manager{r: r, iface: iface, configPath: configPath}
}

// WithDevices overrides the device query used by IsUp.
func (m *Manager) WithDevices(d DeviceQuerier) *Manager {
	m.once.Do(func() {})
	m.devices = d
	return m
}

// IsUp reports whether the tunnel interface currently exists. The netlink
// device query is preferred; when it is unavailable (no wgctrl backend or
// missing capability) `wg show <iface>` decides.
func (m *Manager) IsUp(ctx context.Context) (bool, error) {
	if m.iface == "" {
		return false, fmt.Errorf("vpn interface is required")
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if d := m.deviceQuerier(); d != nil {
		_, err := d.Device(m.iface)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, os.ErrNotExist):
			return false, nil
		}
	}

	_, err := m.r.Output(ctx, "wg", "show", m.iface)
	if err == nil {
		return true, nil
	}
	var exitErr *execx.ExitError
	if errors.As(err, &exitErr) && isNoDevice(exitErr.Stderr) {
		return false, nil
	}
	return false, err
}

// Up brings the tunnel up using wg-quick.
func (m *Manager) Up(ctx context.Context) error {
	return m.quick(ctx, "up")
}

// Down brings the tunnel down using wg-quick.
func (m *Manager) Down(ctx context.Context) error {
	return m.quick(ctx, "down")
}

func (m *Manager) quick(ctx context.Context, verb string) error {
	target := m.configPath
	if target == "" {
		target = m.iface
	}
	if target == "" {
		return fmt.Errorf("vpn interface is required")
	}
	return m.r.Run(ctx, "wg-quick", verb, target)
}

func (m *Manager) deviceQuerier() DeviceQuerier {
	m.once.Do(func() {
		c, err := wgctrl.New()
		if err != nil {
			return
		}
		m.devices = c
	})
	return m.devices
}

func isNoDevice(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "no such device") || strings.Contains(s, "unable to access interface")
}
