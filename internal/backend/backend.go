// Package backend wraps the appliance's external network subsystems behind a
// typed, context-bounded interface. Nothing here maps a failure to a default
// value; callers decide how to degrade.
package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roamctl/internal/model"
)

// Operation names carried by *Error.
const (
	OpProbeInternet     = "probe_internet"
	OpActiveConnections = "active_connections"
	OpScanWifi          = "scan_wifi"
	OpConnectWifi       = "connect_wifi"
	OpCreateAP          = "create_ap"
	OpConnectionUp      = "connection_up"
	OpConnectionDown    = "connection_down"
	OpVPNState          = "vpn_state"
	OpVPNUp             = "vpn_up"
	OpVPNDown           = "vpn_down"
	OpNeighbors         = "neighbors"
	OpLeases            = "leases"
	OpUptime            = "uptime"
	OpReboot            = "reboot"
)

// Backend is every external fact and side effect the controller relies on.
type Backend interface {
	ProbeInternet(ctx context.Context) (bool, error)
	ActiveUpstreamConnections(ctx context.Context) ([]model.Connection, error)
	ScanWifi(ctx context.Context) ([]model.WifiNetwork, error)
	ConnectWifi(ctx context.Context, ssid, password string) error
	ActiveAPConnections(ctx context.Context) ([]string, error)
	CreateOrReplaceAP(ctx context.Context, name, ssid, password, iface string) error
	BringConnectionUp(ctx context.Context, name string) error
	BringConnectionDown(ctx context.Context, name string) error
	VPNIsUp(ctx context.Context) (bool, error)
	VPNUp(ctx context.Context) error
	VPNDown(ctx context.Context) error
	NeighborTable(ctx context.Context) ([]model.Neighbor, error)
	LeaseStore(ctx context.Context) ([]model.Lease, error)
	SystemUptime(ctx context.Context) (time.Duration, error)
	Reboot(ctx context.Context) error
}

// Error is a failed backend operation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Timeout reports whether the operation ran out of time.
func (e *Error) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var be *Error
	if errors.As(err, &be) && be.Op == op {
		return err
	}
	return &Error{Op: op, Err: err}
}
