package backend

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"roamctl/internal/config"
	"roamctl/internal/execx"
	"roamctl/internal/model"
	"roamctl/internal/netprobe"
	"roamctl/internal/wireguard"
)

// System is the Linux Backend: NetworkManager through nmcli, the kernel
// neighbor table through netlink, dnsmasq leases from disk, WireGuard through
// wg-quick and wgctrl.
type System struct {
	r          execx.Runner
	log        zerolog.Logger
	prober     netprobe.Prober
	vpn        *wireguard.Manager
	leasesPath string
	timeout    time.Duration

	neighbors func(context.Context) ([]model.Neighbor, error)
	uptime    func() (time.Duration, error)
	logind    func(context.Context) error
}

var _ Backend = (*System)(nil)

// NewSystem wires the host backend from cfg. A nil runner executes on the host.
func NewSystem(cfg config.Config, r execx.Runner, log zerolog.Logger) (*System, error) {
	if r == nil {
		r = execx.NewOSRunner(cfg.Backend.CommandTimeout)
	}
	prober, err := netprobe.New(cfg.Probe)
	if err != nil {
		return nil, err
	}
	return &System{
		r:          r,
		log:        log.With().Str("component", "backend").Logger(),
		prober:     prober,
		vpn:        wireguard.NewManager(r, cfg.VPN.Interface, cfg.VPN.ConfigPath),
		leasesPath: cfg.Backend.LeasesPath,
		timeout:    cfg.Backend.CommandTimeout,
		neighbors:  listNeighbors,
		uptime:     readUptime,
		logind:     rebootViaLogind,
	}, nil
}

// bound applies the per-operation timeout.
func (s *System) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithTimeout(ctx, config.DefaultCommandTimeout)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *System) ProbeInternet(ctx context.Context) (bool, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	ok, err := s.prober.Probe(ctx)
	if err != nil {
		return false, wrap(OpProbeInternet, err)
	}
	return ok, nil
}

func (s *System) VPNIsUp(ctx context.Context) (bool, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	up, err := s.vpn.IsUp(ctx)
	if err != nil {
		return false, wrap(OpVPNState, err)
	}
	return up, nil
}

func (s *System) VPNUp(ctx context.Context) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	return wrap(OpVPNUp, s.vpn.Up(ctx))
}

func (s *System) VPNDown(ctx context.Context) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	return wrap(OpVPNDown, s.vpn.Down(ctx))
}

func (s *System) NeighborTable(ctx context.Context) ([]model.Neighbor, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	neighs, err := s.neighbors(ctx)
	if err != nil {
		return nil, wrap(OpNeighbors, err)
	}
	return neighs, nil
}

func (s *System) SystemUptime(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, wrap(OpUptime, err)
	}
	d, err := s.uptime()
	if err != nil {
		return 0, wrap(OpUptime, err)
	}
	return d, nil
}
