// Package toggle serializes state transitions of the access point and the VPN.
// State is always re-read from the backend; nothing is cached.
package toggle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"roamctl/internal/backend"
	"roamctl/internal/config"
	"roamctl/internal/metrics"
	"roamctl/internal/model"
	"roamctl/internal/store"
	"roamctl/internal/wifi"
	"roamctl/internal/wireguard"
)

// MaxPasswordLength is the WPA-PSK passphrase limit.
const MaxPasswordLength = 63

// PolicyError rejects a request before any backend call is made.
type PolicyError struct {
	Msg string
}

func (e *PolicyError) Error() string { return e.Msg }

// CredentialStore loads and saves hotspot credentials.
type CredentialStore interface {
	Load() (store.HotspotCredentials, error)
	Save(store.HotspotCredentials) error
}

// Controller runs the AP and VPN state machines. Operations on one subsystem
// are serialized; the two subsystems do not block each other.
type Controller struct {
	b       backend.Backend
	creds   CredentialStore
	hotspot config.HotspotConfig
	vpn     config.VPNConfig
	log     zerolog.Logger
	metrics *metrics.Metrics

	locks map[model.Subsystem]chan struct{}
}

func New(b backend.Backend, creds CredentialStore, cfg config.Config, log zerolog.Logger, m *metrics.Metrics) *Controller {
	return &Controller{
		b:       b,
		creds:   creds,
		hotspot: cfg.Hotspot,
		vpn:     cfg.VPN,
		log:     log.With().Str("component", "toggle").Logger(),
		metrics: m,
		locks: map[model.Subsystem]chan struct{}{
			model.SubsystemAP:  make(chan struct{}, 1),
			model.SubsystemVPN: make(chan struct{}, 1),
		},
	}
}

// lock waits for exclusive access to s or until ctx is done.
func (c *Controller) lock(ctx context.Context, s model.Subsystem) (func(), error) {
	ch := c.locks[s]
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for %s lock: %w", s, ctx.Err())
	}
}

// ToggleAP flips the access point. The returned result carries the state
// re-read after acting, or the pre-toggle state when the toggle failed.
func (c *Controller) ToggleAP(ctx context.Context) (model.ToggleResult, error) {
	res, err := c.toggleAP(ctx)
	c.finish(model.SubsystemAP, &res, err)
	return res, err
}

func (c *Controller) toggleAP(ctx context.Context) (model.ToggleResult, error) {
	unlock, err := c.lock(ctx, model.SubsystemAP)
	if err != nil {
		return model.ToggleResult{}, err
	}
	defer unlock()

	active, err := c.apActive(ctx)
	if err != nil {
		return model.ToggleResult{}, err
	}
	pre := model.ToggleResult{Active: active}

	if active {
		if err := c.b.BringConnectionDown(ctx, c.hotspot.Profile); err != nil {
			return pre, err
		}
	} else {
		creds, err := c.creds.Load()
		if err != nil {
			return pre, err
		}
		if err := checkPassword(creds.Password, "hotspot password not configured (min 8 chars)"); err != nil {
			return pre, err
		}
		ssid := creds.SSID
		if ssid == "" {
			ssid = c.hotspot.SSID
		}
		if err := c.b.CreateOrReplaceAP(ctx, c.hotspot.Profile, ssid, creds.Password, c.hotspot.Interface); err != nil {
			return pre, err
		}
		if err := c.b.BringConnectionUp(ctx, c.hotspot.Profile); err != nil {
			return pre, err
		}
	}

	after, err := c.apActive(ctx)
	if err != nil {
		return pre, err
	}
	return model.ToggleResult{Active: after}, nil
}

// ToggleVPN flips the tunnel, with the same result contract as ToggleAP.
func (c *Controller) ToggleVPN(ctx context.Context) (model.ToggleResult, error) {
	res, err := c.toggleVPN(ctx)
	c.finish(model.SubsystemVPN, &res, err)
	return res, err
}

func (c *Controller) toggleVPN(ctx context.Context) (model.ToggleResult, error) {
	unlock, err := c.lock(ctx, model.SubsystemVPN)
	if err != nil {
		return model.ToggleResult{}, err
	}
	defer unlock()

	up, err := c.b.VPNIsUp(ctx)
	if err != nil {
		return model.ToggleResult{}, err
	}
	pre := model.ToggleResult{Active: up}

	if up {
		err = c.b.VPNDown(ctx)
	} else {
		err = c.b.VPNUp(ctx)
	}
	if err != nil {
		return pre, err
	}

	after, err := c.b.VPNIsUp(ctx)
	if err != nil {
		return pre, err
	}
	return model.ToggleResult{Active: after}, nil
}

// SaveHotspot replaces the AP profile with new credentials and remembers them
// for the next toggle. An AP that was serving clients is brought back up. Any
// failure after the profile was replaced restores the previous profile, and
// the credentials are only stored once the profile is in place.
func (c *Controller) SaveHotspot(ctx context.Context, ssid, password string) error {
	if err := checkPassword(password, "password required (8+ chars)"); err != nil {
		return err
	}
	ssid = strings.TrimSpace(ssid)
	if ssid == "" {
		ssid = c.hotspot.SSID
	}
	if err := wifi.ValidateSSID(ssid); err != nil {
		return &PolicyError{Msg: err.Error()}
	}

	unlock, err := c.lock(ctx, model.SubsystemAP)
	if err != nil {
		return err
	}
	defer unlock()

	prev, err := c.creds.Load()
	if err != nil {
		return fmt.Errorf("load hotspot credentials: %w", err)
	}
	wasActive, err := c.apActive(ctx)
	if err != nil {
		c.backendFailed(err)
		return err
	}

	if err := c.b.CreateOrReplaceAP(ctx, c.hotspot.Profile, ssid, password, c.hotspot.Interface); err != nil {
		c.backendFailed(err)
		c.restoreHotspot(ctx, prev, wasActive)
		return err
	}
	if wasActive {
		if err := c.b.BringConnectionUp(ctx, c.hotspot.Profile); err != nil {
			c.backendFailed(err)
			c.restoreHotspot(ctx, prev, wasActive)
			return err
		}
	}
	if err := c.creds.Save(store.HotspotCredentials{SSID: ssid, Password: password}); err != nil {
		c.restoreHotspot(ctx, prev, wasActive)
		return fmt.Errorf("save hotspot credentials: %w", err)
	}
	c.log.Info().Str("ssid", ssid).Msg("hotspot profile saved")
	return nil
}

// restoreHotspot puts the AP profile back to prev. Failures are logged; the
// caller reports the error that triggered the restore.
func (c *Controller) restoreHotspot(ctx context.Context, prev store.HotspotCredentials, wasActive bool) {
	if checkPassword(prev.Password, "") != nil {
		c.log.Warn().Msg("no previous hotspot credentials to restore")
		return
	}
	ssid := prev.SSID
	if ssid == "" {
		ssid = c.hotspot.SSID
	}
	if err := c.b.CreateOrReplaceAP(ctx, c.hotspot.Profile, ssid, prev.Password, c.hotspot.Interface); err != nil {
		c.log.Error().Err(err).Msg("restore hotspot profile failed")
		return
	}
	if !wasActive {
		return
	}
	if err := c.b.BringConnectionUp(ctx, c.hotspot.Profile); err != nil {
		c.log.Error().Err(err).Msg("restore hotspot failed to come back up")
	}
}

// SaveVPNConfig validates blob and atomically replaces the tunnel config.
// The running tunnel is not restarted.
func (c *Controller) SaveVPNConfig(ctx context.Context, blob string) error {
	unlock, err := c.lock(ctx, model.SubsystemVPN)
	if err != nil {
		return err
	}
	defer unlock()

	if err := wireguard.Persist(c.vpn.ConfigPath, blob); err != nil {
		c.log.Error().Err(err).Str("path", c.vpn.ConfigPath).Msg("vpn config rejected")
		return err
	}
	c.log.Info().Str("path", c.vpn.ConfigPath).Msg("vpn config saved")
	return nil
}

func (c *Controller) apActive(ctx context.Context) (bool, error) {
	aps, err := c.b.ActiveAPConnections(ctx)
	if err != nil {
		return false, err
	}
	for _, name := range aps {
		if strings.EqualFold(name, c.hotspot.Profile) {
			return true, nil
		}
	}
	return false, nil
}

func (c *Controller) finish(s model.Subsystem, res *model.ToggleResult, err error) {
	c.metrics.Toggle(s, err == nil)
	if err != nil {
		res.Err = err.Error()
		c.backendFailed(err)
		c.log.Error().Err(err).Str("subsystem", string(s)).Bool("active", res.Active).Msg("toggle failed")
		return
	}
	c.log.Info().Str("subsystem", string(s)).Bool("active", res.Active).Msg("toggled")
}

func (c *Controller) backendFailed(err error) {
	var be *backend.Error
	if errors.As(err, &be) {
		c.metrics.BackendError(be.Op)
	}
}

func checkPassword(password, msg string) error {
	n := utf8.RuneCountInString(password)
	if n < config.MinPasswordLength {
		return &PolicyError{Msg: msg}
	}
	if n > MaxPasswordLength {
		return &PolicyError{Msg: fmt.Sprintf("password must be at most %d characters", MaxPasswordLength)}
	}
	return nil
}
