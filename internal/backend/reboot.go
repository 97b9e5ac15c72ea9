package backend

import (
	"context"

	"github.com/godbus/dbus/v5"
)

const (
	logindDest   = "org.freedesktop.login1"
	logindPath   = dbus.ObjectPath("/org/freedesktop/login1")
	logindReboot = "org.freedesktop.login1.Manager.Reboot"
)

// rebootViaLogind asks systemd-logind to reboot. interactive=false means polkit
// must already authorize the caller.
func rebootViaLogind(ctx context.Context) error {
	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return err
	}
	defer conn.Close()

	return conn.Object(logindDest, logindPath).CallWithContext(ctx, logindReboot, 0, false).Err
}

// Reboot requests a system reboot through logind, falling back to systemctl.
// The caller's deadline bounds the whole attempt; the systemctl fallback is
// still limited by the runner's own command timeout.
func (s *System) Reboot(ctx context.Context) error {
	err := s.logind(ctx)
	if err == nil {
		return nil
	}
	s.log.Warn().Err(err).Msg("logind reboot failed, falling back to systemctl")
	return wrap(OpReboot, s.r.Run(ctx, "systemctl", "reboot"))
}
