package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roamctl/internal/config"
	"roamctl/internal/execx"
	"roamctl/internal/model"
)

type result struct {
	out string
	err error
}

// scriptRunner answers commands from a table keyed by the full command line
// and records every invocation.
type scriptRunner struct {
	mu      sync.Mutex
	answers map[string]result
	cmds    []string
}

func (r *scriptRunner) Run(ctx context.Context, name string, args ...string) error {
	_, err := r.Output(ctx, name, args...)
	return err
}

func (r *scriptRunner) Output(_ context.Context, name string, args ...string) (string, error) {
	line := name + " " + strings.Join(args, " ")
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds = append(r.cmds, line)
	res, ok := r.answers[line]
	if !ok {
		return "", nil
	}
	return res.out, res.err
}

var _ execx.Runner = (*scriptRunner)(nil)

func newTestSystem(t *testing.T, r *scriptRunner) *System {
	t.Helper()

	cfg := config.Config{Backend: config.BackendConfig{LeasesPath: filepath.Join(t.TempDir(), "dnsmasq.leases")}}
	config.ApplyDefaults(&cfg)
	s, err := NewSystem(cfg, r, zerolog.Nop())
	require.NoError(t, err)
	s.logind = func(context.Context) error { return errors.New("no system bus") }
	return s
}

func TestSplitTerse_Escapes(t *testing.T) {
	t.Parallel()

	got := splitTerse(`Cafe\: Guest:72:WPA2`)
	assert.Equal(t, []string{"Cafe: Guest", "72", "WPA2"}, got)

	got = splitTerse(`back\\slash::`)
	assert.Equal(t, []string{`back\slash`, "", ""}, got)
}

func TestParseWifiList(t *testing.T) {
	t.Parallel()

	out := "Home:80:WPA2\n:60:WPA2\nCafe\\:Free:?:--\nOffice:101:WPA1 WPA2\n"
	nets := parseWifiList(out)
	require.Len(t, nets, 3)

	assert.Equal(t, "Home", nets[0].SSID)
	require.NotNil(t, nets[0].Signal)
	assert.Equal(t, 80, *nets[0].Signal)

	assert.Equal(t, "Cafe:Free", nets[1].SSID)
	assert.Nil(t, nets[1].Signal)
	assert.Equal(t, "", nets[1].Security)

	assert.Equal(t, "Office", nets[2].SSID)
	assert.Nil(t, nets[2].Signal, "out of range signal is unknown")
	assert.Equal(t, "WPA1 WPA2", nets[2].Security)
}

func TestActiveConnections_ClassifiesByMode(t *testing.T) {
	t.Parallel()

	r := &scriptRunner{answers: map[string]result{
		"nmcli -t -f NAME,TYPE con show --active":                {out: "Wired:802-3-ethernet\nHotel WiFi:802-11-wireless\nTravelRouter-AP:802-11-wireless\nwg0:wireguard"},
		"nmcli -g 802-11-wireless.mode con show Hotel WiFi":      {out: "infrastructure"},
		"nmcli -g 802-11-wireless.mode con show TravelRouter-AP": {out: "ap"},
	}}
	s := newTestSystem(t, r)

	up, err := s.ActiveUpstreamConnections(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.Connection{
		{Name: "Wired", Kind: "802-3-ethernet"},
		{Name: "Hotel WiFi", Kind: "802-11-wireless"},
		{Name: "wg0", Kind: "wireguard"},
	}, up)

	aps, err := s.ActiveAPConnections(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"TravelRouter-AP"}, aps)
}

func TestActiveConnections_VanishedProfileSkipped(t *testing.T) {
	t.Parallel()

	r := &scriptRunner{answers: map[string]result{
		"nmcli -t -f NAME,TYPE con show --active":     {out: "Gone:802-11-wireless"},
		"nmcli -g 802-11-wireless.mode con show Gone": {err: &execx.ExitError{Name: "nmcli", Code: 10}},
	}}
	s := newTestSystem(t, r)

	aps, err := s.ActiveAPConnections(context.Background())
	require.NoError(t, err)
	assert.Empty(t, aps)
}

func TestActiveConnections_FailureIsTypedError(t *testing.T) {
	t.Parallel()

	r := &scriptRunner{answers: map[string]result{
		"nmcli -t -f NAME,TYPE con show --active": {err: &execx.ExitError{Name: "nmcli", Code: 8, Stderr: "NetworkManager is not running"}},
	}}
	s := newTestSystem(t, r)

	_, err := s.ActiveAPConnections(context.Background())
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, OpActiveConnections, be.Op)
	assert.Contains(t, err.Error(), "NetworkManager is not running")
}

func TestCreateOrReplaceAP_IgnoresMissingProfile(t *testing.T) {
	t.Parallel()

	r := &scriptRunner{answers: map[string]result{
		"nmcli con delete TravelRouter-AP": {err: &execx.ExitError{Name: "nmcli", Code: 10, Stderr: "Error: unknown connection 'TravelRouter-AP'."}},
	}}
	s := newTestSystem(t, r)

	err := s.CreateOrReplaceAP(context.Background(), "TravelRouter-AP", "Van Life", "hunter22", "wlan0")
	require.NoError(t, err)
	require.Len(t, r.cmds, 2)
	assert.Equal(t, "nmcli con add type wifi ifname wlan0 con-name TravelRouter-AP autoconnect no ssid Van Life mode ap ipv4.method shared wifi-sec.key-mgmt wpa-psk wifi-sec.psk hunter22", r.cmds[1])
}

func TestCreateOrReplaceAP_DeleteFailureAborts(t *testing.T) {
	t.Parallel()

	r := &scriptRunner{answers: map[string]result{
		"nmcli con delete TravelRouter-AP": {err: &execx.ExitError{Name: "nmcli", Code: 3, Stderr: "timeout"}},
	}}
	s := newTestSystem(t, r)

	err := s.CreateOrReplaceAP(context.Background(), "TravelRouter-AP", "x", "hunter22", "wlan0")
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, OpCreateAP, be.Op)
	assert.Len(t, r.cmds, 1)
}

func TestScanWifi_RescanFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	r := &scriptRunner{answers: map[string]result{
		"nmcli dev wifi rescan":                          {err: &execx.ExitError{Name: "nmcli", Code: 1, Stderr: "Scanning not allowed"}},
		"nmcli -t -f SSID,SIGNAL,SECURITY dev wifi list": {out: "Home:55:WPA2"},
	}}
	s := newTestSystem(t, r)

	nets, err := s.ScanWifi(context.Background())
	require.NoError(t, err)
	require.Len(t, nets, 1)
	assert.Equal(t, "Home", nets[0].SSID)
}

func TestConnectWifi_OmitsEmptyPassword(t *testing.T) {
	t.Parallel()

	r := &scriptRunner{}
	s := newTestSystem(t, r)

	require.NoError(t, s.ConnectWifi(context.Background(), "Open Cafe", ""))
	require.NoError(t, s.ConnectWifi(context.Background(), "Home", "secretpw"))
	assert.Equal(t, []string{
		"nmcli dev wifi connect Open Cafe",
		"nmcli dev wifi connect Home password secretpw",
	}, r.cmds)
}

func TestVPNToggleCommands(t *testing.T) {
	t.Parallel()

	r := &scriptRunner{}
	s := newTestSystem(t, r)

	require.NoError(t, s.VPNUp(context.Background()))
	require.NoError(t, s.VPNDown(context.Background()))
	assert.Equal(t, []string{
		"wg-quick up /etc/wireguard/wg0.conf",
		"wg-quick down /etc/wireguard/wg0.conf",
	}, r.cmds)
}

func TestLeaseStore(t *testing.T) {
	t.Parallel()

	s := newTestSystem(t, &scriptRunner{})

	leases, err := s.LeaseStore(context.Background())
	require.NoError(t, err, "missing lease file is an empty store")
	assert.Empty(t, leases)

	content := "duid 00:01:00:01:2a:7b\n" +
		"1712345678 AA:BB:CC:DD:EE:FF 192.168.4.10 pixel-7 01:aa:bb:cc:dd:ee:ff\n" +
		"1712345679 11:22:33:44:55:66 192.168.4.11 * *\n" +
		"garbage\n"
	require.NoError(t, os.WriteFile(s.leasesPath, []byte(content), 0o644))

	leases, err = s.LeaseStore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.Lease{
		{MAC: "AA:BB:CC:DD:EE:FF", IP: "192.168.4.10", Hostname: "pixel-7"},
		{MAC: "11:22:33:44:55:66", IP: "192.168.4.11"},
	}, leases)
}

func TestReboot_FallsBackToSystemctl(t *testing.T) {
	t.Parallel()

	r := &scriptRunner{}
	s := newTestSystem(t, r)

	require.NoError(t, s.Reboot(context.Background()))
	assert.Equal(t, []string{"systemctl reboot"}, r.cmds)
}

func TestReboot_LogindSuccessSkipsSystemctl(t *testing.T) {
	t.Parallel()

	r := &scriptRunner{}
	s := newTestSystem(t, r)
	s.logind = func(context.Context) error { return nil }

	require.NoError(t, s.Reboot(context.Background()))
	assert.Empty(t, r.cmds)
}

func TestReboot_UsesCallerDeadline(t *testing.T) {
	t.Parallel()

	s := newTestSystem(t, &scriptRunner{})
	s.timeout = 10 * time.Millisecond
	var deadline time.Time
	s.logind = func(ctx context.Context) error {
		deadline, _ = ctx.Deadline()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()
	require.NoError(t, s.Reboot(ctx))
	assert.WithinDuration(t, time.Now().Add(time.Hour), deadline, time.Minute)
}

func TestNeighborAndUptimeErrorsAreTyped(t *testing.T) {
	t.Parallel()

	s := newTestSystem(t, &scriptRunner{})
	s.neighbors = func(context.Context) ([]model.Neighbor, error) { return nil, errors.New("netlink: permission denied") }
	s.uptime = func() (time.Duration, error) { return 0, fmt.Errorf("sysinfo: %w", os.ErrPermission) }

	_, err := s.NeighborTable(context.Background())
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, OpNeighbors, be.Op)

	_, err = s.SystemUptime(context.Background())
	require.ErrorAs(t, err, &be)
	assert.Equal(t, OpUptime, be.Op)
	assert.ErrorIs(t, err, os.ErrPermission)
}

func TestError_Timeout(t *testing.T) {
	t.Parallel()

	err := wrap(OpVPNUp, fmt.Errorf("wg-quick: %w", context.DeadlineExceeded))
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.True(t, be.Timeout())
	assert.Nil(t, wrap(OpVPNUp, nil))
}
