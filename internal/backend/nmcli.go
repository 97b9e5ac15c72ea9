package backend

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"roamctl/internal/execx"
	"roamctl/internal/model"
)

// nmcliNotFound is nmcli's exit status for an unknown connection, device or AP.
const nmcliNotFound = 10

const apMode = "ap"

// splitTerse splits one line of `nmcli -t` output. Field separators are ':'
// and literal colons and backslashes arrive escaped as "\:" and "\\".
func splitTerse(line string) []string {
	var fields []string
	var cur strings.Builder
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\\' && i+1 < len(line):
			i++
			cur.WriteByte(line[i])
		case c == ':':
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(fields, cur.String())
}

func terseLines(out string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, splitTerse(line))
	}
	return rows
}

func parseActiveConnections(out string) []model.Connection {
	var conns []model.Connection
	for _, f := range terseLines(out) {
		if len(f) < 2 || f[0] == "" {
			continue
		}
		conns = append(conns, model.Connection{Name: f[0], Kind: f[1]})
	}
	return conns
}

func parseWifiList(out string) []model.WifiNetwork {
	var nets []model.WifiNetwork
	for _, f := range terseLines(out) {
		if len(f) == 0 || f[0] == "" {
			continue
		}
		n := model.WifiNetwork{SSID: f[0]}
		if len(f) > 1 {
			if v, err := strconv.Atoi(strings.TrimSpace(f[1])); err == nil && v >= 0 && v <= 100 {
				n.Signal = &v
			}
		}
		if len(f) > 2 {
			sec := strings.TrimSpace(strings.Join(f[2:], ":"))
			if sec != "--" {
				n.Security = sec
			}
		}
		nets = append(nets, n)
	}
	return nets
}

func isWireless(kind string) bool {
	return kind == "802-11-wireless" || kind == "wifi"
}

// classifyActive splits active connections into upstream links and access
// points, preserving nmcli's order.
func (s *System) classifyActive(ctx context.Context) ([]model.Connection, []string, error) {
	out, err := s.r.Output(ctx, "nmcli", "-t", "-f", "NAME,TYPE", "con", "show", "--active")
	if err != nil {
		return nil, nil, err
	}

	var upstream []model.Connection
	var aps []string
	for _, c := range parseActiveConnections(out) {
		if !isWireless(c.Kind) {
			upstream = append(upstream, c)
			continue
		}
		mode, err := s.r.Output(ctx, "nmcli", "-g", "802-11-wireless.mode", "con", "show", c.Name)
		if err != nil {
			// Deactivated between the two calls.
			if isNotFound(err) {
				continue
			}
			return nil, nil, err
		}
		if strings.EqualFold(strings.TrimSpace(mode), apMode) {
			aps = append(aps, c.Name)
			continue
		}
		upstream = append(upstream, c)
	}
	return upstream, aps, nil
}

func isNotFound(err error) bool {
	var exitErr *execx.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	if exitErr.Code == nmcliNotFound {
		return true
	}
	s := strings.ToLower(exitErr.Stderr)
	return strings.Contains(s, "unknown connection") || strings.Contains(s, "cannot find connection")
}

func (s *System) ActiveUpstreamConnections(ctx context.Context) ([]model.Connection, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	upstream, _, err := s.classifyActive(ctx)
	if err != nil {
		return nil, wrap(OpActiveConnections, err)
	}
	return upstream, nil
}

func (s *System) ActiveAPConnections(ctx context.Context) ([]string, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	_, aps, err := s.classifyActive(ctx)
	if err != nil {
		return nil, wrap(OpActiveConnections, err)
	}
	return aps, nil
}

func (s *System) ScanWifi(ctx context.Context) ([]model.WifiNetwork, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.r.Run(ctx, "nmcli", "dev", "wifi", "rescan"); err != nil {
		// A rescan is refused while one is already running; the cached list is still useful.
		s.log.Debug().Err(err).Msg("wifi rescan failed, listing cached results")
	}
	out, err := s.r.Output(ctx, "nmcli", "-t", "-f", "SSID,SIGNAL,SECURITY", "dev", "wifi", "list")
	if err != nil {
		return nil, wrap(OpScanWifi, err)
	}
	return parseWifiList(out), nil
}

func (s *System) ConnectWifi(ctx context.Context, ssid, password string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	args := []string{"dev", "wifi", "connect", ssid}
	if password != "" {
		args = append(args, "password", password)
	}
	return wrap(OpConnectWifi, s.r.Run(ctx, "nmcli", args...))
}

func (s *System) CreateOrReplaceAP(ctx context.Context, name, ssid, password, iface string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.r.Run(ctx, "nmcli", "con", "delete", name); err != nil && !isNotFound(err) {
		return wrap(OpCreateAP, err)
	}
	err := s.r.Run(ctx, "nmcli", "con", "add",
		"type", "wifi",
		"ifname", iface,
		"con-name", name,
		"autoconnect", "no",
		"ssid", ssid,
		"mode", apMode,
		"ipv4.method", "shared",
		"wifi-sec.key-mgmt", "wpa-psk",
		"wifi-sec.psk", password,
	)
	return wrap(OpCreateAP, err)
}

func (s *System) BringConnectionUp(ctx context.Context, name string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	return wrap(OpConnectionUp, s.r.Run(ctx, "nmcli", "con", "up", name))
}

func (s *System) BringConnectionDown(ctx context.Context, name string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	return wrap(OpConnectionDown, s.r.Run(ctx, "nmcli", "con", "down", name))
}
