package backend

import (
	"bufio"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"

	"roamctl/internal/model"
)

// noHostname is how dnsmasq records a client that sent no name.
const noHostname = "*"

// ParseLeases reads a dnsmasq lease file:
//
//	<expiry> <mac> <ip> <hostname> <client-id>
//
// Short lines and the IPv6 "duid" header are skipped.
func ParseLeases(r io.Reader) ([]model.Lease, error) {
	var leases []model.Lease
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 || fields[0] == "duid" {
			continue
		}
		l := model.Lease{MAC: fields[1], IP: fields[2]}
		if h := fields[3]; h != noHostname {
			l.Hostname = h
		}
		leases = append(leases, l)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return leases, nil
}

// LeaseStore returns the current DHCP leases. A missing lease file means no
// leases have been handed out yet.
func (s *System) LeaseStore(ctx context.Context) ([]model.Lease, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap(OpLeases, err)
	}
	f, err := os.Open(s.leasesPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, wrap(OpLeases, err)
	}
	defer f.Close()

	leases, err := ParseLeases(f)
	if err != nil {
		return nil, wrap(OpLeases, err)
	}
	return leases, nil
}
