// Package clients builds the roster of devices attached to the access point
// from the neighbor table (keyed by IP) and the DHCP lease store (keyed by MAC).
package clients

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"roamctl/internal/backend"
	"roamctl/internal/model"
)

// CanonicalMAC lowercases a MAC address and trims surrounding space.
func CanonicalMAC(mac string) string {
	return strings.ToLower(strings.TrimSpace(mac))
}

// Merge joins neighbors and leases on MAC. Neighbors come first in table
// order; a lease for a known MAC only attaches its hostname, other leases
// are appended in lease order. Duplicate MACs collapse to the first entry and
// a "*" or empty hostname is treated as absent.
func Merge(neighbors []model.Neighbor, leases []model.Lease) []model.ClientRecord {
	out := make([]model.ClientRecord, 0, len(neighbors)+len(leases))
	index := make(map[string]int, len(neighbors)+len(leases))

	for _, n := range neighbors {
		mac := CanonicalMAC(n.MAC)
		if mac == "" {
			continue
		}
		if _, dup := index[mac]; dup {
			continue
		}
		index[mac] = len(out)
		out = append(out, model.ClientRecord{IP: optional(n.IP), MAC: mac})
	}

	for _, l := range leases {
		mac := CanonicalMAC(l.MAC)
		if mac == "" {
			continue
		}
		hostname := optional(l.Hostname)
		if hostname != nil && *hostname == "*" {
			hostname = nil
		}
		if i, ok := index[mac]; ok {
			out[i].Hostname = hostname
			continue
		}
		index[mac] = len(out)
		out = append(out, model.ClientRecord{IP: optional(l.IP), MAC: mac, Hostname: hostname})
	}
	return out
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Inventory lists attached clients from a backend.
type Inventory struct {
	b   backend.Backend
	log zerolog.Logger
}

func NewInventory(b backend.Backend, log zerolog.Logger) *Inventory {
	return &Inventory{b: b, log: log.With().Str("component", "clients").Logger()}
}

// List merges both sources. When one source fails the other is used alone;
// only when both fail is an error returned.
func (inv *Inventory) List(ctx context.Context) ([]model.ClientRecord, error) {
	neighbors, nErr := inv.b.NeighborTable(ctx)
	if nErr != nil {
		inv.log.Warn().Err(nErr).Msg("neighbor table unavailable")
	}
	leases, lErr := inv.b.LeaseStore(ctx)
	if lErr != nil {
		inv.log.Warn().Err(lErr).Msg("lease store unavailable")
	}
	if nErr != nil && lErr != nil {
		return nil, fmt.Errorf("list clients: %w", nErr)
	}
	return Merge(neighbors, leases), nil
}
