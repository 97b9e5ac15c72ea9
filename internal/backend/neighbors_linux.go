//go:build linux

package backend

import (
	"context"

	"github.com/vishvananda/netlink"

	"roamctl/internal/model"
)

func listNeighbors(ctx context.Context) ([]model.Neighbor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	neighs, err := netlink.NeighList(0, netlink.FAMILY_V4)
	if err != nil {
		return nil, err
	}
	return filterNeighbors(neighs), nil
}

// filterNeighbors keeps entries that resolved to a link-layer address,
// matching what `ip neigh show` lists with an lladdr.
func filterNeighbors(neighs []netlink.Neigh) []model.Neighbor {
	out := make([]model.Neighbor, 0, len(neighs))
	for _, n := range neighs {
		if n.IP == nil || len(n.HardwareAddr) == 0 {
			continue
		}
		if n.State&(netlink.NUD_FAILED|netlink.NUD_INCOMPLETE|netlink.NUD_NOARP) != 0 {
			continue
		}
		out = append(out, model.Neighbor{IP: n.IP.String(), MAC: n.HardwareAddr.String()})
	}
	return out
}
