//go:build linux

package backend

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vishvananda/netlink"

	"roamctl/internal/model"
)

func TestFilterNeighbors(t *testing.T) {
	t.Parallel()

	mac := func(s string) net.HardwareAddr {
		hw, err := net.ParseMAC(s)
		if err != nil {
			t.Fatalf("ParseMAC: %v", err)
		}
		return hw
	}

	in := []netlink.Neigh{
		{IP: net.ParseIP("192.168.4.10"), HardwareAddr: mac("AA:BB:CC:DD:EE:FF"), State: netlink.NUD_REACHABLE},
		{IP: net.ParseIP("192.168.4.11"), State: netlink.NUD_INCOMPLETE},
		{IP: net.ParseIP("192.168.4.12"), HardwareAddr: mac("11:22:33:44:55:66"), State: netlink.NUD_FAILED},
		{IP: net.ParseIP("192.168.4.13"), HardwareAddr: mac("11:22:33:44:55:77"), State: netlink.NUD_STALE},
	}

	assert.Equal(t, []model.Neighbor{
		{IP: "192.168.4.10", MAC: "aa:bb:cc:dd:ee:ff"},
		{IP: "192.168.4.13", MAC: "11:22:33:44:55:77"},
	}, filterNeighbors(in))
}
