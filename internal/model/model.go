package model

import "time"

// Subsystem names a toggleable part of the appliance.
type Subsystem string

const (
	SubsystemAP  Subsystem = "ap"
	SubsystemVPN Subsystem = "vpn"
)

// StatusSnapshot is the reconciled network posture at one instant.
// Each field is derived from its own probe.
type StatusSnapshot struct {
	InternetReachable  bool
	UpstreamConnection string // "" when no wireless upstream is active
	APActive           bool
	VPNActive          bool
	Uptime             time.Duration
	UptimeKnown        bool
	Faults             []ProbeFault
}

// ProbeFault records a probe that degraded to its default value.
type ProbeFault struct {
	Probe string
	Err   error
}

// Degraded reports whether the named probe failed.
func (s StatusSnapshot) Degraded(probe string) bool {
	for _, f := range s.Faults {
		if f.Probe == probe {
			return true
		}
	}
	return false
}

// WifiNetwork is one entry of a WiFi scan.
type WifiNetwork struct {
	SSID     string
	Signal   *int // percentage 0-100, nil when unknown
	Security string
}

// ClientRecord is one attached device. MAC is lowercase and unique.
type ClientRecord struct {
	IP       *string
	MAC      string
	Hostname *string
}

// ToggleResult is the post-action state as re-read from the backend.
type ToggleResult struct {
	Active bool
	Err    string
}

// Connection is an active network-manager connection profile.
type Connection struct {
	Name string
	Kind string
}

// Neighbor is one address-resolution table entry.
type Neighbor struct {
	IP  string
	MAC string
}

// Lease is one DHCP lease store entry. Hostname is "" when the store had none.
type Lease struct {
	MAC      string
	IP       string
	Hostname string
}
