package api

import (
	"roamctl/internal/model"
	"roamctl/internal/status"
)

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Internet      bool    `json:"internet"`
	Connection    *string `json:"connection"`
	HotspotActive bool    `json:"hotspot_active"`
	VPNActive     bool    `json:"vpn_active"`
	Uptime        string  `json:"uptime"`
}

// WifiNetwork is one scan entry. Signal is null when unknown.
type WifiNetwork struct {
	SSID     string `json:"ssid"`
	Signal   *int   `json:"signal"`
	Security string `json:"security"`
}

// ScanResponse is the body of GET /api/wifi/scan.
type ScanResponse struct {
	Networks []WifiNetwork `json:"networks"`
	Error    string        `json:"error,omitempty"`
}

// WifiConnectRequest is the body of POST /api/wifi/connect.
type WifiConnectRequest struct {
	SSID     string `json:"ssid"`
	Password string `json:"password"`
}

// HotspotConfigRequest is the body of POST /api/hotspot/config.
type HotspotConfigRequest struct {
	SSID     string `json:"ssid"`
	Password string `json:"password"`
}

// VPNConfigRequest is the body of POST /api/vpn/config.
type VPNConfigRequest struct {
	Config string `json:"config"`
}

// ResultResponse reports the outcome of a mutating request.
type ResultResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ToggleResponse reports the state after a toggle.
type ToggleResponse struct {
	Active bool   `json:"active"`
	Error  string `json:"error,omitempty"`
}

// ClientEntry is one attached device.
type ClientEntry struct {
	IP       *string `json:"ip"`
	MAC      string  `json:"mac"`
	Hostname *string `json:"hostname"`
}

// ClientsResponse is the body of GET /api/clients.
type ClientsResponse struct {
	Clients []ClientEntry `json:"clients"`
}

func NewStatusResponse(s model.StatusSnapshot) StatusResponse {
	resp := StatusResponse{
		Internet:      s.InternetReachable,
		HotspotActive: s.APActive,
		VPNActive:     s.VPNActive,
		Uptime:        status.FormatUptime(s.Uptime, s.UptimeKnown),
	}
	if s.UpstreamConnection != "" {
		name := s.UpstreamConnection
		resp.Connection = &name
	}
	return resp
}

func NewScanResponse(nets []model.WifiNetwork) ScanResponse {
	out := make([]WifiNetwork, 0, len(nets))
	for _, n := range nets {
		out = append(out, WifiNetwork{SSID: n.SSID, Signal: n.Signal, Security: n.Security})
	}
	return ScanResponse{Networks: out}
}

func NewClientsResponse(records []model.ClientRecord) ClientsResponse {
	out := make([]ClientEntry, 0, len(records))
	for _, r := range records {
		out = append(out, ClientEntry{IP: r.IP, MAC: r.MAC, Hostname: r.Hostname})
	}
	return ClientsResponse{Clients: out}
}

func NewToggleResponse(r model.ToggleResult) ToggleResponse {
	return ToggleResponse{Active: r.Active, Error: r.Err}
}
