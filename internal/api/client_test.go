package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"roamctl/internal/model"
)

func TestClient_ErrorIncludesBody(t *testing.T) {
	t.Parallel()

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"error":"nope"}`))
	}))
	defer s.Close()

	c := NewClient(s.URL)
	err := c.ConnectWifi(context.Background(), WifiConnectRequest{SSID: "x"})
	if err == nil {
		t.Fatalf("expected error")
	}
	got := err.Error()
	if want := "400"; !strings.Contains(got, want) {
		t.Fatalf("error missing status: %q", got)
	}
	if want := `"error":"nope"`; !strings.Contains(got, want) {
		t.Fatalf("error missing body: %q", got)
	}
}

func TestClient_UnsuccessfulResultIsOperationError(t *testing.T) {
	t.Parallel()

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req VPNConfigRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Config != "blob" {
			t.Errorf("body=%+v err=%v", req, err)
		}
		_, _ = w.Write([]byte(`{"success":false,"error":"missing [Peer] section"}`))
	}))
	defer s.Close()

	err := NewClient(s.URL+"/").SaveVPNConfig(context.Background(), VPNConfigRequest{Config: "blob"})
	var opErr *OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("err=%v", err)
	}
	if opErr.Msg != "missing [Peer] section" {
		t.Fatalf("msg=%q", opErr.Msg)
	}
}

func TestClient_ToggleReportsStateWithError(t *testing.T) {
	t.Parallel()

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/vpn/toggle" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"active":true,"error":"vpn_down: wg-quick exited with status 1"}`))
	}))
	defer s.Close()

	resp, err := NewClient(s.URL).ToggleVPN(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	if !resp.Active {
		t.Fatalf("resp=%+v", resp)
	}
}

func TestNewStatusResponse_NullConnectionAndUnknownUptime(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(NewStatusResponse(model.StatusSnapshot{InternetReachable: true}))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"internet":true,"connection":null,"hotspot_active":false,"vpn_active":false,"uptime":"unknown"}`
	if string(data) != want {
		t.Fatalf("json=%s", data)
	}

	resp := NewStatusResponse(model.StatusSnapshot{UpstreamConnection: "Hotel", Uptime: 90 * time.Minute, UptimeKnown: true})
	if resp.Connection == nil || *resp.Connection != "Hotel" || resp.Uptime != "1h 30m" {
		t.Fatalf("resp=%+v", resp)
	}
}

func TestNewScanResponse_UnknownSignalIsNull(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(NewScanResponse([]model.WifiNetwork{{SSID: "Cafe"}}))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if want := `{"networks":[{"ssid":"Cafe","signal":null,"security":""}]}`; string(data) != want {
		t.Fatalf("json=%s", data)
	}
}
