package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OperationError is a request the daemon accepted but could not carry out.
type OperationError struct {
	Msg string
}

func (e *OperationError) Error() string { return e.Msg }

// Client is a thin HTTP client for the daemon API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given base URL (e.g. http://host:port).
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			// Toggles run several backend commands in sequence.
			Timeout: 60 * time.Second,
		},
	}
}

func (c *Client) Status(ctx context.Context) (StatusResponse, error) {
	var resp StatusResponse
	err := c.getJSON(ctx, "/api/status", &resp)
	return resp, err
}

func (c *Client) Clients(ctx context.Context) (ClientsResponse, error) {
	var resp ClientsResponse
	err := c.getJSON(ctx, "/api/clients", &resp)
	return resp, err
}

// ScanWifi returns the visible networks. A failed scan is an *OperationError.
func (c *Client) ScanWifi(ctx context.Context) (ScanResponse, error) {
	var resp ScanResponse
	if err := c.getJSON(ctx, "/api/wifi/scan", &resp); err != nil {
		return resp, err
	}
	if resp.Error != "" {
		return resp, &OperationError{Msg: resp.Error}
	}
	return resp, nil
}

func (c *Client) ConnectWifi(ctx context.Context, req WifiConnectRequest) error {
	return c.postResult(ctx, "/api/wifi/connect", req)
}

func (c *Client) ToggleHotspot(ctx context.Context) (ToggleResponse, error) {
	return c.postToggle(ctx, "/api/hotspot/toggle")
}

func (c *Client) SaveHotspot(ctx context.Context, req HotspotConfigRequest) error {
	return c.postResult(ctx, "/api/hotspot/config", req)
}

func (c *Client) ToggleVPN(ctx context.Context) (ToggleResponse, error) {
	return c.postToggle(ctx, "/api/vpn/toggle")
}

func (c *Client) SaveVPNConfig(ctx context.Context, req VPNConfigRequest) error {
	return c.postResult(ctx, "/api/vpn/config", req)
}

func (c *Client) Reboot(ctx context.Context) error {
	return c.postResult(ctx, "/api/system/reboot", struct{}{})
}

func (c *Client) postResult(ctx context.Context, path string, body any) error {
	var resp ResultResponse
	if err := c.postJSON(ctx, path, body, &resp); err != nil {
		return err
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "operation failed"
		}
		return &OperationError{Msg: msg}
	}
	return nil
}

func (c *Client) postToggle(ctx context.Context, path string) (ToggleResponse, error) {
	var resp ToggleResponse
	if err := c.postJSON(ctx, path, struct{}{}, &resp); err != nil {
		return resp, err
	}
	if resp.Error != "" {
		return resp, &OperationError{Msg: resp.Error}
	}
	return resp, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		msg := strings.TrimSpace(string(body))
		if msg != "" {
			return fmt.Errorf("request failed: %s: %s", res.Status, msg)
		}
		return fmt.Errorf("request failed: %s", res.Status)
	}

	if out == nil {
		return nil
	}

	decoder := json.NewDecoder(res.Body)
	return decoder.Decode(out)
}
