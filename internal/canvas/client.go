// Package canvas implements the HTTP client for the e-ink canvas device API.
//
// The device exposes three operations: a device-info read, a fire-and-forget
// command endpoint, and a full-overwrite settings write. All transport
// failures are absorbed here and reported as plain error values; no raw
// *http.Response or partially decoded snapshot ever reaches a caller.
package canvas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/micro-ha/eink-canvas/addon/internal/model"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	httpClient *http.Client
}

func NewClient() *Client {
	return NewClientWithHTTPClient(&http.Client{Timeout: defaultTimeout})
}

func NewClientWithHTTPClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if httpClient.Timeout == 0 {
		httpClient.Timeout = defaultTimeout
	}
	return &Client{httpClient: httpClient}
}

// GetDeviceInfo fetches one full DeviceState snapshot from /deviceInfo.
// Any network error, timeout or non-2xx status yields a nil snapshot and a
// descriptive error; the caller treats every error as "device absent".
func (c *Client) GetDeviceInfo(ctx context.Context, cfg model.CanvasConfig) (*model.DeviceState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.BaseURL()+"/deviceInfo", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("device info request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("device info status %d: %s", resp.StatusCode, string(body))
	}

	var state model.DeviceState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, fmt.Errorf("device info decode failed: %w", err)
	}
	return &state, nil
}

// SendCommand invokes one of the device's no-payload commands. The call
// blocks until the device acknowledges or the client times out.
func (c *Client) SendCommand(ctx context.Context, cfg model.CanvasConfig, name string) error {
	if !model.IsCommand(name) {
		return &UnknownCommandError{Name: name}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL()+"/command/"+name, nil)
	if err != nil {
		return err
	}
	return c.do(req, "command "+name)
}

// UpdateSettings writes the complete settings object. The device endpoint
// overwrites all four fields on every call; callers must populate the full
// payload (see the settings package).
func (c *Client) UpdateSettings(ctx context.Context, cfg model.CanvasConfig, payload model.SettingsPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL()+"/updateSettings", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, "settings update")
}

func (c *Client) do(req *http.Request, op string) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("%s status %d: %s", op, resp.StatusCode, string(body))
	}
	return nil
}
