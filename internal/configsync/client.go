// Package configsync resolves the addon configuration: the device host,
// its display name, the poll cadence and the MQTT broker settings. The
// primary source is the supervisor-managed options.json file, with
// environment variables as a fallback for bare-process runs.
package configsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/micro-ha/eink-canvas/addon/internal/model"
)

type FetchResult struct {
	Configured bool
	Config     model.CanvasConfig
}

type Client struct {
	optionsPath string
}

func NewClient(optionsPath string) *Client {
	return &Client{optionsPath: strings.TrimSpace(optionsPath)}
}

type optionsFile struct {
	CanvasHost      string `json:"canvas_host"`
	DeviceName      string `json:"device_name"`
	PollIntervalSec int    `json:"poll_interval_sec"`
	MQTTBrokerURL   string `json:"mqtt_broker_url"`
	MQTTUsername    string `json:"mqtt_username"`
	MQTTPassword    string `json:"mqtt_password"`
	MQTTClientID    string `json:"mqtt_client_id"`
	DiscoveryPrefix string `json:"mqtt_discovery_prefix"`
}

// FetchConfig loads and normalizes the configuration. A missing host means
// "not configured", not an error; malformed JSON is an error.
func (c *Client) FetchConfig(ctx context.Context) (FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return FetchResult{}, err
	}

	opts, err := c.readOptions()
	if err != nil {
		return FetchResult{}, err
	}

	if strings.TrimSpace(opts.CanvasHost) == "" {
		return FetchResult{Configured: false}, nil
	}

	cfg := model.CanvasConfig{
		Host:            strings.TrimSpace(opts.CanvasHost),
		DeviceName:      strings.TrimSpace(opts.DeviceName),
		PollIntervalSec: opts.PollIntervalSec,
		MQTT: model.MQTTConfig{
			BrokerURL:       strings.TrimSpace(opts.MQTTBrokerURL),
			Username:        opts.MQTTUsername,
			Password:        opts.MQTTPassword,
			ClientID:        strings.TrimSpace(opts.MQTTClientID),
			DiscoveryPrefix: strings.TrimSpace(opts.DiscoveryPrefix),
		},
	}
	if cfg.DeviceName == "" {
		cfg.DeviceName = model.DefaultDeviceName
	}
	if cfg.PollIntervalSec < 10 {
		cfg.PollIntervalSec = 10
	}
	return FetchResult{Configured: true, Config: cfg}, nil
}

func (c *Client) readOptions() (optionsFile, error) {
	body, err := os.ReadFile(c.optionsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return optionsFromEnv(), nil
		}
		return optionsFile{}, err
	}

	var opts optionsFile
	if err := json.Unmarshal(body, &opts); err != nil {
		return optionsFile{}, fmt.Errorf("invalid options file %s: %w", c.optionsPath, err)
	}
	return opts, nil
}

func optionsFromEnv() optionsFile {
	interval := 0
	if raw := os.Getenv("CANVAS_POLL_INTERVAL_SEC"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			interval = parsed
		}
	}
	return optionsFile{
		CanvasHost:      os.Getenv("CANVAS_HOST"),
		DeviceName:      os.Getenv("CANVAS_DEVICE_NAME"),
		PollIntervalSec: interval,
		MQTTBrokerURL:   os.Getenv("MQTT_BROKER_URL"),
		MQTTUsername:    os.Getenv("MQTT_USERNAME"),
		MQTTPassword:    os.Getenv("MQTT_PASSWORD"),
		MQTTClientID:    os.Getenv("MQTT_CLIENT_ID"),
		DiscoveryPrefix: os.Getenv("MQTT_DISCOVERY_PREFIX"),
	}
}
