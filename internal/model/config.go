package model

import (
	"strings"
	"time"
)

const DefaultDeviceName = "E-Ink Canvas"

// CanvasConfig represents a normalized integration configuration payload.
type CanvasConfig struct {
	Host            string `json:"host"`
	DeviceName      string `json:"device_name"`
	PollIntervalSec int    `json:"poll_interval_sec"`

	MQTT MQTTConfig `json:"mqtt"`
}

// MQTTConfig holds broker settings for Home Assistant discovery publishing.
// An empty BrokerURL disables the MQTT bridge entirely.
type MQTTConfig struct {
	BrokerURL       string `json:"broker_url"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	ClientID        string `json:"client_id"`
	DiscoveryPrefix string `json:"discovery_prefix"`
}

func (c CanvasConfig) PollInterval() time.Duration {
	interval := time.Duration(c.PollIntervalSec) * time.Second
	if interval < 10*time.Second {
		return 10 * time.Second
	}
	return interval
}

// BaseURL returns the device HTTP API base, without a trailing slash.
func (c CanvasConfig) BaseURL() string {
	host := strings.TrimSpace(c.Host)
	host = strings.TrimSuffix(host, "/")
	if host == "" {
		return ""
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	return host
}

func (m MQTTConfig) Prefix() string {
	prefix := strings.Trim(strings.TrimSpace(m.DiscoveryPrefix), "/")
	if prefix == "" {
		return "homeassistant"
	}
	return prefix
}

func (m MQTTConfig) Client() string {
	if strings.TrimSpace(m.ClientID) == "" {
		return "eink-canvas-bridge"
	}
	return m.ClientID
}
