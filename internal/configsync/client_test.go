package configsync

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFetchConfigFromOptionsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.json")
	if err := os.WriteFile(path, []byte(`{
		"canvas_host": "192.168.1.42",
		"device_name": "Hallway Canvas",
		"poll_interval_sec": 3,
		"mqtt_broker_url": "tcp://192.168.1.2:1883",
		"mqtt_username": "ha",
		"mqtt_password": "secret"
	}`), 0o644); err != nil {
		t.Fatalf("write options file: %v", err)
	}

	client := NewClient(path)
	got, err := client.FetchConfig(context.Background())
	if err != nil {
		t.Fatalf("FetchConfig() error: %v", err)
	}
	if !got.Configured {
		t.Fatal("FetchConfig() configured = false, want true")
	}
	if got.Config.Host != "192.168.1.42" {
		t.Fatalf("Host = %q, want 192.168.1.42", got.Config.Host)
	}
	if got.Config.DeviceName != "Hallway Canvas" {
		t.Fatalf("DeviceName = %q, want Hallway Canvas", got.Config.DeviceName)
	}
	if got.Config.PollIntervalSec != 10 {
		t.Fatalf("PollIntervalSec = %d, want clamped 10", got.Config.PollIntervalSec)
	}
	if got.Config.MQTT.BrokerURL != "tcp://192.168.1.2:1883" {
		t.Fatalf("BrokerURL = %q", got.Config.MQTT.BrokerURL)
	}
}

func TestFetchConfigNotConfiguredWithoutHost(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.json")
	if err := os.WriteFile(path, []byte(`{"device_name": "Canvas"}`), 0o644); err != nil {
		t.Fatalf("write options file: %v", err)
	}

	client := NewClient(path)
	got, err := client.FetchConfig(context.Background())
	if err != nil {
		t.Fatalf("FetchConfig() error: %v", err)
	}
	if got.Configured {
		t.Fatal("FetchConfig() configured = true, want false")
	}
}

func TestFetchConfigFallsBackToEnvWhenOptionsFileMissing(t *testing.T) {
	t.Setenv("CANVAS_HOST", "192.168.1.77")
	t.Setenv("CANVAS_DEVICE_NAME", "")
	t.Setenv("CANVAS_POLL_INTERVAL_SEC", "45")
	t.Setenv("MQTT_BROKER_URL", "")

	client := NewClient(filepath.Join(t.TempDir(), "missing-options.json"))
	got, err := client.FetchConfig(context.Background())
	if err != nil {
		t.Fatalf("FetchConfig() error: %v", err)
	}
	if !got.Configured {
		t.Fatal("FetchConfig() configured = false, want true")
	}
	if got.Config.Host != "192.168.1.77" {
		t.Fatalf("Host = %q, want 192.168.1.77", got.Config.Host)
	}
	if got.Config.DeviceName != "E-Ink Canvas" {
		t.Fatalf("DeviceName = %q, want default", got.Config.DeviceName)
	}
	if got.Config.PollIntervalSec != 45 {
		t.Fatalf("PollIntervalSec = %d, want 45", got.Config.PollIntervalSec)
	}
}

func TestFetchConfigReturnsErrorForInvalidOptionsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatalf("write options file: %v", err)
	}

	client := NewClient(path)
	if _, err := client.FetchConfig(context.Background()); err == nil {
		t.Fatal("FetchConfig() error = nil, want non-nil")
	}
}

func TestManagerDetectsChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.json")
	write := func(host string) {
		t.Helper()
		body := `{"canvas_host": "` + host + `"}`
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write options file: %v", err)
		}
	}

	write("192.168.1.42")
	manager := NewManager(NewClient(path), nil)

	changed, err := manager.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	if !changed {
		t.Fatal("first Refresh() changed = false, want true")
	}

	changed, err = manager.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	if changed {
		t.Fatal("unchanged Refresh() changed = true, want false")
	}

	write("192.168.1.99")
	changed, err = manager.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	if !changed {
		t.Fatal("Refresh() after host change = false, want true")
	}

	cfg, ok := manager.Get()
	if !ok || cfg.Host != "192.168.1.99" {
		t.Fatalf("Get() = %+v %v, want the new host", cfg, ok)
	}
}
