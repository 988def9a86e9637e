package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/micro-ha/eink-canvas/addon/internal/model"
	"github.com/micro-ha/eink-canvas/addon/internal/options"
	"github.com/micro-ha/eink-canvas/addon/internal/runtime"
	"github.com/micro-ha/eink-canvas/addon/internal/settings"
)

type fakeClient struct {
	state *model.DeviceState
	err   error

	infoCalls    int
	commands     []string
	settingsSent []model.SettingsPayload
}

func (f *fakeClient) GetDeviceInfo(context.Context, model.CanvasConfig) (*model.DeviceState, error) {
	f.infoCalls++
	if f.err != nil {
		return nil, f.err
	}
	snapshot := *f.state
	return &snapshot, nil
}

func (f *fakeClient) SendCommand(_ context.Context, _ model.CanvasConfig, name string) error {
	f.commands = append(f.commands, name)
	return f.err
}

func (f *fakeClient) UpdateSettings(_ context.Context, _ model.CanvasConfig, payload model.SettingsPayload) error {
	f.settingsSent = append(f.settingsSent, payload)
	return f.err
}

type staticConfig struct {
	configured bool
}

func (s staticConfig) Get() (model.CanvasConfig, bool) {
	if !s.configured {
		return model.CanvasConfig{}, false
	}
	return model.CanvasConfig{Host: "192.168.1.42", DeviceName: "Canvas"}, true
}

func newTestService(client *fakeClient) (*Service, *runtime.Data) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	data := runtime.NewData()
	coordinator := runtime.NewCoordinator(data, client, staticConfig{configured: true}, logger)
	return New(data, coordinator, client, staticConfig{configured: true}, logger), data
}

func cachedState() model.DeviceState {
	return model.DeviceState{
		Name:          "Hallway Canvas",
		SleepDuration: 86400,
		MaxIdle:       300,
		IdxWakeSens:   3,
	}
}

func TestSelectOptionSendsFullPayload(t *testing.T) {
	client := &fakeClient{state: &model.DeviceState{Name: "Hallway Canvas", SleepDuration: 43200, MaxIdle: 300, IdxWakeSens: 3}}
	svc, data := newTestService(client)
	data.Set(cachedState())

	if err := svc.SelectOption(context.Background(), options.AxisSleepDuration, "12 hours"); err != nil {
		t.Fatalf("SelectOption() error: %v", err)
	}

	if len(client.settingsSent) != 1 {
		t.Fatalf("settings writes = %d, want 1", len(client.settingsSent))
	}
	want := model.SettingsPayload{Name: "Hallway Canvas", SleepDuration: 43200, MaxIdle: 300, IdxWakeSens: 3}
	if client.settingsSent[0] != want {
		t.Fatalf("payload = %+v, want %+v", client.settingsSent[0], want)
	}
	// A successful write replaces the snapshot via a fresh fetch.
	if client.infoCalls != 1 {
		t.Fatalf("info calls = %d, want 1", client.infoCalls)
	}
}

func TestSelectOptionUnknownLabelFailsWithoutDispatch(t *testing.T) {
	client := &fakeClient{}
	svc, data := newTestService(client)
	data.Set(cachedState())

	err := svc.SelectOption(context.Background(), options.AxisWakeSensitivity, "extreme")
	var unknown *options.UnknownLabelError
	if !errors.As(err, &unknown) {
		t.Fatalf("SelectOption() error = %v, want UnknownLabelError", err)
	}
	if len(client.settingsSent) != 0 {
		t.Fatalf("settings writes = %d, want 0", len(client.settingsSent))
	}
}

func TestWriteSettingWithoutCacheAborts(t *testing.T) {
	client := &fakeClient{}
	svc, data := newTestService(client)

	err := svc.SetDeviceName(context.Background(), "Kitchen Canvas")
	if !errors.Is(err, settings.ErrDeviceInfoUnavailable) {
		t.Fatalf("SetDeviceName() error = %v, want ErrDeviceInfoUnavailable", err)
	}
	if len(client.settingsSent) != 0 {
		t.Fatalf("settings writes = %d, want 0", len(client.settingsSent))
	}
	latest, ok := data.LatestLog()
	if !ok || latest.Level != model.LogLevelError {
		t.Fatalf("LatestLog() = %+v %v, want an error entry", latest, ok)
	}
}

func TestSetDeviceNameValidatesLength(t *testing.T) {
	client := &fakeClient{}
	svc, data := newTestService(client)
	data.Set(cachedState())

	if err := svc.SetDeviceName(context.Background(), ""); err == nil {
		t.Fatal("SetDeviceName(empty) error = nil, want non-nil")
	}
	long := make([]byte, 51)
	for i := range long {
		long[i] = 'x'
	}
	if err := svc.SetDeviceName(context.Background(), string(long)); err == nil {
		t.Fatal("SetDeviceName(51 chars) error = nil, want non-nil")
	}
}

func TestPressButtonDispatchesCommand(t *testing.T) {
	client := &fakeClient{state: &model.DeviceState{}}
	svc, data := newTestService(client)
	data.Set(cachedState())

	if err := svc.PressButton(context.Background(), model.CommandShowNext); err != nil {
		t.Fatalf("PressButton() error: %v", err)
	}
	if len(client.commands) != 1 || client.commands[0] != "show_next" {
		t.Fatalf("commands = %v, want [show_next]", client.commands)
	}
	if client.infoCalls != 0 {
		t.Fatalf("info calls = %d, want 0 for a plain command", client.infoCalls)
	}
}

func TestPressRefreshButtonReplacesSnapshot(t *testing.T) {
	client := &fakeClient{state: &model.DeviceState{Name: "Fresh"}}
	svc, data := newTestService(client)
	data.Set(cachedState())

	if err := svc.PressButton(context.Background(), model.CommandRefreshDeviceInfo); err != nil {
		t.Fatalf("PressButton() error: %v", err)
	}
	got, ok := data.Get()
	if !ok || got.Name != "Fresh" {
		t.Fatalf("cache = %+v %v, want the refreshed snapshot", got, ok)
	}
}

func TestFailedDispatchReturnsToIdleAndLogs(t *testing.T) {
	client := &fakeClient{err: errors.New("device timeout")}
	svc, data := newTestService(client)
	data.Set(cachedState())

	if err := svc.PressButton(context.Background(), model.CommandReboot); err == nil {
		t.Fatal("PressButton() error = nil, want non-nil")
	}
	if got := svc.DispatchState(); got != DispatchIdle {
		t.Fatalf("DispatchState() = %q, want idle", got)
	}
	latest, ok := data.LatestLog()
	if !ok || latest.Level != model.LogLevelError {
		t.Fatalf("LatestLog() = %+v %v, want an error entry", latest, ok)
	}
	// No retry: exactly one command attempt.
	if len(client.commands) != 1 {
		t.Fatalf("commands = %v, want a single attempt", client.commands)
	}
}

func TestDispatchWithoutConfigurationFails(t *testing.T) {
	client := &fakeClient{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	data := runtime.NewData()
	data.Set(cachedState())
	coordinator := runtime.NewCoordinator(data, client, staticConfig{}, logger)
	svc := New(data, coordinator, client, staticConfig{}, logger)

	if err := svc.PressButton(context.Background(), model.CommandWhistle); !errors.Is(err, ErrIntegrationNotConfigured) {
		t.Fatalf("PressButton() error = %v, want ErrIntegrationNotConfigured", err)
	}
}

func TestValidateConnection(t *testing.T) {
	client := &fakeClient{state: &model.DeviceState{Name: "Canvas"}}
	svc, data := newTestService(client)

	if !svc.ValidateConnection(context.Background()) {
		t.Fatal("ValidateConnection() = false, want true")
	}
	if _, ok := data.Get(); !ok {
		t.Fatal("cache empty after successful validation")
	}

	failing := &fakeClient{err: errors.New("refused")}
	svc2, data2 := newTestService(failing)
	if svc2.ValidateConnection(context.Background()) {
		t.Fatal("ValidateConnection() = true with failing client, want false")
	}
	if _, ok := data2.Get(); ok {
		t.Fatal("cache populated after failed validation")
	}
}

func TestViewRendersOfflineWhenUnreachable(t *testing.T) {
	client := &fakeClient{err: errors.New("refused")}
	svc, _ := newTestService(client)

	view := svc.View(context.Background())
	if view.Online {
		t.Fatal("Online = true, want false")
	}
	if view.DeviceInfo.Value != "Offline" {
		t.Fatalf("DeviceInfo = %q, want Offline", view.DeviceInfo.Value)
	}
}
