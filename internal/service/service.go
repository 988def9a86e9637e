// Package service orchestrates the device operations behind every user
// action: refreshes, command dispatch and settings writes. All writes go
// through one dispatch gate per device, so an action blocks until the
// device acknowledges (or the client times out) and a failure simply
// returns to idle with the error logged, never retried.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/micro-ha/eink-canvas/addon/internal/entity"
	"github.com/micro-ha/eink-canvas/addon/internal/model"
	"github.com/micro-ha/eink-canvas/addon/internal/options"
	"github.com/micro-ha/eink-canvas/addon/internal/runtime"
	"github.com/micro-ha/eink-canvas/addon/internal/settings"
)

var ErrIntegrationNotConfigured = errors.New("integration not configured")

// Device name length limits, matching the text control.
const (
	minNameLength = 1
	maxNameLength = 50
)

// CanvasClient is the full device API surface the service needs.
type CanvasClient interface {
	GetDeviceInfo(ctx context.Context, cfg model.CanvasConfig) (*model.DeviceState, error)
	SendCommand(ctx context.Context, cfg model.CanvasConfig, name string) error
	UpdateSettings(ctx context.Context, cfg model.CanvasConfig, payload model.SettingsPayload) error
}

// ConfigSource provides the currently resolved device configuration.
type ConfigSource interface {
	Get() (model.CanvasConfig, bool)
}

// DispatchState is the observable state of the command gate.
type DispatchState string

const (
	DispatchIdle        DispatchState = "idle"
	DispatchDispatching DispatchState = "dispatching"
)

type Service struct {
	data        *runtime.Data
	coordinator *runtime.Coordinator
	client      CanvasClient
	config      ConfigSource
	logger      *slog.Logger

	// dispatchMu serializes user-initiated device writes; stateMu guards
	// the observable dispatch state.
	dispatchMu sync.Mutex
	stateMu    sync.RWMutex
	state      DispatchState
}

func New(data *runtime.Data, coordinator *runtime.Coordinator, client CanvasClient, config ConfigSource, logger *slog.Logger) *Service {
	return &Service{
		data:        data,
		coordinator: coordinator,
		client:      client,
		config:      config,
		logger:      logger,
		state:       DispatchIdle,
	}
}

// DispatchState reports whether a device write is currently in flight.
func (s *Service) DispatchState() DispatchState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

func (s *Service) setState(state DispatchState) {
	s.stateMu.Lock()
	s.state = state
	s.stateMu.Unlock()
}

// EnsureFresh returns the cached snapshot, fetching only on a cache miss.
func (s *Service) EnsureFresh(ctx context.Context) (model.DeviceState, bool) {
	return s.coordinator.EnsureFresh(ctx)
}

// ForceRefresh always re-fetches and replaces the snapshot on success.
func (s *Service) ForceRefresh(ctx context.Context) (model.DeviceState, bool) {
	return s.coordinator.ForceRefresh(ctx)
}

// View renders the full entity set from one cache read.
func (s *Service) View(ctx context.Context) entity.View {
	state, ok := s.EnsureFresh(ctx)
	host := ""
	if cfg, configured := s.config.Get(); configured {
		host = cfg.Host
	}
	return entity.RenderView(
		state, ok, host,
		s.data.RecentLogs(10), s.data.LogCount(),
		options.SleepDuration(), options.MaxIdle(), options.WakeSensitivity(),
	)
}

// Logs returns up to limit recent log entries, oldest first.
func (s *Service) Logs(limit int) []model.LogEntry {
	return s.data.RecentLogs(limit)
}

// PressButton dispatches one of the device commands. The refresh command
// additionally replaces the cached snapshot with a fresh fetch.
func (s *Service) PressButton(ctx context.Context, name string) error {
	err := s.dispatch(ctx, "command "+name, func(ctx context.Context, cfg model.CanvasConfig) error {
		return s.client.SendCommand(ctx, cfg, name)
	})
	if err != nil {
		return err
	}
	if name == model.CommandRefreshDeviceInfo {
		s.coordinator.ForceRefresh(ctx)
	}
	return nil
}

// SelectOption applies a new label on one settings axis. The label is
// strictly encoded, merged with the cached snapshot into a full settings
// payload, and written as a whole.
func (s *Service) SelectOption(ctx context.Context, axis options.Axis, label string) error {
	codec, ok := options.ByAxis(axis)
	if !ok {
		return fmt.Errorf("unknown settings axis %q", axis)
	}
	value, err := codec.Encode(label)
	if err != nil {
		// Caller bug, not a device condition; never defaulted.
		return err
	}

	var field settings.Field
	switch axis {
	case options.AxisSleepDuration:
		field = settings.FieldSleepDuration
	case options.AxisMaxIdle:
		field = settings.FieldMaxIdle
	case options.AxisWakeSensitivity:
		field = settings.FieldWakeSensitivity
	}
	return s.writeSetting(ctx, field, value)
}

// SetDeviceName writes a new device display name.
func (s *Service) SetDeviceName(ctx context.Context, name string) error {
	if len(name) < minNameLength || len(name) > maxNameLength {
		return fmt.Errorf("device name must be between %d and %d characters", minNameLength, maxNameLength)
	}
	return s.writeSetting(ctx, settings.FieldName, name)
}

func (s *Service) writeSetting(ctx context.Context, field settings.Field, value any) error {
	current, ok := s.data.Get()
	if !ok {
		s.logger.Error("settings write aborted; no cached device info", "field", string(field))
		s.data.AppendLog(model.LogLevelError, "cannot update "+string(field)+": device info not available")
		return settings.ErrDeviceInfoUnavailable
	}

	payload, err := settings.BuildUpdate(current, field, value)
	if err != nil {
		return err
	}

	err = s.dispatch(ctx, "settings update "+string(field), func(ctx context.Context, cfg model.CanvasConfig) error {
		return s.client.UpdateSettings(ctx, cfg, payload)
	})
	if err != nil {
		return err
	}

	// The device applied the write; replace the snapshot instead of
	// patching fields into the cached one.
	s.coordinator.ForceRefresh(ctx)
	return nil
}

// dispatch runs one device write through the Idle -> Dispatching -> Idle
// gate. The invoking action blocks until the call resolves; a failure is
// logged and returned with no retry.
func (s *Service) dispatch(ctx context.Context, op string, call func(ctx context.Context, cfg model.CanvasConfig) error) error {
	cfg, ok := s.config.Get()
	if !ok {
		return ErrIntegrationNotConfigured
	}

	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.setState(DispatchDispatching)
	defer s.setState(DispatchIdle)

	if err := call(ctx, cfg); err != nil {
		s.logger.Error("dispatch failed", "op", op, "err", err)
		s.data.AppendLog(model.LogLevelError, op+" failed: "+err.Error())
		return err
	}
	s.data.AppendLog(model.LogLevelInfo, op+" succeeded")
	return nil
}

// ValidateConnection probes the device once and records the outcome. Used
// at startup; a failure is reported in the log ring, not fatal.
func (s *Service) ValidateConnection(ctx context.Context) bool {
	cfg, ok := s.config.Get()
	if !ok {
		return false
	}
	state, err := s.client.GetDeviceInfo(ctx, cfg)
	if err != nil {
		s.logger.Warn("device validation failed", "host", cfg.Host, "err", err)
		s.data.AppendLog(model.LogLevelWarning, "cannot connect to device at "+cfg.Host)
		return false
	}
	s.data.Set(*state)
	s.data.AppendLog(model.LogLevelInfo, "connected to device at "+cfg.Host)
	return true
}
