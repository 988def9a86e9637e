package runtime

import (
	"context"
	"log/slog"

	"github.com/micro-ha/eink-canvas/addon/internal/model"
)

// Fetcher is the device-info side of the canvas API client.
type Fetcher interface {
	GetDeviceInfo(ctx context.Context, cfg model.CanvasConfig) (*model.DeviceState, error)
}

// ConfigSource provides the currently resolved device configuration.
type ConfigSource interface {
	Get() (model.CanvasConfig, bool)
}

// Coordinator enforces the single refresh policy for one device: a cached
// snapshot is trusted as-is (the platform's own periodic cadence drives
// freshness, no TTL here), and the device is only contacted on a cache
// miss or an explicit forced refresh. Fetches are serialized so multiple
// consumers updating in the same cycle trigger at most one device call.
type Coordinator struct {
	data    *Data
	fetcher Fetcher
	config  ConfigSource
	logger  *slog.Logger

	// fetchMu serializes device fetches; buffered channel so acquisition
	// can be abandoned on context cancellation.
	fetchMu chan struct{}
}

func NewCoordinator(data *Data, fetcher Fetcher, config ConfigSource, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		data:    data,
		fetcher: fetcher,
		config:  config,
		logger:  logger,
		fetchMu: make(chan struct{}, 1),
	}
}

// EnsureFresh returns the cached snapshot when present, fetching from the
// device only on a cache miss. A failed fetch is not retried; it reports
// absence and leaves the cache empty so downstream renders an explicit
// offline state instead of stale data.
func (c *Coordinator) EnsureFresh(ctx context.Context) (model.DeviceState, bool) {
	if state, ok := c.data.Get(); ok {
		return state, true
	}

	select {
	case c.fetchMu <- struct{}{}:
	case <-ctx.Done():
		return model.DeviceState{}, false
	}
	defer func() { <-c.fetchMu }()

	// A concurrent consumer may have populated the cache while this one
	// waited for the fetch slot.
	if state, ok := c.data.Get(); ok {
		return state, true
	}
	return c.fetch(ctx, false)
}

// ForceRefresh always contacts the device and replaces the snapshot on
// success. On failure the previous snapshot, if any, is kept.
func (c *Coordinator) ForceRefresh(ctx context.Context) (model.DeviceState, bool) {
	select {
	case c.fetchMu <- struct{}{}:
	case <-ctx.Done():
		return model.DeviceState{}, false
	}
	defer func() { <-c.fetchMu }()

	return c.fetch(ctx, true)
}

func (c *Coordinator) fetch(ctx context.Context, forced bool) (model.DeviceState, bool) {
	cfg, ok := c.config.Get()
	if !ok {
		c.logger.Warn("refresh skipped; integration not configured")
		return model.DeviceState{}, false
	}

	state, err := c.fetcher.GetDeviceInfo(ctx, cfg)
	if err != nil {
		c.logger.Warn("device info fetch failed", "host", cfg.Host, "err", err)
		c.data.AppendLog(model.LogLevelWarning, "device unreachable: "+err.Error())
		if forced {
			if prev, ok := c.data.Get(); ok {
				return prev, true
			}
		}
		return model.DeviceState{}, false
	}

	c.data.Set(*state)
	if forced {
		c.data.AppendLog(model.LogLevelInfo, "device info refreshed")
	}
	return *state, true
}
