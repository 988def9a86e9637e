// Package poller drives the platform-side periodic refresh cadence. The
// cache itself has no staleness timer; this loop is what keeps the
// snapshot current between user actions.
package poller

import (
	"context"
	"log/slog"
	"time"

	"github.com/micro-ha/eink-canvas/addon/internal/model"
)

// Refresher is the device refresh side of the service.
type Refresher interface {
	ForceRefresh(ctx context.Context) (model.DeviceState, bool)
}

// ConfigSource provides the currently resolved device configuration.
type ConfigSource interface {
	Get() (model.CanvasConfig, bool)
}

type Poller struct {
	service   Refresher
	config    ConfigSource
	refreshCh chan struct{}
	logger    *slog.Logger

	// onUpdate runs after each poll cycle, successful or not.
	onUpdate func(online bool)
}

func New(svc Refresher, cfg ConfigSource, logger *slog.Logger) *Poller {
	return &Poller{service: svc, config: cfg, refreshCh: make(chan struct{}, 1), logger: logger}
}

// SetOnUpdate registers a callback invoked after every poll cycle. Must be
// called before Run.
func (p *Poller) SetOnUpdate(fn func(online bool)) {
	p.onUpdate = fn
}

// TriggerRefresh requests an immediate poll; coalesces if one is pending.
func (p *Poller) TriggerRefresh() {
	select {
	case p.refreshCh <- struct{}{}:
	default:
	}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		interval := 30 * time.Second
		if cfg, ok := p.config.Get(); ok {
			interval = cfg.PollInterval()
		}
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-p.refreshCh:
			timer.Stop()
		case <-timer.C:
		}

		if _, ok := p.config.Get(); !ok {
			p.logger.Info("poll skipped; integration not configured")
			continue
		}

		pollCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		_, online := p.service.ForceRefresh(pollCtx)
		cancel()
		if !online {
			p.logger.Warn("poll cycle found device offline")
		}
		if p.onUpdate != nil {
			p.onUpdate(online)
		}
	}
}
