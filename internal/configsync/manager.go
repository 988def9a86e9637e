package configsync

import (
	"context"
	"log/slog"
	"sync"

	"github.com/micro-ha/eink-canvas/addon/internal/model"
)

type Manager struct {
	client *Client
	logger *slog.Logger

	mu         sync.RWMutex
	configured bool
	config     model.CanvasConfig
}

func NewManager(client *Client, logger *slog.Logger) *Manager {
	return &Manager{client: client, logger: logger}
}

// Refresh re-reads the configuration and reports whether it changed.
func (m *Manager) Refresh(ctx context.Context) (bool, error) {
	res, err := m.client.FetchConfig(ctx)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	changed := false
	if !res.Configured {
		if m.configured {
			changed = true
		}
		m.configured = false
		m.config = model.CanvasConfig{}
		return changed, nil
	}

	if !m.configured || res.Config != m.config {
		changed = true
	}
	m.configured = true
	m.config = res.Config
	return changed, nil
}

func (m *Manager) Get() (model.CanvasConfig, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.configured {
		return model.CanvasConfig{}, false
	}
	return m.config, true
}
