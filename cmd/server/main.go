package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/micro-ha/eink-canvas/addon/internal/canvas"
	"github.com/micro-ha/eink-canvas/addon/internal/configsync"
	httpapi "github.com/micro-ha/eink-canvas/addon/internal/http"
	"github.com/micro-ha/eink-canvas/addon/internal/logging"
	"github.com/micro-ha/eink-canvas/addon/internal/model"
	"github.com/micro-ha/eink-canvas/addon/internal/mqtt"
	"github.com/micro-ha/eink-canvas/addon/internal/poller"
	"github.com/micro-ha/eink-canvas/addon/internal/runtime"
	"github.com/micro-ha/eink-canvas/addon/internal/service"
	"github.com/micro-ha/eink-canvas/addon/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.New(slog.LevelInfo)

	dbPath := env("DB_PATH", "/data/eink_canvas.db")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		logger.Error("failed to create db directory", "err", err)
		os.Exit(1)
	}

	repo, err := storage.New(ctx, dbPath, logger)
	if err != nil {
		logger.Error("failed to initialize storage", "err", err)
		os.Exit(1)
	}
	defer repo.Close()

	cfgClient := configsync.NewClient(env("OPTIONS_PATH", "/data/options.json"))
	cfgManager := configsync.NewManager(cfgClient, logger)
	if _, err := cfgManager.Refresh(ctx); err != nil {
		logger.Warn("initial config refresh failed", "err", err)
	}

	registry := runtime.NewRegistry()
	host := ""
	if cfg, ok := cfgManager.Get(); ok {
		host = cfg.Host
	}
	data := registry.Obtain(host)

	if host != "" {
		restoreCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		entries, err := repo.RecentLogs(restoreCtx, host, 100)
		cancel()
		if err != nil {
			logger.Warn("log restore failed", "err", err)
		} else {
			data.Restore(entries)
		}
	}

	deviceClient := canvas.NewClient()
	coordinator := runtime.NewCoordinator(data, deviceClient, cfgManager, logger)
	svc := service.New(data, coordinator, deviceClient, cfgManager, logger)
	hub := httpapi.NewHub(logger)
	devicePoller := poller.New(svc, cfgManager, logger)

	// Every appended log entry is persisted and pushed to connected
	// frontends.
	data.SetAppendHook(func(entry model.LogEntry) {
		if cfg, ok := cfgManager.Get(); ok {
			persistCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := repo.AppendLog(persistCtx, cfg.Host, entry); err != nil {
				logger.Warn("log persist failed", "err", err)
			}
			cancel()
		}
		hub.BroadcastLog(entry)
	})

	var bridge *mqtt.Bridge
	if cfg, ok := cfgManager.Get(); ok && cfg.MQTT.BrokerURL != "" {
		bridge, err = mqtt.Connect(cfg, svc, logger)
		if err != nil {
			logger.Error("mqtt bridge connect failed", "err", err)
		} else {
			defer bridge.Close()
		}
	}

	devicePoller.SetOnUpdate(func(bool) {
		pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		hub.BroadcastState(svc.View(pushCtx))
		if bridge != nil {
			bridge.PublishState(pushCtx)
		}
	})

	validateCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	svc.ValidateConnection(validateCtx)
	cancel()

	go hub.Run(ctx)
	go runConfigFallbackRefresh(ctx, cfgManager, devicePoller, logger)
	go devicePoller.Run(ctx)
	devicePoller.TriggerRefresh()

	api := httpapi.New(svc, devicePoller, cfgManager, hub, logger)

	httpServer := &http.Server{
		Addr:              env("HTTP_ADDR", ":8099"),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// No WriteTimeout: it would sever long-lived websocket clients.
		IdleTimeout: 60 * time.Second,
	}

	logger.Info("server starting", "addr", httpServer.Addr)
	if err := httpapi.RunServer(ctx, httpServer, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server terminated with error", "err", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// runConfigFallbackRefresh re-reads the addon options periodically. A host
// change takes effect after restart; the refresh still picks up credential
// and interval changes for the running device.
func runConfigFallbackRefresh(ctx context.Context, cfg *configsync.Manager, p *poller.Poller, logger *slog.Logger) {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refreshCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			changed, err := cfg.Refresh(refreshCtx)
			cancel()
			if err != nil {
				logger.Warn("periodic config refresh failed", "err", err)
				continue
			}
			if changed {
				logger.Info("addon options changed")
				p.TriggerRefresh()
			}
		}
	}
}

func env(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
