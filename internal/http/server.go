// Package httpapi exposes the addon REST surface and the websocket feed
// used by the ingress frontend.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/micro-ha/eink-canvas/addon/internal/canvas"
	"github.com/micro-ha/eink-canvas/addon/internal/configsync"
	"github.com/micro-ha/eink-canvas/addon/internal/options"
	"github.com/micro-ha/eink-canvas/addon/internal/poller"
	"github.com/micro-ha/eink-canvas/addon/internal/service"
	"github.com/micro-ha/eink-canvas/addon/internal/settings"
)

type API struct {
	service *service.Service
	poller  *poller.Poller
	config  *configsync.Manager
	hub     *Hub
	logger  *slog.Logger
}

func New(svc *service.Service, p *poller.Poller, cfg *configsync.Manager, hub *Hub, logger *slog.Logger) *API {
	return &API{service: svc, poller: p, config: cfg, hub: hub, logger: logger}
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RecoverJSON)
	r.Use(stripIngressPrefix)

	r.Get("/healthz", a.health)
	r.Get("/ws", a.websocket)
	r.Route("/api", func(api chi.Router) {
		// Response capture and timeouts stay off the websocket route;
		// the upgrade needs the raw hijackable writer.
		api.Use(RequestLogger(a.logger))
		api.Use(middleware.Timeout(30 * time.Second))
		api.Get("/state", a.state)
		api.Get("/logs", a.logs)
		api.Post("/refresh", a.refresh)
		api.Post("/command/{name}", a.command)
		api.Put("/settings/name", a.setName)
		api.Put("/settings/{axis}", a.setOption)
	})
	return r
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	_, configured := a.config.Get()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "configured": configured})
}

func (a *API) state(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.service.View(r.Context()))
}

func (a *API) logs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 1 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = value
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": a.service.Logs(limit)})
}

func (a *API) refresh(w http.ResponseWriter, _ *http.Request) {
	a.poller.TriggerRefresh()
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

func (a *API) command(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := a.service.PressButton(r.Context(), name); err != nil {
		a.writeActionError(w, err)
		return
	}
	a.broadcastState(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) setName(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid JSON payload")
		return
	}
	if err := a.service.SetDeviceName(r.Context(), payload.Name); err != nil {
		a.writeActionError(w, err)
		return
	}
	a.broadcastState(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) setOption(w http.ResponseWriter, r *http.Request) {
	axis := options.Axis(chi.URLParam(r, "axis"))
	if _, ok := options.ByAxis(axis); !ok {
		writeError(w, http.StatusNotFound, "unknown_setting", "Unknown settings axis")
		return
	}
	var payload struct {
		Label string `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid JSON payload")
		return
	}
	if err := a.service.SelectOption(r.Context(), axis, payload.Label); err != nil {
		a.writeActionError(w, err)
		return
	}
	a.broadcastState(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) websocket(w http.ResponseWriter, r *http.Request) {
	if a.hub == nil {
		writeError(w, http.StatusNotFound, "websocket_disabled", "Websocket feed not enabled")
		return
	}
	a.hub.Serve(w, r)
}

func (a *API) broadcastState(ctx context.Context) {
	if a.hub != nil {
		a.hub.BroadcastState(a.service.View(ctx))
	}
}

// writeActionError maps service failures onto HTTP statuses: caller bugs
// get 4xx, device trouble gets 502.
func (a *API) writeActionError(w http.ResponseWriter, err error) {
	var unknownCommand *canvas.UnknownCommandError
	var unknownLabel *options.UnknownLabelError
	switch {
	case errors.Is(err, service.ErrIntegrationNotConfigured):
		writeError(w, http.StatusConflict, "integration_not_configured", "Integration not configured")
	case errors.Is(err, settings.ErrDeviceInfoUnavailable):
		writeError(w, http.StatusConflict, "device_info_unavailable", "Device info not available; refresh first")
	case errors.As(err, &unknownCommand), errors.As(err, &unknownLabel):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeError(w, http.StatusBadGateway, "device_error", err.Error())
	}
}

func stripIngressPrefix(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefix := strings.TrimSpace(r.Header.Get("X-Ingress-Path"))
		if prefix != "" && strings.HasPrefix(r.URL.Path, prefix) {
			r.URL.Path = strings.TrimPrefix(r.URL.Path, prefix)
			if r.URL.Path == "" {
				r.URL.Path = "/"
			}
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}

// RunServer starts the server and shuts it down gracefully when the
// context is cancelled.
func RunServer(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil {
			logger.Error("http server failed", "err", err)
			return err
		}
		return nil
	}
}
