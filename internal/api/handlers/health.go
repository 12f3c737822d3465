package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Health provides a minimal liveness check endpoint.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler reports whether report storage is reachable.
type ReadyHandler struct {
	DB      Pinger
	Log     *slog.Logger
	Timeout time.Duration
}

func (h *ReadyHandler) Ready(w http.ResponseWriter, r *http.Request) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	if err := h.DB.Ping(ctx); err != nil {
		loggerOrDefault(h.Log).WarnContext(r.Context(), "readiness check failed", "err", err)
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{
			"status":   "unavailable",
			"database": "disconnected",
		})
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]string{
		"status":   "ok",
		"database": "connected",
	})
}
