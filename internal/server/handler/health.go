package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the health-check endpoint, probing the backing stores
// when they are configured.
type HealthHandler struct {
	db     Pinger // may be nil
	cache  Pinger // may be nil
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler. db and cache may be nil; missing
// components are reported as "disabled" rather than failing the check.
func NewHealthHandler(db, cache Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, logger: logger}
}

// HealthCheck responds with the server status and per-component reachability.
// The HTTP status is 200 as long as the process is serving; component
// failures are reported in the body.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := map[string]string{
		"postgres": h.probe(ctx, h.db),
		"redis":    h.probe(ctx, h.cache),
	}

	status := "ok"
	for _, s := range components {
		if s == "unreachable" {
			status = "degraded"
			break
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) probe(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.Ping(ctx); err != nil {
		h.logger.WarnContext(ctx, "handler: health probe failed",
			slog.String("error", err.Error()),
		)
		return "unreachable"
	}
	return "ok"
}
