package handlers

import (
	"context"
	"log/slog"
	"net/http"
)

// Pinger is a dependency the health check pings
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

// Ping calls f
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler reports liveness of the API and its backing services
type HealthHandler struct {
	version string
	checks  map[string]Pinger
}

// NewHealthHandler creates a health handler over the named checks
func NewHealthHandler(version string, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{version: version, checks: checks}
}

// Health runs every check
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "healthy", "version": h.version}
	status := http.StatusOK
	for name, check := range h.checks {
		if err := check.Ping(r.Context()); err != nil {
			slog.Warn("Health check failed", "dependency", name, "error", err)
			body[name] = "error"
			body["status"] = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		body[name] = "ok"
	}
	JSONResponse(w, status, body)
}
