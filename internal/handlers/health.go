package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/matjar-app/api/internal/platform/httpx"
)

// ReadinessProbe checks one dependency; a non-nil error marks the service
// not ready.
type ReadinessProbe func(ctx context.Context) error

// HealthHandlers answers liveness and readiness checks.
type HealthHandlers struct {
	started time.Time
	probes  map[string]ReadinessProbe
}

// NewHealthHandlers constructs the handlers with optional named probes.
func NewHealthHandlers() *HealthHandlers {
	return &HealthHandlers{started: time.Now(), probes: map[string]ReadinessProbe{}}
}

// AddProbe registers a named readiness probe.
func (h *HealthHandlers) AddProbe(name string, probe ReadinessProbe) {
	if name != "" && probe != nil {
		h.probes[name] = probe
	}
}

// Healthz reports process liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    time.Since(h.started).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Readyz runs the registered probes and reports per-dependency status.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.probes))
	for name, probe := range h.probes {
		if err := probe(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	payload := map[string]any{"status": "ok", "checks": checks}
	if status != http.StatusOK {
		payload["status"] = "degraded"
	}
	httpx.WriteJSON(w, status, payload)
}
