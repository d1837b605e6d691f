// Package handler provides the admin HTTP surface: health/readiness,
// metrics, and read-only inspection of sessions, idempotency records,
// and the runtime's live event/response/error streams.
package handler

import (
	"net/http"

	"github.com/capitalize-ai/channelgw/internal/eventbus"
)

// HealthHandler handles health and readiness checks.
type HealthHandler struct {
	bus *eventbus.Client
}

// NewHealthHandler creates a new health handler. bus may be nil when
// the event bus is disabled, in which case Ready never fails on it.
func NewHealthHandler(bus *eventbus.Client) *HealthHandler {
	return &HealthHandler{bus: bus}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.bus != nil && !h.bus.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "event bus not connected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
