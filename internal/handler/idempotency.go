package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/capitalize-ai/channelgw/internal/idempotency"
	"github.com/capitalize-ai/channelgw/pkg/logger"
)

// IdempotencyHandler exposes read-only inspection of idempotency records.
type IdempotencyHandler struct {
	guard  *idempotency.Guard
	logger *logger.Logger
}

// NewIdempotencyHandler creates a new idempotency handler.
func NewIdempotencyHandler(guard *idempotency.Guard, log *logger.Logger) *IdempotencyHandler {
	return &IdempotencyHandler{guard: guard, logger: log}
}

// Get handles GET /api/v1/idempotency/{eventId}
func (h *IdempotencyHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID := chi.URLParam(r, "eventId")

	record, found, err := h.guard.Inspect(ctx, eventID)
	if err != nil {
		h.logger.Error("failed to inspect idempotency record", "error", err, "event_id", eventID)
		writeError(w, http.StatusInternalServerError, "failed to inspect record")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}

	writeJSON(w, http.StatusOK, record)
}
