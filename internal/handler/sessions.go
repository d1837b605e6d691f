package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/capitalize-ai/channelgw/internal/model"
	"github.com/capitalize-ai/channelgw/internal/session"
	"github.com/capitalize-ai/channelgw/pkg/logger"
)

// SessionHandler exposes read-only inspection of session state.
type SessionHandler struct {
	sessions *session.Manager
	logger   *logger.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sessions *session.Manager, log *logger.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: log}
}

// List handles GET /api/v1/sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 50
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	var state *model.SessionState
	if s := r.URL.Query().Get("state"); s != "" {
		st := model.SessionState(s)
		state = &st
	}

	sessions, total, err := h.sessions.List(ctx, offset, limit, state)
	if err != nil {
		h.logger.Error("failed to list sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// Get handles GET /api/v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	sess, found, err := h.sessions.GetSession(ctx, id)
	if err != nil {
		h.logger.Error("failed to get session", "error", err, "session_id", id)
		writeError(w, http.StatusInternalServerError, "failed to get session")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	writeJSON(w, http.StatusOK, sess)
}
