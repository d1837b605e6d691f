package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/capitalize-ai/channelgw/internal/idempotency"
	"github.com/capitalize-ai/channelgw/internal/runtime"
	"github.com/capitalize-ai/channelgw/internal/session"
	"github.com/capitalize-ai/channelgw/pkg/logger"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	log, err := logger.NewDevelopment()
	if err != nil {
		t.Fatalf("logger.NewDevelopment: %v", err)
	}

	sessions := session.NewManager(session.NewMemoryStore(), session.DefaultConfig(), log)
	guard := idempotency.New(idempotency.NewMemoryStore(), idempotency.DefaultConfig(), log)
	rt := runtime.New(runtime.Config{Mode: runtime.ModeDirectTool}, sessions, guard, nil, log)

	return NewRouter(RouterConfig{
		JWTSecret:         "test-secret",
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		Health:            NewHealthHandler(nil),
		Sessions:          NewSessionHandler(sessions, log),
		Idempotency:       NewIdempotencyHandler(guard, log),
		Stream:            NewStreamHandler(rt, log),
	}, log)
}

func TestRouterHealthIsOpen(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("GET /health status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRouterReadyIsOpenAndReadyWithoutBus(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("GET /ready status = %d, want %d (no event bus configured)", rec.Code, http.StatusOK)
	}
}

func TestRouterMetricsIsOpen(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("GET /metrics status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRouterAPIRequiresAuth(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("GET /api/v1/sessions without a token status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
