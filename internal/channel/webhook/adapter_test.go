package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/capitalize-ai/channelgw/internal/channel"
	"github.com/capitalize-ai/channelgw/internal/model"
	"github.com/capitalize-ai/channelgw/pkg/logger"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	log, err := logger.NewDevelopment()
	if err != nil {
		t.Fatalf("logger.NewDevelopment: %v", err)
	}
	return New("webhook", channel.WebhookCapabilities(), nil, log)
}

func postInbound(t *testing.T, a *Adapter, payload InboundPayload) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/webhooks/generic", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	a.handleInbound(rec, req)
	return rec
}

func TestHandleInboundAccepts(t *testing.T) {
	a := newTestAdapter(t)

	rec := postInbound(t, a, InboundPayload{
		EventID:      "evt-1",
		Conversation: model.ConversationKey{Tenant: "acme", Room: "general"},
		Identity:     model.ChannelIdentity{ID: "user-1"},
		Text:         "hello",
	})

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}

	select {
	case evt := <-a.Events():
		if evt.EventID != "evt-1" {
			t.Errorf("EventID = %q, want evt-1", evt.EventID)
		}
		if evt.Conversation.Platform != "webhook" {
			t.Errorf("Conversation.Platform = %q, want webhook (defaulted)", evt.Conversation.Platform)
		}
		if evt.Kind != model.EventKindWebhook {
			t.Errorf("Kind = %q, want %q (defaulted)", evt.Kind, model.EventKindWebhook)
		}
	default:
		t.Fatal("expected an event on a.Events()")
	}
}

func TestHandleInboundRejectsMissingTenant(t *testing.T) {
	a := newTestAdapter(t)

	rec := postInbound(t, a, InboundPayload{
		EventID:      "evt-2",
		Conversation: model.ConversationKey{Room: "general"},
		Text:         "hello",
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleInboundRejectsMalformedJSON(t *testing.T) {
	a := newTestAdapter(t)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/generic", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()
	a.handleInbound(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSendWithoutSenderAlwaysSucceeds(t *testing.T) {
	a := newTestAdapter(t)

	result, err := a.Send(context.Background(), model.ChannelResponse{Text: "hi"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !result.Success {
		t.Error("result.Success = false, want true for a nil sender")
	}
}
