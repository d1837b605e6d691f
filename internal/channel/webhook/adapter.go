// Package webhook implements a generic ChannelPort for platforms that
// deliver events via inbound HTTP callbacks (Teams and Slack's Events API
// both work this way) rather than a persistent socket. It uses
// go-chi/chi for routing, the same router library the rest of this
// module's admin surface uses.
package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/capitalize-ai/channelgw/internal/channel"
	"github.com/capitalize-ai/channelgw/internal/middleware"
	"github.com/capitalize-ai/channelgw/internal/model"
	"github.com/capitalize-ai/channelgw/pkg/logger"
)

// InboundPayload is the generic shape this adapter accepts; a concrete
// deployment behind Teams/Slack would translate that platform's webhook
// body into this shape before POSTing, or this handler would be
// platform-specialized. Kept generic here since wire encoding per
// platform is explicitly out of this module's scope.
type InboundPayload struct {
	EventID      string                 `json:"event_id"`
	Kind         model.EventKind        `json:"kind"`
	Conversation model.ConversationKey  `json:"conversation"`
	Identity     model.ChannelIdentity  `json:"identity"`
	Text         string                 `json:"text"`
	Payload      map[string]any         `json:"payload,omitempty"`
}

// Sender delivers an outbound response to the platform's own send API
// (the part that genuinely is platform-specific and out of scope here).
type Sender func(ctx context.Context, resp model.ChannelResponse) (channel.SendResult, error)

// Adapter is a ChannelPort backed by an inbound HTTP webhook and a
// caller-supplied Sender for outbound delivery.
type Adapter struct {
	platform string
	caps     channel.Capabilities
	sender   Sender
	log      *logger.Logger

	running atomic.Bool
	events  chan model.ChannelEvent
	states  chan channel.ConnectionState
}

// New constructs a webhook Adapter. sender performs the actual outbound
// HTTP call to the platform's API; pass nil to make Send a no-op (useful
// for smoke-testing inbound delivery alone).
func New(platform string, caps channel.Capabilities, sender Sender, log *logger.Logger) *Adapter {
	return &Adapter{
		platform: platform,
		caps:     caps,
		sender:   sender,
		log:      log,
		events:   make(chan model.ChannelEvent, 256),
		states:   make(chan channel.ConnectionState, 8),
	}
}

func (a *Adapter) Platform() string                                 { return a.platform }
func (a *Adapter) Capabilities() channel.Capabilities                { return a.caps }
func (a *Adapter) IsRunning() bool                                   { return a.running.Load() }
func (a *Adapter) Events() <-chan model.ChannelEvent                 { return a.events }
func (a *Adapter) ConnectionStates() <-chan channel.ConnectionState  { return a.states }

// Start marks the adapter connected; webhook adapters have no socket to
// dial, so "connected" simply means "ready to accept inbound HTTP".
func (a *Adapter) Start(ctx context.Context) error {
	a.running.Store(true)
	a.emitState(channel.Connected)
	return nil
}

func (a *Adapter) Stop(ctx context.Context) error {
	a.running.Store(false)
	a.emitState(channel.Disconnected)
	return nil
}

func (a *Adapter) emitState(s channel.ConnectionState) {
	select {
	case a.states <- s:
	default:
	}
}

// Send delegates to the configured Sender.
func (a *Adapter) Send(ctx context.Context, resp model.ChannelResponse) (channel.SendResult, error) {
	if a.sender == nil {
		now := time.Now().UnixMilli()
		return channel.SendResult{Success: true, Timestamp: &now}, nil
	}
	return a.sender(ctx, resp)
}

// Mount registers the inbound webhook route on r at path. The handler
// acknowledges an accepted event with 202 as soon as it is queued, since
// the event's eventual processing result flows back out-of-band via Send,
// matching the "at-least once delivery" model platforms use for webhooks.
// It answers 400 for a body that is not valid JSON or fails tenant/content
// validation, and 503 when the adapter's event buffer is full.
func (a *Adapter) Mount(r chi.Router, path string) {
	r.Post(path, a.handleInbound)
}

func (a *Adapter) handleInbound(w http.ResponseWriter, r *http.Request) {
	var payload InboundPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if payload.Conversation.Platform == "" {
		payload.Conversation.Platform = a.platform
	}
	payload.Identity.Platform = a.platform

	if err := middleware.ValidateTenantID(payload.Conversation.Tenant); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := middleware.ValidateMessageContent(payload.Text); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	event := model.ChannelEvent{
		EventID:      payload.EventID,
		Kind:         payload.Kind,
		Conversation: payload.Conversation,
		Identity:     payload.Identity,
		Timestamp:    time.Now(),
		Text:         payload.Text,
		Payload:      payload.Payload,
	}
	if event.Kind == "" {
		event.Kind = model.EventKindWebhook
	}

	select {
	case a.events <- event:
		w.WriteHeader(http.StatusAccepted)
	default:
		a.log.Warn("dropping webhook event: subscriber too slow", "platform", a.platform)
		w.WriteHeader(http.StatusServiceUnavailable)
	}
}
