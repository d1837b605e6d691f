// Package mock provides an in-memory ChannelPort implementation for
// tests and local development: no real transport, just direct method
// calls to inject events and observe sends.
package mock

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/capitalize-ai/channelgw/internal/channel"
	"github.com/capitalize-ai/channelgw/internal/model"
)

// Adapter is a fully in-process ChannelPort, satisfying the contract
// directly rather than through channel.Base since it has no reconnection
// behavior to speak of.
type Adapter struct {
	platform string
	caps     channel.Capabilities

	running atomic.Bool
	events  chan model.ChannelEvent
	states  chan channel.ConnectionState

	mu    sync.Mutex
	sends []model.ChannelResponse
}

// New constructs a mock Adapter for the given platform name.
func New(platform string, caps channel.Capabilities) *Adapter {
	return &Adapter{
		platform: platform,
		caps:     caps,
		events:   make(chan model.ChannelEvent, 64),
		states:   make(chan channel.ConnectionState, 8),
	}
}

func (a *Adapter) Platform() string                            { return a.platform }
func (a *Adapter) Capabilities() channel.Capabilities           { return a.caps }
func (a *Adapter) IsRunning() bool                              { return a.running.Load() }
func (a *Adapter) Events() <-chan model.ChannelEvent            { return a.events }
func (a *Adapter) ConnectionStates() <-chan channel.ConnectionState { return a.states }

func (a *Adapter) Start(ctx context.Context) error {
	a.running.Store(true)
	select {
	case a.states <- channel.Connected:
	default:
	}
	return nil
}

func (a *Adapter) Stop(ctx context.Context) error {
	a.running.Store(false)
	select {
	case a.states <- channel.Disconnected:
	default:
	}
	return nil
}

// Inject delivers an event to subscribers, as if it arrived from the
// platform.
func (a *Adapter) Inject(e model.ChannelEvent) {
	a.events <- e
}

func (a *Adapter) Send(ctx context.Context, resp model.ChannelResponse) (channel.SendResult, error) {
	a.mu.Lock()
	a.sends = append(a.sends, resp)
	a.mu.Unlock()

	now := time.Now().UnixMilli()
	return channel.SendResult{Success: true, MessageID: "mock-message", Timestamp: &now}, nil
}

// Sent returns every response handed to Send so far, for test assertions.
func (a *Adapter) Sent() []model.ChannelResponse {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]model.ChannelResponse, len(a.sends))
	copy(out, a.sends)
	return out
}
