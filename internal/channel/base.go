package channel

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/capitalize-ai/channelgw/internal/model"
	"github.com/capitalize-ai/channelgw/pkg/logger"
)

// ReconnectConfig configures the default reconnection policy (§4.9).
type ReconnectConfig struct {
	AutoReconnect      bool
	ReconnectDelay     time.Duration
	MaxReconnectAttempts int
}

// Base implements the event/connection-state broadcast plumbing and the
// default reconnection policy shared by every reference adapter. An
// adapter embeds Base and supplies a Connector that does the actual
// platform I/O; Base drives Connector.Dial/Close and applies the
// disconnect/reconnect state machine around it.
type Base struct {
	platform string
	caps     Capabilities
	reconfig ReconnectConfig
	log      *logger.Logger

	events  chan model.ChannelEvent
	states  chan ConnectionState
	running atomic.Bool
	attempts atomic.Int32

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Connector is the platform-specific I/O a concrete adapter supplies.
type Connector interface {
	// Dial establishes the connection and begins delivering events to
	// emit. It should block until ctx is cancelled or a fatal error
	// occurs, returning that error (nil on clean shutdown).
	Dial(ctx context.Context, emit func(model.ChannelEvent)) error
	// Send delivers one response through the platform's transport.
	Send(ctx context.Context, resp model.ChannelResponse) (SendResult, error)
}

// NewBase constructs a Base. bufferSize sizes the broadcast channels;
// slow consumers drop events once full, per §9's "backpressure is not
// part of the contract".
func NewBase(platform string, caps Capabilities, reconfig ReconnectConfig, bufferSize int, log *logger.Logger) *Base {
	return &Base{
		platform: platform,
		caps:     caps,
		reconfig: reconfig,
		log:      log,
		events:   make(chan model.ChannelEvent, bufferSize),
		states:   make(chan ConnectionState, bufferSize),
	}
}

func (b *Base) Platform() string            { return b.platform }
func (b *Base) Capabilities() Capabilities   { return b.caps }
func (b *Base) IsRunning() bool              { return b.running.Load() }
func (b *Base) Events() <-chan model.ChannelEvent   { return b.events }
func (b *Base) ConnectionStates() <-chan ConnectionState { return b.states }

func (b *Base) emitEvent(e model.ChannelEvent) {
	select {
	case b.events <- e:
	default:
		b.log.Warn("dropping event: subscriber too slow", "platform", b.platform)
	}
}

func (b *Base) emitState(s ConnectionState) {
	select {
	case b.states <- s:
	default:
	}
}

// NotifyConnected is called by a Connector once its transport is up. It
// resets the reconnect-attempts counter, per §4.9's "On successful
// onConnected, reset the counter."
func (b *Base) NotifyConnected() {
	b.attempts.Store(0)
	b.emitState(Connected)
}

// Run drives connector under the reconnection policy until ctx is
// cancelled or Stop is called. Adapters call this from their Start.
func (b *Base) Run(ctx context.Context, connector Connector) error {
	if b.running.Swap(true) {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.cancel = cancel
	b.mu.Unlock()

	go func() {
		defer b.running.Store(false)
		b.attempts.Store(0)

		for {
			b.emitState(Connecting)
			err := connector.Dial(runCtx, b.emitEvent)

			if runCtx.Err() != nil {
				b.emitState(Disconnected)
				return
			}

			if err != nil {
				b.log.Warn("adapter disconnected", "platform", b.platform, "error", err)
			}

			if !b.reconfig.AutoReconnect || int(b.attempts.Load()) >= b.reconfig.MaxReconnectAttempts {
				b.emitState(Failed)
				return
			}

			b.attempts.Add(1)
			b.emitState(Reconnecting)

			timer := time.NewTimer(b.reconfig.ReconnectDelay)
			select {
			case <-runCtx.Done():
				timer.Stop()
				b.emitState(Disconnected)
				return
			case <-timer.C:
			}
		}
	}()

	return nil
}

// Stop cancels the adapter's connection loop.
func (b *Base) Stop(ctx context.Context) error {
	b.mu.Lock()
	cancel := b.cancel
	b.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}
