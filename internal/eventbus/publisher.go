package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/capitalize-ai/channelgw/internal/model"
	"github.com/capitalize-ai/channelgw/pkg/logger"
)

const (
	// StreamName is the gateway's audit stream.
	StreamName = "GATEWAY"

	// subjectPrefix roots every subject this publisher writes to.
	subjectPrefix = "gw"
)

// Publisher fans ChannelEvents and ChannelResponses out onto the
// GATEWAY JetStream stream, subjects gw.<platform>.<tenant>.<room>.event
// and gw.<platform>.<tenant>.<room>.response. It satisfies
// runtime.EventBus.
type Publisher struct {
	client *Client
	log    *logger.Logger
}

// NewPublisher wraps client for use as a runtime.EventBus.
func NewPublisher(client *Client, log *logger.Logger) *Publisher {
	return &Publisher{client: client, log: log}
}

// EnsureStream creates the GATEWAY stream if it doesn't already exist.
func (p *Publisher) EnsureStream(ctx context.Context) error {
	js := p.client.JetStream()

	if _, err := js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{subjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Description: "audit fan-out of gateway events and responses",
	})
	if err != nil {
		return fmt.Errorf("creating gateway stream: %w", err)
	}
	return nil
}

func eventSubject(key model.ConversationKey) string {
	return fmt.Sprintf("%s.%s.%s.%s.event", subjectPrefix, key.Platform, key.Tenant, key.Room)
}

func responseSubject(key model.ConversationKey) string {
	return fmt.Sprintf("%s.%s.%s.%s.response", subjectPrefix, key.Platform, key.Tenant, key.Room)
}

// PublishEvent publishes e; failures are logged and swallowed per §4.13
// ("the core's correctness does not depend on JetStream being reachable").
func (p *Publisher) PublishEvent(ctx context.Context, e model.ChannelEvent) {
	data, err := json.Marshal(e)
	if err != nil {
		p.log.Warn("event bus: marshal event failed", "event_id", e.EventID, "error", err)
		return
	}
	if _, err := p.client.JetStream().Publish(ctx, eventSubject(e.Conversation), data); err != nil {
		p.log.Warn("event bus: publish event failed", "event_id", e.EventID, "error", err)
	}
}

// PublishResponse publishes r, swallowing failures the same way.
func (p *Publisher) PublishResponse(ctx context.Context, r model.ChannelResponse) {
	data, err := json.Marshal(r)
	if err != nil {
		p.log.Warn("event bus: marshal response failed", "error", err)
		return
	}
	if _, err := p.client.JetStream().Publish(ctx, responseSubject(r.Conversation), data); err != nil {
		p.log.Warn("event bus: publish response failed", "error", err)
	}
}
