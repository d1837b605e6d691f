package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/capitalize-ai/channelgw/internal/channel"
	"github.com/capitalize-ai/channelgw/internal/channel/mock"
	"github.com/capitalize-ai/channelgw/internal/gwerr"
	"github.com/capitalize-ai/channelgw/internal/model"
	"github.com/capitalize-ai/channelgw/internal/policy"
	"github.com/capitalize-ai/channelgw/internal/processor"
	"github.com/capitalize-ai/channelgw/internal/session"
	"github.com/capitalize-ai/channelgw/pkg/logger"
)

func newTestRuntime(t *testing.T, mode DispatchMode) (*Runtime, *mock.Adapter) {
	t.Helper()
	log, err := logger.NewDevelopment()
	if err != nil {
		t.Fatalf("logger.NewDevelopment: %v", err)
	}

	sessions := session.NewManager(session.NewMemoryStore(), session.DefaultConfig(), log)
	rt := New(Config{Mode: mode}, sessions, nil, nil, log)

	adapter := mock.New("mock", channel.SlackCapabilities())
	if err := rt.RegisterChannel(adapter, policy.New(policy.PresetSlack())); err != nil {
		t.Fatalf("RegisterChannel: %v", err)
	}

	return rt, adapter
}

func waitForSend(t *testing.T, adapter *mock.Adapter) []model.ChannelResponse {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if sent := adapter.Sent(); len(sent) > 0 {
			return sent
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for adapter.Send")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestRuntimeDirectToolDispatch(t *testing.T) {
	rt, adapter := newTestRuntime(t, ModeDirectTool)
	rt.SetTools(processor.NewRegistry())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := rt.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer rt.Dispose(context.Background())

	adapter.Inject(model.ChannelEvent{
		EventID:      "evt-1",
		Kind:         model.EventKindMessage,
		Conversation: model.ConversationKey{Platform: "mock", Tenant: "acme", Room: "general"},
		Identity:     model.ChannelIdentity{Platform: "mock", ID: "user-1"},
		Timestamp:    time.Now(),
		Text:         "echo hello there",
	})

	sent := waitForSend(t, adapter)
	if sent[0].Text != "hello there" {
		t.Errorf("sent[0].Text = %q, want %q", sent[0].Text, "hello there")
	}
}

func TestRuntimeDirectToolUnknownToolStillResponds(t *testing.T) {
	rt, adapter := newTestRuntime(t, ModeDirectTool)
	rt.SetTools(processor.NewRegistry())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := rt.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer rt.Dispose(context.Background())

	adapter.Inject(model.ChannelEvent{
		EventID:      "evt-2",
		Kind:         model.EventKindMessage,
		Conversation: model.ConversationKey{Platform: "mock", Tenant: "acme", Room: "general"},
		Identity:     model.ChannelIdentity{Platform: "mock", ID: "user-1"},
		Timestamp:    time.Now(),
		Text:         "nonexistent-tool arg",
	})

	sent := waitForSend(t, adapter)
	if sent[0].Text == "" {
		t.Error("expected a non-empty error response for an unknown tool")
	}
}

func TestRuntimeCustomModeRequiresProcessor(t *testing.T) {
	rt, adapter := newTestRuntime(t, ModeCustom)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := rt.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer rt.Dispose(context.Background())

	adapter.Inject(model.ChannelEvent{
		EventID:      "evt-3",
		Conversation: model.ConversationKey{Platform: "mock", Tenant: "acme", Room: "general"},
		Identity:     model.ChannelIdentity{Platform: "mock", ID: "user-1"},
		Timestamp:    time.Now(),
		Text:         "hi",
	})

	select {
	case rerr := <-rt.Errors():
		if gwerr.CodeOf(rerr.Err) != gwerr.CodeInvalidRequest {
			t.Errorf("error code = %v, want %v", gwerr.CodeOf(rerr.Err), gwerr.CodeInvalidRequest)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for pipeline error")
	}
}

func TestRegisterChannelRejectedAfterStart(t *testing.T) {
	rt, _ := newTestRuntime(t, ModeDirectTool)
	rt.SetTools(processor.NewRegistry())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := rt.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer rt.Dispose(context.Background())

	other := mock.New("other", channel.SlackCapabilities())
	err := rt.RegisterChannel(other, policy.New(policy.PresetSlack()))
	if err == nil {
		t.Fatal("expected RegisterChannel to fail once the runtime is running")
	}
}
