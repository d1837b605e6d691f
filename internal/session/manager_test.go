package session

import (
	"context"
	"testing"

	"github.com/capitalize-ai/channelgw/internal/model"
	"github.com/capitalize-ai/channelgw/pkg/logger"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	log, err := logger.NewDevelopment()
	if err != nil {
		t.Fatalf("logger.NewDevelopment: %v", err)
	}
	return NewManager(NewMemoryStore(), DefaultConfig(), log)
}

func testConversation() model.ConversationKey {
	return model.ConversationKey{Platform: "mock", Tenant: "acme", Room: "general"}
}

func TestGetOrCreateSessionCreatesThenReuses(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	event := model.ChannelEvent{Conversation: testConversation(), Identity: model.ChannelIdentity{ID: "user-1"}}

	first, err := m.GetOrCreateSession(ctx, event)
	if err != nil {
		t.Fatalf("GetOrCreateSession: %v", err)
	}
	if first.State != model.SessionActive {
		t.Errorf("State = %v, want %v", first.State, model.SessionActive)
	}

	second, err := m.GetOrCreateSession(ctx, event)
	if err != nil {
		t.Fatalf("GetOrCreateSession (reuse): %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second.ID = %q, want reused %q", second.ID, first.ID)
	}
}

func TestAddMessageTrimsHistory(t *testing.T) {
	log, err := logger.NewDevelopment()
	if err != nil {
		t.Fatalf("logger.NewDevelopment: %v", err)
	}
	cfg := DefaultConfig()
	cfg.MaxHistorySize = 2
	m := NewManager(NewMemoryStore(), cfg, log)
	ctx := context.Background()

	sess, err := m.GetOrCreateSession(ctx, model.ChannelEvent{Conversation: testConversation()})
	if err != nil {
		t.Fatalf("GetOrCreateSession: %v", err)
	}

	for i, text := range []string{"one", "two", "three"} {
		sess, err = m.AddMessage(ctx, sess.ID, model.SessionMessage{Content: text})
		if err != nil {
			t.Fatalf("AddMessage %d: %v", i, err)
		}
	}

	if len(sess.History) != 2 {
		t.Fatalf("len(History) = %d, want 2", len(sess.History))
	}
	if sess.History[0].Content != "two" || sess.History[1].Content != "three" {
		t.Errorf("History = %+v, want [two three] (oldest evicted)", sess.History)
	}
}

func TestPauseResumeClose(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	sess, err := m.GetOrCreateSession(ctx, model.ChannelEvent{Conversation: testConversation()})
	if err != nil {
		t.Fatalf("GetOrCreateSession: %v", err)
	}

	sess, err = m.Pause(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if sess.State != model.SessionPaused {
		t.Fatalf("State = %v, want %v", sess.State, model.SessionPaused)
	}

	sess, err = m.Resume(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if sess.State != model.SessionActive {
		t.Fatalf("State = %v, want %v", sess.State, model.SessionActive)
	}

	sess, err = m.Close(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if sess.State != model.SessionClosed {
		t.Fatalf("State = %v, want %v", sess.State, model.SessionClosed)
	}

	// Closing is terminal: a subsequent GetOrCreateSession for the same
	// conversation must mint a new session rather than reusing this one.
	fresh, err := m.GetOrCreateSession(ctx, model.ChannelEvent{Conversation: testConversation()})
	if err != nil {
		t.Fatalf("GetOrCreateSession after close: %v", err)
	}
	if fresh.ID == sess.ID {
		t.Error("GetOrCreateSession reused a closed session")
	}
}

func TestContextMutation(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	sess, err := m.GetOrCreateSession(ctx, model.ChannelEvent{Conversation: testConversation()})
	if err != nil {
		t.Fatalf("GetOrCreateSession: %v", err)
	}

	sess, err = m.SetContextValue(ctx, sess.ID, "key", "value")
	if err != nil {
		t.Fatalf("SetContextValue: %v", err)
	}
	if sess.Context["key"] != "value" {
		t.Fatalf("Context[key] = %v, want value", sess.Context["key"])
	}

	sess, err = m.RemoveContextValue(ctx, sess.ID, "key")
	if err != nil {
		t.Fatalf("RemoveContextValue: %v", err)
	}
	if _, ok := sess.Context["key"]; ok {
		t.Error("Context[key] still present after RemoveContextValue")
	}
}

func TestDeleteUnknownSessionErrors(t *testing.T) {
	m := newTestManager(t)
	if err := m.Delete(context.Background(), "does-not-exist"); err == nil {
		t.Fatal("expected an error deleting an unknown session")
	}
}

func TestListFiltersByState(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	a, err := m.CreateSession(ctx, model.ConversationKey{Platform: "mock", Tenant: "acme", Room: "a"}, model.Principal{})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := m.CreateSession(ctx, model.ConversationKey{Platform: "mock", Tenant: "acme", Room: "b"}, model.Principal{}); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := m.Close(ctx, a.ID); err != nil {
		t.Fatalf("Close: %v", err)
	}

	closed := model.SessionClosed
	sessions, total, err := m.List(ctx, 0, 10, &closed)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(sessions) != 1 {
		t.Fatalf("List returned %d/%d sessions, want 1/1 closed", len(sessions), total)
	}
	if sessions[0].ID != a.ID {
		t.Errorf("List[0].ID = %q, want %q", sessions[0].ID, a.ID)
	}
}
