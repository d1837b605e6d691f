package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/capitalize-ai/channelgw/internal/model"
	"github.com/capitalize-ai/channelgw/pkg/logger"
)

// Config configures a Manager.
type Config struct {
	DefaultTimeout  time.Duration
	MaxHistorySize  int
	CleanupInterval time.Duration
	Persistent      bool
}

// DefaultConfig returns the spec's documented defaults.
func DefaultConfig() Config {
	return Config{
		DefaultTimeout:  24 * time.Hour,
		MaxHistorySize:  100,
		CleanupInterval: 15 * time.Minute,
		Persistent:      false,
	}
}

// Manager owns all mutation of Session values: it reads the current
// value from the store, derives an updated value (copy-on-write), and
// writes it back. No shared mutable session state escapes the manager.
type Manager struct {
	store Store
	cfg   Config
	log   *logger.Logger

	stop chan struct{}
	done chan struct{}
}

// NewManager constructs a Manager over store.
func NewManager(store Store, cfg Config, log *logger.Logger) *Manager {
	return &Manager{store: store, cfg: cfg, log: log, stop: make(chan struct{}), done: make(chan struct{})}
}

// GetOrCreateSession returns the active session for event's conversation,
// creating one if none exists or the existing one has expired/closed.
func (m *Manager) GetOrCreateSession(ctx context.Context, event model.ChannelEvent) (*model.Session, error) {
	existing, found, err := m.store.GetByConversation(ctx, event.Conversation)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if found && existing.State != model.SessionClosed && existing.State != model.SessionExpired {
		if existing.ExpiresAt == nil || now.Before(*existing.ExpiresAt) {
			return existing, nil
		}
	}

	sess := &model.Session{
		ID:           uuid.NewString(),
		Conversation: event.Conversation,
		Principal: model.Principal{
			Identity:        event.Identity,
			TenantID:        event.Conversation.Tenant,
			AuthenticatedAt: now,
		},
		State:          model.SessionActive,
		CreatedAt:      now,
		LastActivityAt: now,
		Context:        map[string]any{},
	}
	expires := now.Add(m.cfg.DefaultTimeout)
	sess.ExpiresAt = &expires

	if err := m.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// GetSession returns the session by id, or (nil, false) if unknown.
func (m *Manager) GetSession(ctx context.Context, id string) (*model.Session, bool, error) {
	return m.store.Get(ctx, id)
}

// GetSessionByConversation returns the session indexed by conversation key.
func (m *Manager) GetSessionByConversation(ctx context.Context, key model.ConversationKey) (*model.Session, bool, error) {
	return m.store.GetByConversation(ctx, key)
}

// CreateSession creates a fresh session explicitly (used by adapters that
// pre-provision sessions, e.g. on join events).
func (m *Manager) CreateSession(ctx context.Context, conv model.ConversationKey, principal model.Principal) (*model.Session, error) {
	now := time.Now()
	sess := &model.Session{
		ID:             uuid.NewString(),
		Conversation:   conv,
		Principal:      principal,
		State:          model.SessionActive,
		CreatedAt:      now,
		LastActivityAt: now,
		Context:        map[string]any{},
	}
	expires := now.Add(m.cfg.DefaultTimeout)
	sess.ExpiresAt = &expires
	if err := m.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// mutate loads id, applies fn to a clone, persists the result. fn returns
// an error to abort without writing.
func (m *Manager) mutate(ctx context.Context, id string, fn func(*model.Session) error) (*model.Session, error) {
	sess, found, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errSessionNotFound(id)
	}

	if err := fn(sess); err != nil {
		return nil, err
	}
	sess.LastActivityAt = time.Now()

	if err := m.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// AddMessage appends msg to history, trimming to MaxHistorySize (FIFO
// eviction of the oldest entries) so the invariant "oldest-first" holds.
func (m *Manager) AddMessage(ctx context.Context, id string, msg model.SessionMessage) (*model.Session, error) {
	return m.mutate(ctx, id, func(s *model.Session) error {
		s.History = append(s.History, msg)
		if m.cfg.MaxHistorySize > 0 && len(s.History) > m.cfg.MaxHistorySize {
			excess := len(s.History) - m.cfg.MaxHistorySize
			s.History = append([]model.SessionMessage{}, s.History[excess:]...)
		}
		return nil
	})
}

// UpdateContext merges updates into the session's context map.
func (m *Manager) UpdateContext(ctx context.Context, id string, updates map[string]any) (*model.Session, error) {
	return m.mutate(ctx, id, func(s *model.Session) error {
		if s.Context == nil {
			s.Context = map[string]any{}
		}
		for k, v := range updates {
			s.Context[k] = v
		}
		return nil
	})
}

// SetContextValue sets a single context key.
func (m *Manager) SetContextValue(ctx context.Context, id, key string, value any) (*model.Session, error) {
	return m.UpdateContext(ctx, id, map[string]any{key: value})
}

// RemoveContextValue deletes a single context key.
func (m *Manager) RemoveContextValue(ctx context.Context, id, key string) (*model.Session, error) {
	return m.mutate(ctx, id, func(s *model.Session) error {
		delete(s.Context, key)
		return nil
	})
}

// ClearContext empties the session's context map.
func (m *Manager) ClearContext(ctx context.Context, id string) (*model.Session, error) {
	return m.mutate(ctx, id, func(s *model.Session) error {
		s.Context = map[string]any{}
		return nil
	})
}

// Touch refreshes LastActivityAt and extends ExpiresAt by DefaultTimeout.
func (m *Manager) Touch(ctx context.Context, id string) (*model.Session, error) {
	return m.mutate(ctx, id, func(s *model.Session) error {
		expires := time.Now().Add(m.cfg.DefaultTimeout)
		s.ExpiresAt = &expires
		return nil
	})
}

// Pause transitions an active session to paused.
func (m *Manager) Pause(ctx context.Context, id string) (*model.Session, error) {
	return m.mutate(ctx, id, func(s *model.Session) error {
		if s.State == model.SessionActive {
			s.State = model.SessionPaused
		}
		return nil
	})
}

// Resume transitions a paused session back to active.
func (m *Manager) Resume(ctx context.Context, id string) (*model.Session, error) {
	return m.mutate(ctx, id, func(s *model.Session) error {
		if s.State == model.SessionPaused {
			s.State = model.SessionActive
		}
		return nil
	})
}

// Close transitions a session to closed. closed is terminal: no store
// operation ever moves a session back to active from closed or expired.
func (m *Manager) Close(ctx context.Context, id string) (*model.Session, error) {
	return m.mutate(ctx, id, func(s *model.Session) error {
		s.State = model.SessionClosed
		return nil
	})
}

// Delete removes a session entirely.
func (m *Manager) Delete(ctx context.Context, id string) error {
	_, found, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return errSessionNotFound(id)
	}
	return m.store.Delete(ctx, id)
}

// List returns a page of sessions, optionally filtered by state.
func (m *Manager) List(ctx context.Context, offset, limit int, state *model.SessionState) ([]model.Session, int, error) {
	return m.store.List(ctx, offset, limit, state)
}

// StartCleanup launches the periodic expired-session sweep.
func (m *Manager) StartCleanup(ctx context.Context) {
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stop:
				return
			case <-ticker.C:
				if n, err := m.store.CleanupExpired(ctx); err != nil {
					m.log.Warn("session cleanup failed", "error", err)
				} else if n > 0 {
					m.log.Debug("session cleanup removed expired sessions", "count", n)
				}
			}
		}
	}()
}

// StopCleanup halts the cleanup task and waits for it to exit.
func (m *Manager) StopCleanup() {
	close(m.stop)
	<-m.done
}
