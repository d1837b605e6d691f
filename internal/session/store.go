// Package session implements the per-conversation session store and
// manager from §4.8.
package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/capitalize-ai/channelgw/internal/gwerr"
	"github.com/capitalize-ai/channelgw/internal/model"
)

// Store is the contract every backing implementation must satisfy:
// indexed lookup by session ID, by ConversationKey, and by
// (platform, userID).
type Store interface {
	Get(ctx context.Context, id string) (*model.Session, bool, error)
	GetByConversation(ctx context.Context, key model.ConversationKey) (*model.Session, bool, error)
	GetByUser(ctx context.Context, platform, userID string) ([]model.Session, error)
	Put(ctx context.Context, s *model.Session) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int, state *model.SessionState) ([]model.Session, int, error)
	CleanupExpired(ctx context.Context) (int, error)
}

// MemoryStore is the in-memory reference implementation: three mappings
// guarded by one mutex, matching §4.8's store contract.
type MemoryStore struct {
	mu           sync.RWMutex
	byID         map[string]*model.Session
	byConv       map[string]string // ConversationKey.String() -> id
	byUser       map[string][]string // platform/userID -> ids
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]*model.Session),
		byConv: make(map[string]string),
		byUser: make(map[string][]string),
	}
}

func userKey(platform, userID string) string { return platform + "/" + userID }

func (s *MemoryStore) Get(_ context.Context, id string) (*model.Session, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.byID[id]
	if !ok {
		return nil, false, nil
	}
	return sess.Clone(), true, nil
}

func (s *MemoryStore) GetByConversation(_ context.Context, key model.ConversationKey) (*model.Session, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byConv[key.String()]
	if !ok {
		return nil, false, nil
	}
	sess, ok := s.byID[id]
	if !ok {
		return nil, false, nil
	}
	return sess.Clone(), true, nil
}

func (s *MemoryStore) GetByUser(_ context.Context, platform, userID string) ([]model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byUser[userKey(platform, userID)]
	out := make([]model.Session, 0, len(ids))
	for _, id := range ids {
		if sess, ok := s.byID[id]; ok {
			out = append(out, *sess.Clone())
		}
	}
	return out, nil
}

// Put inserts or replaces a session, maintaining the secondary indexes.
func (s *MemoryStore) Put(_ context.Context, sess *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := sess.Clone()
	s.byID[clone.ID] = clone
	s.byConv[clone.Conversation.String()] = clone.ID

	uk := userKey(clone.Principal.Identity.Platform, clone.Principal.Identity.ID)
	ids := s.byUser[uk]
	found := false
	for _, id := range ids {
		if id == clone.ID {
			found = true
			break
		}
	}
	if !found {
		s.byUser[uk] = append(ids, clone.ID)
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byID[id]
	if !ok {
		return nil
	}
	delete(s.byID, id)
	delete(s.byConv, sess.Conversation.String())

	uk := userKey(sess.Principal.Identity.Platform, sess.Principal.Identity.ID)
	ids := s.byUser[uk]
	for i, existing := range ids {
		if existing == id {
			s.byUser[uk] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// List returns sessions sorted by LastActivityAt descending, optionally
// filtered by state, then paginated.
func (s *MemoryStore) List(_ context.Context, offset, limit int, state *model.SessionState) ([]model.Session, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]model.Session, 0, len(s.byID))
	for _, sess := range s.byID {
		if state != nil && sess.State != *state {
			continue
		}
		all = append(all, *sess.Clone())
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].LastActivityAt.After(all[j].LastActivityAt)
	})

	total := len(all)
	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if limit <= 0 || end > total {
		end = total
	}

	return all[start:end], total, nil
}

// CleanupExpired removes every session where isExpired is true.
func (s *MemoryStore) CleanupExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, sess := range s.byID {
		if sess.State != model.SessionExpired && sess.ExpiresAt != nil && now.After(*sess.ExpiresAt) {
			sess.State = model.SessionExpired
		}
		if sess.State == model.SessionExpired {
			delete(s.byID, id)
			delete(s.byConv, sess.Conversation.String())
			uk := userKey(sess.Principal.Identity.Platform, sess.Principal.Identity.ID)
			ids := s.byUser[uk]
			for i, existing := range ids {
				if existing == id {
					s.byUser[uk] = append(ids[:i], ids[i+1:]...)
					break
				}
			}
			removed++
		}
	}
	return removed, nil
}

// errSessionNotFound builds the session_not_found error (carrying the
// specific id) returned by mutators invoked on an unknown session ID.
func errSessionNotFound(id string) error {
	return gwerr.New(gwerr.CodeSessionNotFound, "session not found: "+id)
}
