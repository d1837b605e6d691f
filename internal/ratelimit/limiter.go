package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/capitalize-ai/channelgw/internal/gwerr"
	"github.com/capitalize-ai/channelgw/pkg/metrics"
)

// Action controls what the limiter does when admission is denied.
type Action string

const (
	ActionDelay  Action = "delay"
	ActionReject Action = "reject"
	ActionQueue  Action = "queue"
)

// ScopeConfig configures one bucket scope.
type ScopeConfig struct {
	Capacity int
	Burst    int
	Window   time.Duration
}

// Config configures the composed limiter.
type Config struct {
	Global       ScopeConfig
	Conversation *ScopeConfig // nil disables the per-conversation scope
	User         *ScopeConfig // nil disables the per-user scope
	Action       Action
}

// Limiter composes global -> per-conversation -> per-user token buckets.
// Denial short-circuits at the first failing scope. Safe for concurrent use.
type Limiter struct {
	cfg Config

	global *Bucket

	mu           sync.Mutex
	convBuckets  map[string]*Bucket
	userBuckets  map[string]*Bucket
}

// New constructs a Limiter. now is the construction time, used to seed
// the global bucket full.
func New(cfg Config, now time.Time) *Limiter {
	if cfg.Action == "" {
		cfg.Action = ActionReject
	}
	return &Limiter{
		cfg:         cfg,
		global:      NewBucket(cfg.Global.Capacity, cfg.Global.Burst, cfg.Global.Window, now),
		convBuckets: make(map[string]*Bucket),
		userBuckets: make(map[string]*Bucket),
	}
}

func (l *Limiter) bucketFor(m map[string]*Bucket, key string, sc ScopeConfig, now time.Time) *Bucket {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := m[key]
	if !ok {
		b = NewBucket(sc.Capacity, sc.Burst, sc.Window, now)
		m[key] = b
	}
	return b
}

// Acquire admits a request scoped to conversationKey/userKey (either may
// be empty to skip that scope). Depending on cfg.Action:
//   - delay: blocks (respecting ctx) until admitted, then returns nil.
//   - reject: returns a CodeRateLimited *gwerr.Error immediately on denial.
//   - queue: returns a CodeRateLimited *gwerr.Error immediately on denial;
//     the RetryAfter hint signals the queuing delay. Durable queuing
//     itself is the caller's responsibility (§4.1).
func (l *Limiter) Acquire(ctx context.Context, conversationKey, userKey string) error {
	for {
		ok, retryAfter, scope := l.tryAll(conversationKey, userKey, time.Now())
		if ok {
			return nil
		}

		metrics.RateLimitDenied.WithLabelValues(scope).Inc()

		if l.cfg.Action != ActionDelay {
			return gwerr.New(gwerr.CodeRateLimited, "rate limit exceeded at "+scope+" scope").WithRetryAfter(retryAfter)
		}

		timer := time.NewTimer(retryAfter)
		select {
		case <-ctx.Done():
			timer.Stop()
			return gwerr.Wrap(gwerr.CodeCancelled, ctx.Err())
		case <-timer.C:
		}
	}
}

// tryAll attempts all configured scopes in order, returning the first
// scope that denies (for metrics/diagnostics).
func (l *Limiter) tryAll(conversationKey, userKey string, now time.Time) (bool, time.Duration, string) {
	if ok, ra := l.global.TryConsume(now); !ok {
		return false, ra, "global"
	}

	if l.cfg.Conversation != nil && conversationKey != "" {
		b := l.bucketFor(l.convBuckets, conversationKey, *l.cfg.Conversation, now)
		if ok, ra := b.TryConsume(now); !ok {
			return false, ra, "conversation"
		}
	}

	if l.cfg.User != nil && userKey != "" {
		b := l.bucketFor(l.userBuckets, userKey, *l.cfg.User, now)
		if ok, ra := b.TryConsume(now); !ok {
			return false, ra, "user"
		}
	}

	return true, 0, ""
}

// Reset clears all per-conversation and per-user buckets and recreates
// the global bucket full. Used by the policy executor's reset().
func (l *Limiter) Reset(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.global = NewBucket(l.cfg.Global.Capacity, l.cfg.Global.Burst, l.cfg.Global.Window, now)
	l.convBuckets = make(map[string]*Bucket)
	l.userBuckets = make(map[string]*Bucket)
}
