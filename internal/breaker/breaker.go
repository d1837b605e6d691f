// Package breaker implements the three-state circuit breaker from §4.3.
// No circuit-breaker library appears anywhere in the retrieved example
// corpus, so this is hand-rolled, guarded by a mutex in the same style as
// the token bucket and the teacher's in-memory service maps.
package breaker

import (
	"sync"
	"time"

	"github.com/capitalize-ai/channelgw/internal/gwerr"
)

// State is one of the three circuit-breaker states.
type State string

const (
	Closed   State = "closed"
	Open     State = "open"
	HalfOpen State = "half_open"
)

// Config configures a Breaker.
type Config struct {
	FailureThreshold int
	FailureWindow    time.Duration
	RecoveryTimeout  time.Duration
	SuccessThreshold int
	// TriggerErrors restricts which error codes count as a failure. Empty
	// means use the §7 default {network_error, timeout, server_error}.
	TriggerErrors map[gwerr.Code]bool
}

func defaultTriggerErrors() map[gwerr.Code]bool {
	return map[gwerr.Code]bool{
		gwerr.CodeNetworkError: true,
		gwerr.CodeTimeout:      true,
		gwerr.CodeServerError:  true,
	}
}

// failureEntry timestamps one triggering failure, for rolling-window counting.
type failureEntry struct{ at time.Time }

// Breaker is a single circuit breaker instance. Safe for concurrent use.
type Breaker struct {
	cfg Config

	mu              sync.Mutex
	state           State
	failures        []failureEntry
	successCount    int
	lastFailureTime time.Time
	openedAt        time.Time
}

// New constructs a closed Breaker.
func New(cfg Config) *Breaker {
	if cfg.TriggerErrors == nil {
		cfg.TriggerErrors = defaultTriggerErrors()
	}
	return &Breaker{cfg: cfg, state: Closed}
}

// State returns the breaker's current state as of now, lazily advancing
// open->halfOpen if the recovery timeout has elapsed.
func (b *Breaker) State(now time.Time) State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance(now)
	return b.state
}

// advance performs the lazy open->halfOpen transition. Caller holds mu.
func (b *Breaker) advance(now time.Time) {
	if b.state == Open && now.Sub(b.openedAt) >= b.cfg.RecoveryTimeout {
		b.state = HalfOpen
		b.successCount = 0
	}
}

// Allow reports whether a call may proceed. open (before recovery)
// rejects with CodeCircuitOpen; closed and halfOpen admit.
func (b *Breaker) Allow(now time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance(now)
	if b.state == Open {
		return gwerr.New(gwerr.CodeCircuitOpen, "circuit breaker open")
	}
	return nil
}

// RecordSuccess reports a successful call.
func (b *Breaker) RecordSuccess(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance(now)

	switch b.state {
	case Closed:
		b.failures = nil
	case HalfOpen:
		b.successCount++
		if b.successCount >= b.cfg.SuccessThreshold {
			b.state = Closed
			b.failures = nil
			b.successCount = 0
		}
	}
}

// RecordFailure reports a failed call with the given error. Only errors
// whose code is in TriggerErrors contribute to the failure count.
func (b *Breaker) RecordFailure(now time.Time, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance(now)

	code := gwerr.CodeOf(err)
	if !b.cfg.TriggerErrors[code] {
		return
	}

	b.lastFailureTime = now

	switch b.state {
	case HalfOpen:
		b.trip(now)
		return
	case Open:
		return
	}

	b.failures = append(b.failures, failureEntry{at: now})
	b.pruneWindow(now)
	if len(b.failures) >= b.cfg.FailureThreshold {
		b.trip(now)
	}
}

func (b *Breaker) pruneWindow(now time.Time) {
	cutoff := now.Add(-b.cfg.FailureWindow)
	kept := b.failures[:0]
	for _, f := range b.failures {
		if f.at.After(cutoff) {
			kept = append(kept, f)
		}
	}
	b.failures = kept
}

func (b *Breaker) trip(now time.Time) {
	b.state = Open
	b.openedAt = now
	b.successCount = 0
	b.failures = nil
}

// Open forces the breaker open (manual override).
func (b *Breaker) Open(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trip(now)
}

// Close forces the breaker closed (manual override).
func (b *Breaker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.failures = nil
	b.successCount = 0
}

// Reset restores the breaker to its initial closed state.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.failures = nil
	b.successCount = 0
	b.openedAt = time.Time{}
	b.lastFailureTime = time.Time{}
}
