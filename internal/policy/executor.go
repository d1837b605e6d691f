// Package policy implements the composed policy executor from §4.5:
//
//	operation_timeout ⟶ retry ⟶ rate_limit.acquire ⟶ circuit_breaker.guard(op)
//
// applied uniformly around every outbound operation in the gateway.
package policy

import (
	"context"
	"time"

	"github.com/capitalize-ai/channelgw/internal/breaker"
	"github.com/capitalize-ai/channelgw/internal/ratelimit"
	"github.com/capitalize-ai/channelgw/internal/retry"
	"github.com/capitalize-ai/channelgw/internal/timeout"
)

// Config bundles the four component configs. The rate limiter's
// conversation/user scope is not part of Config: it varies per event
// while the policy itself is shared, so it is passed to each Execute
// call as ScopeKeys.
type Config struct {
	RateLimit ratelimit.Config
	Retry     retry.Config
	Breaker   breaker.Config
	Timeout   timeout.Config
}

// Executor is the canonical C1-C4 composition.
type Executor struct {
	limiter  *ratelimit.Limiter
	retryer  *retry.Executor
	breaker  *breaker.Breaker
	timeouts *timeout.Executor
}

// New constructs an Executor from Config.
func New(cfg Config) *Executor {
	return &Executor{
		limiter:  ratelimit.New(cfg.RateLimit, time.Now()),
		retryer:  retry.New(cfg.Retry),
		breaker:  breaker.New(cfg.Breaker),
		timeouts: timeout.New(cfg.Timeout),
	}
}

// ScopeKeys identifies the per-call rate-limit scoping.
type ScopeKeys struct {
	ConversationKey string
	UserKey         string
}

// Execute runs op through the full composition for one call.
func (e *Executor) Execute(ctx context.Context, scope ScopeKeys, op func(ctx context.Context) error) error {
	return e.timeouts.Run(ctx, timeout.ClassOperation, func(ctx context.Context) error {
		return e.retryer.Execute(ctx, func(ctx context.Context) error {
			if err := e.limiter.Acquire(ctx, scope.ConversationKey, scope.UserKey); err != nil {
				return err
			}
			return e.guarded(ctx, op)
		})
	})
}

// ExecuteWithoutRateLimit skips C1 (rate limiting) but runs timeout,
// retry, and circuit breaker as usual.
func (e *Executor) ExecuteWithoutRateLimit(ctx context.Context, op func(ctx context.Context) error) error {
	return e.timeouts.Run(ctx, timeout.ClassOperation, func(ctx context.Context) error {
		return e.retryer.Execute(ctx, func(ctx context.Context) error {
			return e.guarded(ctx, op)
		})
	})
}

// ExecuteWithTimeout is like Execute but overrides the operation timeout
// class's duration for this call only.
func (e *Executor) ExecuteWithTimeout(ctx context.Context, d time.Duration, scope ScopeKeys, op func(ctx context.Context) error) error {
	return e.timeouts.RunWithDuration(ctx, "operation", d, func(ctx context.Context) error {
		return e.retryer.Execute(ctx, func(ctx context.Context) error {
			if err := e.limiter.Acquire(ctx, scope.ConversationKey, scope.UserKey); err != nil {
				return err
			}
			return e.guarded(ctx, op)
		})
	})
}

// guarded wraps op with the circuit breaker.
func (e *Executor) guarded(ctx context.Context, op func(ctx context.Context) error) error {
	now := time.Now()
	if err := e.breaker.Allow(now); err != nil {
		return err
	}

	err := op(ctx)
	if err != nil {
		e.breaker.RecordFailure(time.Now(), err)
		return err
	}
	e.breaker.RecordSuccess(time.Now())
	return nil
}

// IsCircuitAllowed reports whether the breaker would currently admit a
// call, so callers can fail fast before entering the timeout budget.
func (e *Executor) IsCircuitAllowed() bool {
	return e.breaker.Allow(time.Now()) == nil
}

// Reset clears the limiter's buckets and the breaker; it does not cancel
// in-flight operations.
func (e *Executor) Reset() {
	e.limiter.Reset(time.Now())
	e.breaker.Reset()
}
