// Package retry implements the bounded-retry executor from §4.2: a fixed
// number of attempts, a pluggable backoff strategy with uniform jitter,
// an optional total-duration budget, and a retryability classifier. It
// drives github.com/cenkalti/backoff/v4 with an adapter that reports our
// own Strategy instead of backoff's built-in curves, so the exact
// exponential/linear/fixed formulas in §4.2 are preserved while reusing
// the library's retry-loop plumbing (context cancellation, permanent-error
// short-circuit, max-retries bound).
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/capitalize-ai/channelgw/internal/gwerr"
)

// Classifier decides whether an error should be retried. The executor
// first consults RetryableCodes (if non-empty), then falls back to the
// classifier, then to gwerr.IsRetryable.
type Classifier func(err error) bool

// Config configures an Executor.
type Config struct {
	MaxAttempts     int
	Strategy        Strategy
	Jitter          float64
	RetryableCodes  map[gwerr.Code]bool
	MaxTotalDuration time.Duration // 0 = unbounded
	Classify        Classifier    // optional override/supplement
}

// Executor runs operations with bounded retry per Config.
type Executor struct {
	cfg Config
}

// New constructs an Executor. MaxAttempts < 1 is treated as 1 (no retry).
func New(cfg Config) *Executor {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Executor{cfg: cfg}
}

// backoffAdapter reports our Strategy's durations through backoff.BackOff.
type backoffAdapter struct {
	strategy Strategy
	jitter   float64
	attempt  int
}

func (a *backoffAdapter) NextBackOff() time.Duration {
	d := applyJitter(a.strategy.Duration(a.attempt), a.jitter)
	a.attempt++
	return d
}

func (a *backoffAdapter) Reset() { a.attempt = 0 }

// Execute runs op, retrying on retryable failures per Config. Non-retryable
// errors propagate unchanged (without additional wrapping).
func (e *Executor) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	retryCtx := ctx
	var cancel context.CancelFunc
	if e.cfg.MaxTotalDuration > 0 {
		retryCtx, cancel = context.WithTimeout(ctx, e.cfg.MaxTotalDuration)
		defer cancel()
	}

	adapter := &backoffAdapter{strategy: e.cfg.Strategy, jitter: e.cfg.Jitter}
	var bo backoff.BackOff = adapter
	if e.cfg.MaxAttempts > 1 {
		bo = backoff.WithMaxRetries(adapter, uint64(e.cfg.MaxAttempts-1))
	} else {
		// No retries permitted: fail fast after the first attempt.
		bo = backoff.WithMaxRetries(adapter, 0)
	}
	bo = backoff.WithContext(bo, retryCtx)

	operation := func() error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !e.retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	err := backoff.Retry(operation, bo)
	if err == nil {
		return nil
	}

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Err
	}

	if errors.Is(err, context.DeadlineExceeded) && retryCtx.Err() != nil && ctx.Err() == nil {
		return gwerr.New(gwerr.CodeTimeout, "retry budget exhausted")
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return gwerr.Wrap(gwerr.CodeCancelled, err)
	}

	return err
}

func (e *Executor) retryable(err error) bool {
	code := gwerr.CodeOf(err)
	if e.cfg.RetryableCodes != nil {
		if ok, known := e.cfg.RetryableCodes[code]; known {
			return ok
		}
	}
	if e.cfg.Classify != nil {
		return e.cfg.Classify(err)
	}
	return gwerr.IsRetryable(err)
}
