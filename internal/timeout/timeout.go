// Package timeout implements the four named wall-clock deadline classes
// from §4.4. Deadlines and cancellation propagation are native to
// context.Context; no third-party library in the example corpus offers a
// better primitive for this, so this wraps the standard library directly.
package timeout

import (
	"context"
	"time"

	"github.com/capitalize-ai/channelgw/internal/gwerr"
)

// Class names a timeout scope.
type Class string

const (
	ClassConnection Class = "connection"
	ClassRequest    Class = "request"
	ClassOperation  Class = "operation"
	ClassIdle       Class = "idle"
)

// Config maps each class to its bound.
type Config struct {
	Connection time.Duration
	Request    time.Duration
	Operation  time.Duration
	Idle       time.Duration
}

func (c Config) duration(class Class) time.Duration {
	switch class {
	case ClassConnection:
		return c.Connection
	case ClassRequest:
		return c.Request
	case ClassOperation:
		return c.Operation
	case ClassIdle:
		return c.Idle
	default:
		return 0
	}
}

// Executor bounds the wall-clock duration of an operation per class.
type Executor struct {
	cfg Config
}

// New constructs an Executor.
func New(cfg Config) *Executor {
	return &Executor{cfg: cfg}
}

// Run executes op under a deadline for class. If op does not return
// before the deadline, Run returns a CodeTimeout *gwerr.Error and op's
// context is cancelled (the caller must observe ctx.Done()).
func (e *Executor) Run(ctx context.Context, class Class, op func(ctx context.Context) error) error {
	return e.RunWithDuration(ctx, class, e.cfg.duration(class), op)
}

// RunWithDuration is like Run but with an explicit override duration,
// used by the policy executor's executeWithTimeout variant.
func (e *Executor) RunWithDuration(ctx context.Context, class Class, d time.Duration, op func(ctx context.Context) error) error {
	if d <= 0 {
		return op(ctx)
	}

	runCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(runCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-runCtx.Done():
		if ctx.Err() != nil {
			return gwerr.Wrap(gwerr.CodeCancelled, ctx.Err())
		}
		return gwerr.New(gwerr.CodeTimeout, string(class)+" timeout after "+d.String())
	}
}
