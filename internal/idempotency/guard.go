package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/capitalize-ai/channelgw/internal/gwerr"
	"github.com/capitalize-ai/channelgw/internal/model"
	"github.com/capitalize-ai/channelgw/pkg/logger"
)

// Config configures a Guard. Defaults match §6's recognized options.
type Config struct {
	RecordTTL       time.Duration
	LockTimeout     time.Duration
	RetryFailed     bool
	CleanupInterval time.Duration
}

// DefaultConfig returns the spec's documented defaults.
func DefaultConfig() Config {
	return Config{
		RecordTTL:       24 * time.Hour,
		LockTimeout:     5 * time.Minute,
		RetryFailed:     false,
		CleanupInterval: time.Hour,
	}
}

// Guard is the exactly-once wrapper over a processor, per §4.7.
type Guard struct {
	store      Store
	cfg        Config
	instanceID string
	log        *logger.Logger

	stop chan struct{}
	done chan struct{}
}

// New constructs a Guard with a freshly generated instance ID, the only
// identity ever used as a lock holder.
func New(store Store, cfg Config, log *logger.Logger) *Guard {
	return &Guard{
		store:      store,
		cfg:        cfg,
		instanceID: uuid.NewString(),
		log:        log,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// InstanceID returns this guard's lock-holder identity.
func (g *Guard) InstanceID() string { return g.instanceID }

// StartCleanup launches the periodic store cleanup task. Call Stop to halt it.
func (g *Guard) StartCleanup(ctx context.Context) {
	go func() {
		defer close(g.done)
		ticker := time.NewTicker(g.cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-g.stop:
				return
			case <-ticker.C:
				if n, err := g.store.Cleanup(ctx); err != nil {
					g.log.Warn("idempotency cleanup failed", "error", err)
				} else if n > 0 {
					g.log.Debug("idempotency cleanup removed expired records", "count", n)
				}
			}
		}
	}()
}

// Stop halts the cleanup task and waits for it to exit.
func (g *Guard) Stop() {
	close(g.stop)
	<-g.done
}

// Inspect returns the raw idempotency record for an event ID, for
// read-only admin inspection. It does not participate in the
// acquire/complete protocol.
func (g *Guard) Inspect(ctx context.Context, eventID string) (*model.IdempotencyRecord, bool, error) {
	return g.store.Get(ctx, eventID)
}

// Process is the single entry point: at most one fn() invocation for a
// given event.EventID, across all instances sharing this store, reaches
// the "normal return -> complete" transition.
func (g *Guard) Process(ctx context.Context, event model.ChannelEvent, fn func(ctx context.Context) (model.IdempotencyResult, error)) (result model.IdempotencyResult, err error) {
	existing, found, gerr := g.store.Get(ctx, event.EventID)
	if gerr != nil {
		return model.IdempotencyResult{}, gerr
	}

	if found {
		switch existing.Status {
		case model.StatusCompleted:
			if existing.Result != nil {
				return *existing.Result, nil
			}
			return model.IdempotencyResult{Success: true}, nil
		case model.StatusFailed:
			if !g.cfg.RetryFailed {
				msg := ""
				if existing.Result != nil {
					msg = existing.Result.Error
				}
				return model.IdempotencyResult{Success: false, Error: msg}, nil
			}
			// fall through to re-acquisition
		case model.StatusProcessing:
			if existing.LockValid(time.Now()) {
				return model.IdempotencyResult{Success: false, Error: "already being processed by another instance"},
					gwerr.New(gwerr.CodeAlreadyProcessing, "already being processed by another instance")
			}
			// expired lock: fall through to re-acquisition
		}
	}

	acquired, aerr := g.store.TryAcquire(ctx, event.EventID, g.instanceID, g.cfg.LockTimeout, g.cfg.RecordTTL)
	if aerr != nil {
		return model.IdempotencyResult{}, aerr
	}
	if !acquired {
		return model.IdempotencyResult{Success: false, Error: "lock acquisition failed"},
			gwerr.New(gwerr.CodeAlreadyProcessing, "lock acquisition failed")
	}

	return g.invoke(ctx, event, fn)
}

// invoke runs fn, converting panics into a failed record at exactly this
// one level, per the design notes.
func (g *Guard) invoke(ctx context.Context, event model.ChannelEvent, fn func(ctx context.Context) (model.IdempotencyResult, error)) (result model.IdempotencyResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("panic: %v", r)
			if cerr := g.store.Fail(ctx, event.EventID, msg); cerr != nil {
				g.log.Error("failed to record panic failure", "error", cerr)
			}
			result = model.IdempotencyResult{Success: false, Error: msg}
			err = gwerr.New(gwerr.CodeUnknown, msg)
		}
	}()

	result, err = fn(ctx)
	if err != nil {
		if ferr := g.store.Fail(ctx, event.EventID, err.Error()); ferr != nil {
			g.log.Error("failed to record processing failure", "error", ferr)
		}
		return model.IdempotencyResult{Success: false, Error: err.Error()}, err
	}

	if cerr := g.store.Complete(ctx, event.EventID, result); cerr != nil {
		g.log.Error("failed to record completion", "error", cerr)
	}
	return result, nil
}
