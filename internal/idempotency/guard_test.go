package idempotency

import (
	"context"
	"errors"
	"testing"

	"github.com/capitalize-ai/channelgw/internal/model"
	"github.com/capitalize-ai/channelgw/pkg/logger"
)

func newTestGuard(t *testing.T) *Guard {
	t.Helper()
	log, err := logger.NewDevelopment()
	if err != nil {
		t.Fatalf("logger.NewDevelopment: %v", err)
	}
	return New(NewMemoryStore(), DefaultConfig(), log)
}

func TestGuardProcessRunsOnce(t *testing.T) {
	g := newTestGuard(t)
	ctx := context.Background()
	event := model.ChannelEvent{EventID: "evt-1"}

	calls := 0
	fn := func(ctx context.Context) (model.IdempotencyResult, error) {
		calls++
		return model.IdempotencyResult{Success: true}, nil
	}

	if _, err := g.Process(ctx, event, fn); err != nil {
		t.Fatalf("first Process: %v", err)
	}
	if _, err := g.Process(ctx, event, fn); err != nil {
		t.Fatalf("second Process: %v", err)
	}

	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestGuardProcessReplaysCompletedResponse(t *testing.T) {
	g := newTestGuard(t)
	ctx := context.Background()
	event := model.ChannelEvent{EventID: "evt-2"}
	resp := &model.ChannelResponse{Text: "hello"}

	_, err := g.Process(ctx, event, func(ctx context.Context) (model.IdempotencyResult, error) {
		return model.IdempotencyResult{Success: true, Response: resp}, nil
	})
	if err != nil {
		t.Fatalf("first Process: %v", err)
	}

	result, err := g.Process(ctx, event, func(ctx context.Context) (model.IdempotencyResult, error) {
		t.Fatal("fn should not run on replay")
		return model.IdempotencyResult{}, nil
	})
	if err != nil {
		t.Fatalf("replay Process: %v", err)
	}
	if result.Response == nil || result.Response.Text != "hello" {
		t.Errorf("replayed result.Response = %+v, want Text=hello", result.Response)
	}
}

func TestGuardProcessRecordsFailure(t *testing.T) {
	g := newTestGuard(t)
	ctx := context.Background()
	event := model.ChannelEvent{EventID: "evt-3"}
	wantErr := errors.New("boom")

	_, err := g.Process(ctx, event, func(ctx context.Context) (model.IdempotencyResult, error) {
		return model.IdempotencyResult{}, wantErr
	})
	if err == nil {
		t.Fatal("expected error from failing fn")
	}

	result, err := g.Process(ctx, event, func(ctx context.Context) (model.IdempotencyResult, error) {
		t.Fatal("fn should not run once failed and RetryFailed is false")
		return model.IdempotencyResult{}, nil
	})
	if err != nil {
		t.Fatalf("second Process: %v", err)
	}
	if result.Success {
		t.Error("result.Success = true, want false for a failed record")
	}
}

func TestGuardInspect(t *testing.T) {
	g := newTestGuard(t)
	ctx := context.Background()
	event := model.ChannelEvent{EventID: "evt-4"}

	if _, found, err := g.Inspect(ctx, event.EventID); err != nil || found {
		t.Fatalf("Inspect before processing: found=%v err=%v, want found=false", found, err)
	}

	if _, err := g.Process(ctx, event, func(ctx context.Context) (model.IdempotencyResult, error) {
		return model.IdempotencyResult{Success: true}, nil
	}); err != nil {
		t.Fatalf("Process: %v", err)
	}

	record, found, err := g.Inspect(ctx, event.EventID)
	if err != nil {
		t.Fatalf("Inspect after processing: %v", err)
	}
	if !found {
		t.Fatal("Inspect after processing: record not found")
	}
	if record.Status != model.StatusCompleted {
		t.Errorf("record.Status = %v, want %v", record.Status, model.StatusCompleted)
	}
}
