package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/capitalize-ai/channelgw/internal/gwerr"
)

func TestLimiterRejectsOverGlobalCapacity(t *testing.T) {
	l := New(Config{Global: ScopeConfig{Capacity: 1, Window: time.Minute}, Action: ActionReject}, time.Now())
	ctx := context.Background()

	if err := l.Acquire(ctx, "", ""); err != nil {
		t.Fatalf("first Acquire: %v", err)
	}

	err := l.Acquire(ctx, "", "")
	if err == nil {
		t.Fatal("expected the second Acquire to be rejected")
	}
	if gwerr.CodeOf(err) != gwerr.CodeRateLimited {
		t.Errorf("CodeOf(err) = %v, want %v", gwerr.CodeOf(err), gwerr.CodeRateLimited)
	}
}

func TestLimiterPerConversationScopeIsolatesKeys(t *testing.T) {
	l := New(Config{
		Global:       ScopeConfig{Capacity: 100, Window: time.Minute},
		Conversation: &ScopeConfig{Capacity: 1, Window: time.Minute},
		Action:       ActionReject,
	}, time.Now())
	ctx := context.Background()

	if err := l.Acquire(ctx, "conv-a", ""); err != nil {
		t.Fatalf("Acquire conv-a: %v", err)
	}
	if err := l.Acquire(ctx, "conv-a", ""); err == nil {
		t.Fatal("expected conv-a's second Acquire to be rejected")
	}
	if err := l.Acquire(ctx, "conv-b", ""); err != nil {
		t.Fatalf("Acquire conv-b should not be affected by conv-a: %v", err)
	}
}

func TestLimiterReset(t *testing.T) {
	l := New(Config{Global: ScopeConfig{Capacity: 1, Window: time.Minute}, Action: ActionReject}, time.Now())
	ctx := context.Background()

	if err := l.Acquire(ctx, "", ""); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := l.Acquire(ctx, "", ""); err == nil {
		t.Fatal("expected denial before Reset")
	}

	l.Reset(time.Now())
	if err := l.Acquire(ctx, "", ""); err != nil {
		t.Fatalf("Acquire after Reset: %v", err)
	}
}
