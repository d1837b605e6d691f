package policy

import (
	"context"
	"testing"
	"time"

	"github.com/capitalize-ai/channelgw/internal/breaker"
	"github.com/capitalize-ai/channelgw/internal/gwerr"
	"github.com/capitalize-ai/channelgw/internal/ratelimit"
	"github.com/capitalize-ai/channelgw/internal/retry"
	"github.com/capitalize-ai/channelgw/internal/timeout"
)

func testConfig() Config {
	return Config{
		RateLimit: ratelimit.Config{Global: ratelimit.ScopeConfig{Capacity: 100, Window: time.Second}, Action: ratelimit.ActionReject},
		Retry:     retry.Config{MaxAttempts: 2, Strategy: retry.Fixed{Interval: time.Millisecond}},
		Breaker:   breaker.Config{FailureThreshold: 100, FailureWindow: time.Minute, RecoveryTimeout: time.Second, SuccessThreshold: 1},
		Timeout:   timeout.Config{Operation: time.Second},
	}
}

func TestExecuteSucceeds(t *testing.T) {
	e := New(testConfig())

	called := false
	err := e.Execute(context.Background(), ScopeKeys{}, func(ctx context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !called {
		t.Error("op was never called")
	}
}

func TestExecuteRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = ratelimit.Config{Global: ratelimit.ScopeConfig{Capacity: 1, Window: time.Minute}, Action: ratelimit.ActionReject}
	e := New(cfg)

	if err := e.Execute(context.Background(), ScopeKeys{}, func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("first Execute: %v", err)
	}

	err := e.Execute(context.Background(), ScopeKeys{}, func(ctx context.Context) error { return nil })
	if gwerr.CodeOf(err) != gwerr.CodeRateLimited {
		t.Errorf("CodeOf(err) = %v, want %v", gwerr.CodeOf(err), gwerr.CodeRateLimited)
	}
}

func TestExecuteOpensBreakerAfterFailures(t *testing.T) {
	cfg := testConfig()
	cfg.Breaker = breaker.Config{FailureThreshold: 1, FailureWindow: time.Minute, RecoveryTimeout: time.Minute, SuccessThreshold: 1}
	cfg.Retry = retry.Config{MaxAttempts: 1, Strategy: retry.Fixed{Interval: time.Millisecond}}
	e := New(cfg)

	netErr := gwerr.New(gwerr.CodeNetworkError, "boom")
	if err := e.Execute(context.Background(), ScopeKeys{}, func(ctx context.Context) error { return netErr }); err == nil {
		t.Fatal("expected the first call to fail")
	}

	if e.IsCircuitAllowed() {
		t.Fatal("expected the breaker to be open after a triggering failure")
	}

	err := e.Execute(context.Background(), ScopeKeys{}, func(ctx context.Context) error {
		t.Fatal("op should not run while the circuit is open")
		return nil
	})
	if gwerr.CodeOf(err) != gwerr.CodeCircuitOpen {
		t.Errorf("CodeOf(err) = %v, want %v", gwerr.CodeOf(err), gwerr.CodeCircuitOpen)
	}
}

func TestResetClearsLimiterAndBreaker(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = ratelimit.Config{Global: ratelimit.ScopeConfig{Capacity: 1, Window: time.Minute}, Action: ratelimit.ActionReject}
	cfg.Breaker = breaker.Config{FailureThreshold: 1, FailureWindow: time.Minute, RecoveryTimeout: time.Minute, SuccessThreshold: 1}
	cfg.Retry = retry.Config{MaxAttempts: 1, Strategy: retry.Fixed{Interval: time.Millisecond}}
	e := New(cfg)

	netErr := gwerr.New(gwerr.CodeNetworkError, "boom")
	_ = e.Execute(context.Background(), ScopeKeys{}, func(ctx context.Context) error { return netErr })
	if e.IsCircuitAllowed() {
		t.Fatal("expected breaker to be open before Reset")
	}

	e.Reset()
	if !e.IsCircuitAllowed() {
		t.Error("expected breaker closed after Reset")
	}
	if err := e.Execute(context.Background(), ScopeKeys{}, func(ctx context.Context) error { return nil }); err != nil {
		t.Errorf("Execute after Reset: %v", err)
	}
}
