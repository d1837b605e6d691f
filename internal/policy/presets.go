package policy

import (
	"time"

	"github.com/capitalize-ai/channelgw/internal/breaker"
	"github.com/capitalize-ai/channelgw/internal/ratelimit"
	"github.com/capitalize-ai/channelgw/internal/retry"
	"github.com/capitalize-ai/channelgw/internal/timeout"
)

// PresetSlack returns the default policy tuple tuned to Slack's published
// Tier-3-ish Web API limits (~1 req/s sustained per workspace method,
// generous per-conversation burst for thread replies).
func PresetSlack() Config {
	return Config{
		RateLimit: ratelimit.Config{
			Global:       ratelimit.ScopeConfig{Capacity: 1, Burst: 3, Window: time.Second},
			Conversation: &ratelimit.ScopeConfig{Capacity: 1, Burst: 2, Window: time.Second},
			Action:       ratelimit.ActionDelay,
		},
		Retry: retry.Config{
			MaxAttempts:      4,
			Strategy:         retry.Exponential{Initial: 200 * time.Millisecond, Max: 5 * time.Second, Multiplier: 2},
			Jitter:           0.2,
			MaxTotalDuration: 20 * time.Second,
		},
		Breaker: breaker.Config{FailureThreshold: 5, FailureWindow: 30 * time.Second, RecoveryTimeout: 10 * time.Second, SuccessThreshold: 2},
		Timeout: timeout.Config{Connection: 5 * time.Second, Request: 10 * time.Second, Operation: 30 * time.Second, Idle: 5 * time.Minute},
	}
}

// PresetDiscord is tuned to Discord's per-route and per-guild rate
// limits (roughly 5 req/5s per channel route).
func PresetDiscord() Config {
	return Config{
		RateLimit: ratelimit.Config{
			Global:       ratelimit.ScopeConfig{Capacity: 5, Burst: 5, Window: 5 * time.Second},
			Conversation: &ratelimit.ScopeConfig{Capacity: 5, Burst: 2, Window: 5 * time.Second},
			Action:       ratelimit.ActionDelay,
		},
		Retry: retry.Config{
			MaxAttempts:      5,
			Strategy:         retry.Exponential{Initial: 250 * time.Millisecond, Max: 8 * time.Second, Multiplier: 2},
			Jitter:           0.25,
			MaxTotalDuration: 25 * time.Second,
		},
		Breaker: breaker.Config{FailureThreshold: 5, FailureWindow: 30 * time.Second, RecoveryTimeout: 15 * time.Second, SuccessThreshold: 2},
		Timeout: timeout.Config{Connection: 5 * time.Second, Request: 10 * time.Second, Operation: 30 * time.Second, Idle: 5 * time.Minute},
	}
}

// PresetTelegram is tuned to Telegram Bot API's ~30 msg/s global and
// ~1 msg/s per-chat limits.
func PresetTelegram() Config {
	return Config{
		RateLimit: ratelimit.Config{
			Global:       ratelimit.ScopeConfig{Capacity: 30, Burst: 10, Window: time.Second},
			Conversation: &ratelimit.ScopeConfig{Capacity: 1, Burst: 1, Window: time.Second},
			Action:       ratelimit.ActionDelay,
		},
		Retry: retry.Config{
			MaxAttempts:      4,
			Strategy:         retry.Linear{Initial: 300 * time.Millisecond, Step: 300 * time.Millisecond, Max: 3 * time.Second},
			Jitter:           0.15,
			MaxTotalDuration: 15 * time.Second,
		},
		Breaker: breaker.Config{FailureThreshold: 4, FailureWindow: 20 * time.Second, RecoveryTimeout: 10 * time.Second, SuccessThreshold: 2},
		Timeout: timeout.Config{Connection: 5 * time.Second, Request: 8 * time.Second, Operation: 20 * time.Second, Idle: 5 * time.Minute},
	}
}

// PresetTeams is tuned to Teams/Bot Framework's more conservative
// throughput and higher-latency delivery path (webhook-relayed).
func PresetTeams() Config {
	return Config{
		RateLimit: ratelimit.Config{
			Global:       ratelimit.ScopeConfig{Capacity: 10, Burst: 5, Window: time.Second},
			Conversation: &ratelimit.ScopeConfig{Capacity: 1, Burst: 2, Window: time.Second},
			Action:       ratelimit.ActionDelay,
		},
		Retry: retry.Config{
			MaxAttempts:      3,
			Strategy:         retry.Fixed{Interval: 500 * time.Millisecond},
			Jitter:           0.1,
			MaxTotalDuration: 10 * time.Second,
		},
		Breaker: breaker.Config{FailureThreshold: 5, FailureWindow: 60 * time.Second, RecoveryTimeout: 20 * time.Second, SuccessThreshold: 3},
		Timeout: timeout.Config{Connection: 8 * time.Second, Request: 15 * time.Second, Operation: 40 * time.Second, Idle: 10 * time.Minute},
	}
}
