// Package config provides environment configuration for the gateway
// binary: server, NATS event bus, JWT auth, LLM backend, admin-surface
// rate limiting, idempotency, session store, and channel adapter
// settings.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/capitalize-ai/channelgw/internal/idempotency"
	"github.com/capitalize-ai/channelgw/internal/runtime"
	"github.com/capitalize-ai/channelgw/internal/session"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// NATS settings (event bus, C13)
	NATSURL       string
	NATSCAFile    string
	NATSCertFile  string
	NATSKeyFile   string
	NATSToken     string
	EventBusEnabled bool

	// JWT settings (admin HTTP surface, C14)
	JWTSecret     string
	JWTExpiration time.Duration

	// LLM settings (C11)
	AnthropicAPIKey string
	OpenAIAPIKey    string
	DefaultLLM      string
	LLMModel        string

	// Discord adapter (reference channel/discord)
	DiscordBotToken string

	// MCP tool bridge (C12, optional)
	MCPCommand string
	MCPArgs    []string

	// Admin HTTP rate limiting (go-chi/httprate, distinct from the C1
	// per-platform gateway policy rate limiter)
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool

	// Idempotency and session store (§6 recognized options)
	Idempotency idempotency.Config
	SessionStore session.Config

	// Dispatch mode for the runtime orchestrator's inner processor
	DispatchMode runtime.DispatchMode
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),

		// NATS
		NATSURL:         getEnv("NATS_URL", "nats://localhost:4222"),
		NATSCAFile:      getEnv("NATS_CA_FILE", ""),
		NATSCertFile:    getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:     getEnv("NATS_KEY_FILE", ""),
		NATSToken:       getEnv("NATS_TOKEN", ""),
		EventBusEnabled: getBoolEnv("EVENT_BUS_ENABLED", false),

		// JWT
		JWTSecret:     getEnv("JWT_SECRET", "development-secret-change-in-production"),
		JWTExpiration: getDurationEnv("JWT_EXPIRATION", 15*time.Minute),

		// LLM
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		DefaultLLM:      getEnv("DEFAULT_LLM", "anthropic"),
		LLMModel:        getEnv("LLM_MODEL", ""),

		DiscordBotToken: getEnv("DISCORD_BOT_TOKEN", ""),

		MCPCommand: getEnv("MCP_COMMAND", ""),
		MCPArgs:    strings.Fields(getEnv("MCP_ARGS", "")),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),

		Idempotency: idempotency.Config{
			RecordTTL:       getDurationEnv("IDEMPOTENCY_RECORD_TTL", 24*time.Hour),
			LockTimeout:     getDurationEnv("IDEMPOTENCY_LOCK_TIMEOUT", 5*time.Minute),
			RetryFailed:     getBoolEnv("IDEMPOTENCY_RETRY_FAILED", false),
			CleanupInterval: getDurationEnv("IDEMPOTENCY_CLEANUP_INTERVAL", time.Hour),
		},
		SessionStore: session.Config{
			DefaultTimeout:  getDurationEnv("SESSION_DEFAULT_TIMEOUT", 24*time.Hour),
			MaxHistorySize:  getIntEnv("SESSION_MAX_HISTORY", 100),
			CleanupInterval: getDurationEnv("SESSION_CLEANUP_INTERVAL", 15*time.Minute),
			Persistent:      getBoolEnv("SESSION_PERSISTENT", false),
		},

		DispatchMode: runtime.DispatchMode(getEnv("DISPATCH_MODE", string(runtime.ModeDirectTool))),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
