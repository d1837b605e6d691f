// Package main is the entry point for the channel gateway server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/capitalize-ai/channelgw/internal/channel"
	"github.com/capitalize-ai/channelgw/internal/channel/discord"
	"github.com/capitalize-ai/channelgw/internal/channel/mock"
	"github.com/capitalize-ai/channelgw/internal/channel/webhook"
	"github.com/capitalize-ai/channelgw/internal/config"
	"github.com/capitalize-ai/channelgw/internal/eventbus"
	"github.com/capitalize-ai/channelgw/internal/handler"
	"github.com/capitalize-ai/channelgw/internal/idempotency"
	"github.com/capitalize-ai/channelgw/internal/llm"
	"github.com/capitalize-ai/channelgw/internal/policy"
	"github.com/capitalize-ai/channelgw/internal/processor"
	"github.com/capitalize-ai/channelgw/internal/runtime"
	"github.com/capitalize-ai/channelgw/internal/session"
	"github.com/capitalize-ai/channelgw/pkg/logger"
	"github.com/capitalize-ai/channelgw/pkg/tracing"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting channel gateway")

	ctx := context.Background()

	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "channelgw", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", "error", err)
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	var bus *eventbus.Publisher
	var busClient *eventbus.Client
	if cfg.EventBusEnabled {
		busClient, err = eventbus.Connect(ctx, eventbus.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Error("failed to connect event bus", "error", err)
			os.Exit(1)
		}
		defer busClient.Close()

		bus = eventbus.NewPublisher(busClient, log)
		if err := bus.EnsureStream(ctx); err != nil {
			log.Error("failed to ensure event bus stream", "error", err)
			os.Exit(1)
		}
	}

	var llmClient llm.Client
	if cfg.AnthropicAPIKey != "" {
		llmClient, err = llm.NewAnthropicClient(cfg.AnthropicAPIKey)
		if err != nil {
			log.Warn("failed to create Anthropic client, LLM dispatch mode disabled", "error", err)
		}
	} else if cfg.OpenAIAPIKey != "" {
		llmClient, err = llm.NewOpenAIClient(cfg.OpenAIAPIKey)
		if err != nil {
			log.Warn("failed to create OpenAI client, LLM dispatch mode disabled", "error", err)
		}
	}

	sessionStore := session.NewMemoryStore()
	sessionManager := session.NewManager(sessionStore, cfg.SessionStore, log)

	idempotencyStore := idempotency.NewMemoryStore()
	guard := idempotency.New(idempotencyStore, cfg.Idempotency, log)

	var eventBus runtime.EventBus
	if bus != nil {
		eventBus = bus
	}

	rt := runtime.New(runtime.Config{
		Mode:          cfg.DispatchMode,
		ShutdownGrace: 30 * time.Second,
	}, sessionManager, guard, eventBus, log)

	toolRegistry := processor.NewRegistry()
	if cfg.MCPCommand != "" {
		bridge, err := processor.NewMCPBridge(ctx, cfg.MCPCommand, cfg.MCPArgs, nil, log)
		if err != nil {
			log.Warn("failed to attach MCP tool bridge", "error", err)
		} else {
			toolRegistry.AttachMCP(bridge)
		}
	}
	rt.SetTools(toolRegistry)

	if llmClient != nil {
		rt.SetGenerator(processor.NewLLMGenerator(llmClient, processor.LLMGeneratorConfig{
			Model: cfg.LLMModel,
		}))
	}

	reconfig := channel.ReconnectConfig{
		AutoReconnect:        true,
		ReconnectDelay:       2 * time.Second,
		MaxReconnectAttempts: -1,
	}

	webhookAdapter := webhook.New("webhook", channel.WebhookCapabilities(), nil, log)
	if err := rt.RegisterChannel(webhookAdapter, policy.New(policy.PresetSlack())); err != nil {
		log.Error("failed to register webhook adapter", "error", err)
		os.Exit(1)
	}

	mockAdapter := mock.New("mock", channel.SlackCapabilities())
	if err := rt.RegisterChannel(mockAdapter, policy.New(policy.PresetSlack())); err != nil {
		log.Error("failed to register mock adapter", "error", err)
		os.Exit(1)
	}

	if cfg.DiscordBotToken != "" {
		discordAdapter := discord.New(cfg.DiscordBotToken, reconfig, log)
		if err := rt.RegisterChannel(discordAdapter, policy.New(policy.PresetDiscord())); err != nil {
			log.Error("failed to register discord adapter", "error", err)
			os.Exit(1)
		}
	}

	if err := rt.Start(ctx); err != nil {
		log.Error("failed to start runtime", "error", err)
		os.Exit(1)
	}

	router := handler.NewRouter(handler.RouterConfig{
		JWTSecret:         cfg.JWTSecret,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		Health:            handler.NewHealthHandler(busClient),
		Sessions:          handler.NewSessionHandler(sessionManager, log),
		Idempotency:       handler.NewIdempotencyHandler(guard, log),
		Stream:            handler.NewStreamHandler(rt, log),
	}, log)

	webhookAdapter.Mount(router, "/webhooks/generic")

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("admin HTTP server listening", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", "error", err)
	}

	if err := rt.Dispose(shutdownCtx); err != nil {
		log.Error("runtime shutdown error", "error", err)
	}

	log.Info("shutdown complete")
}
