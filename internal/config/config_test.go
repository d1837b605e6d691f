package config

import (
	"os"
	"testing"
	"time"

	"github.com/capitalize-ai/channelgw/internal/runtime"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.DispatchMode != runtime.ModeDirectTool {
		t.Errorf("DispatchMode = %q, want %q", cfg.DispatchMode, runtime.ModeDirectTool)
	}
	if cfg.EventBusEnabled {
		t.Error("EventBusEnabled = true, want false by default")
	}
	if cfg.Idempotency.RecordTTL != 24*time.Hour {
		t.Errorf("Idempotency.RecordTTL = %v, want 24h", cfg.Idempotency.RecordTTL)
	}
}

func TestLoadOverridesFromEnv(t *testing.T) {
	os.Setenv("PORT", "9999")
	os.Setenv("DISPATCH_MODE", "llm")
	os.Setenv("MCP_ARGS", "--flag value --other")
	defer os.Unsetenv("PORT")
	defer os.Unsetenv("DISPATCH_MODE")
	defer os.Unsetenv("MCP_ARGS")

	cfg := Load()

	if cfg.ServerPort != "9999" {
		t.Errorf("ServerPort = %q, want 9999", cfg.ServerPort)
	}
	if cfg.DispatchMode != runtime.ModeLLM {
		t.Errorf("DispatchMode = %q, want %q", cfg.DispatchMode, runtime.ModeLLM)
	}

	wantArgs := []string{"--flag", "value", "--other"}
	if len(cfg.MCPArgs) != len(wantArgs) {
		t.Fatalf("MCPArgs = %v, want %v", cfg.MCPArgs, wantArgs)
	}
	for i, a := range wantArgs {
		if cfg.MCPArgs[i] != a {
			t.Errorf("MCPArgs[%d] = %q, want %q", i, cfg.MCPArgs[i], a)
		}
	}
}
