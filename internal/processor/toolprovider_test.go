package processor

import (
	"context"
	"testing"
)

func TestRegistryEchoTool(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	tools, err := r.ListTools(ctx)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(tools) != 1 || tools[0].Name != "echo" {
		t.Fatalf("ListTools = %+v, want exactly [echo]", tools)
	}

	result, err := r.ExecuteTool(ctx, "echo", map[string]any{"text": "hello"})
	if err != nil {
		t.Fatalf("ExecuteTool: %v", err)
	}
	if !result.Success || result.Content != "hello" {
		t.Errorf("ExecuteTool result = %+v, want Success=true Content=hello", result)
	}
}

func TestRegistryUnknownTool(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	result, err := r.ExecuteTool(ctx, "does-not-exist", nil)
	if err != nil {
		t.Fatalf("ExecuteTool returned error %v, want a failed result instead", err)
	}
	if result.Success {
		t.Error("result.Success = true for an unknown tool, want false")
	}
	if result.Error == "" {
		t.Error("result.Error is empty, want an explanatory message")
	}
}

func TestRegistryRegisterOverridesAndAdds(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	r.Register(ToolDescriptor{Name: "double"}, func(ctx context.Context, args map[string]any) (ToolExecutionResult, error) {
		return ToolExecutionResult{Success: true, Content: "ok"}, nil
	})

	tools, err := r.ListTools(ctx)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(tools) != 2 {
		t.Fatalf("ListTools returned %d tools, want 2", len(tools))
	}

	result, err := r.ExecuteTool(ctx, "double", map[string]any{"n": 2})
	if err != nil {
		t.Fatalf("ExecuteTool: %v", err)
	}
	if !result.Success {
		t.Errorf("result.Success = false, want true")
	}
}
