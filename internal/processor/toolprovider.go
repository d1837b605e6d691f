package processor

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	mcpapi "github.com/mark3labs/mcp-go/mcp"

	"github.com/capitalize-ai/channelgw/pkg/logger"
)

// ToolFunc is an in-process tool implementation.
type ToolFunc func(ctx context.Context, args map[string]any) (ToolExecutionResult, error)

// Registry is the reference ToolProvider (§4.12): an in-process map of
// named tools, with an optional bridge to a remote MCP server for tools
// that need to run outside this process.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]registered

	mcp *mcpBridge
}

type registered struct {
	descriptor ToolDescriptor
	fn         ToolFunc
}

// NewRegistry builds an empty Registry seeded with the echo tool, kept
// as a reference implementation so directTool dispatch has something
// concrete to invoke end-to-end without any external configuration.
func NewRegistry() *Registry {
	r := &Registry{tools: make(map[string]registered)}
	r.Register(ToolDescriptor{
		Name:        "echo",
		Description: "Echoes its input back as the tool result, for wiring verification.",
		Schema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"text": map[string]any{"type": "string"}},
		},
	}, echoTool)
	return r
}

func echoTool(ctx context.Context, args map[string]any) (ToolExecutionResult, error) {
	text, _ := args["text"].(string)
	return ToolExecutionResult{Success: true, Content: text}, nil
}

// Register adds or replaces a named tool.
func (r *Registry) Register(desc ToolDescriptor, fn ToolFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[desc.Name] = registered{descriptor: desc, fn: fn}
}

// ListTools returns every locally registered tool plus, when an MCP
// bridge is attached, every tool the remote server currently advertises.
func (r *Registry) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	r.mu.RLock()
	out := make([]ToolDescriptor, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t.descriptor)
	}
	r.mu.RUnlock()

	if r.mcp == nil {
		return out, nil
	}
	remote, err := r.mcp.list(ctx)
	if err != nil {
		return out, err
	}
	return append(out, remote...), nil
}

// ExecuteTool runs a local tool if registered, else forwards to the MCP
// bridge; an unknown name with no bridge attached is reported back as a
// failed ToolExecutionResult rather than an error, matching §6's
// ToolExecutionResult{success, content?, error?} shape for caller-facing
// tool failures (as opposed to pipeline-level errors).
func (r *Registry) ExecuteTool(ctx context.Context, name string, args map[string]any) (ToolExecutionResult, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if ok {
		return t.fn(ctx, args)
	}

	if r.mcp != nil {
		return r.mcp.call(ctx, name, args)
	}

	return ToolExecutionResult{Success: false, Error: fmt.Sprintf("unknown tool %q", name)}, nil
}

// AttachMCP wires a remote MCP server into the registry for tools this
// process doesn't implement directly.
func (r *Registry) AttachMCP(b *mcpBridge) { r.mcp = b }

// mcpBridge forwards ListTools/ExecuteTool to a remote MCP server over
// mark3labs/mcp-go, following the stdio/SSE client construction pattern
// used by the reference MCP client in this dependency family.
type mcpBridge struct {
	client *client.Client
	log    *logger.Logger
}

// NewMCPBridge connects to an MCP server over stdio (command/args) and
// performs the initialize handshake.
func NewMCPBridge(ctx context.Context, command string, args []string, env []string, log *logger.Logger) (*mcpBridge, error) {
	c, err := client.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, fmt.Errorf("mcp bridge: start client: %w", err)
	}
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("mcp bridge: start transport: %w", err)
	}

	initReq := mcpapi.InitializeRequest{}
	initReq.Params.ProtocolVersion = "2024-11-05"
	initReq.Params.ClientInfo = mcpapi.Implementation{Name: "channelgw", Version: "0.1.0"}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		return nil, fmt.Errorf("mcp bridge: initialize: %w", err)
	}

	return &mcpBridge{client: c, log: log}, nil
}

func (b *mcpBridge) Close() error { return b.client.Close() }

func (b *mcpBridge) list(ctx context.Context) ([]ToolDescriptor, error) {
	res, err := b.client.ListTools(ctx, mcpapi.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("mcp bridge: list tools: %w", err)
	}
	out := make([]ToolDescriptor, 0, len(res.Tools))
	for _, t := range res.Tools {
		out = append(out, ToolDescriptor{Name: t.Name, Description: t.Description})
	}
	return out, nil
}

func (b *mcpBridge) call(ctx context.Context, name string, args map[string]any) (ToolExecutionResult, error) {
	req := mcpapi.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := b.client.CallTool(ctx, req)
	if err != nil {
		b.log.Warn("mcp tool call failed", "tool", name, "error", err)
		return ToolExecutionResult{Success: false, Error: err.Error()}, nil
	}

	var text string
	for _, c := range res.Content {
		if tc, ok := c.(mcpapi.TextContent); ok {
			text += tc.Text
		}
	}
	return ToolExecutionResult{Success: !res.IsError, Content: text}, nil
}
