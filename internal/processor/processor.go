// Package processor defines the optional per-event processing contracts
// (§6): MessageProcessor, ResponseGenerator, and ToolProvider. The
// runtime orchestrator (internal/runtime) only depends on these
// interfaces, never on a concrete LLM or tool backend, so a deployment
// can swap in its own processor without touching the core pipeline.
package processor

import (
	"context"

	"github.com/capitalize-ai/channelgw/internal/model"
)

// ResultKind tags the variant of a ProcessResult.
type ResultKind string

const (
	ResultRespond  ResultKind = "respond"
	ResultNeedTool ResultKind = "needs_tool"
	ResultDefer    ResultKind = "defer"
	ResultIgnore   ResultKind = "ignore"
)

// ProcessResult is the exhaustive tagged union a MessageProcessor
// returns for one event (§6: "ProcessResult ∈ { Respond(response) |
// NeedsTool(name, args) | Defer | Ignore }"). Exactly one of the
// kind-specific fields is meaningful, selected by Kind.
type ProcessResult struct {
	Kind     ResultKind
	Response *model.ChannelResponse
	ToolName string
	ToolArgs map[string]any
}

func Respond(resp model.ChannelResponse) ProcessResult {
	return ProcessResult{Kind: ResultRespond, Response: &resp}
}

func NeedsTool(name string, args map[string]any) ProcessResult {
	return ProcessResult{Kind: ResultNeedTool, ToolName: name, ToolArgs: args}
}

func Defer() ProcessResult { return ProcessResult{Kind: ResultDefer} }
func Ignore() ProcessResult { return ProcessResult{Kind: ResultIgnore} }

// MessageProcessor is the optional, fully custom per-event hook. When
// configured, the orchestrator's "custom" dispatch mode (§4.10 step 4c)
// delegates to it instead of the built-in llm/directTool modes.
type MessageProcessor interface {
	Process(ctx context.Context, event model.ChannelEvent, session *model.Session) (ProcessResult, error)
}

// ToolExecutionResult is the outcome of ToolProvider.ExecuteTool.
type ToolExecutionResult struct {
	Success bool
	Content string
	Error   string
}

// ToolDescriptor describes one tool a ToolProvider exposes.
type ToolDescriptor struct {
	Name        string
	Description string
	Schema      map[string]any
}

// ToolProvider is the optional tool-execution backend for directTool
// dispatch. The orchestrator's llm dispatch mode does not call it.
type ToolProvider interface {
	ListTools(ctx context.Context) ([]ToolDescriptor, error)
	ExecuteTool(ctx context.Context, name string, args map[string]any) (ToolExecutionResult, error)
}

// ResponseGenerator is the optional LM bridge driving "llm" dispatch
// mode. toolResults carries any tool messages appended to the session
// since the previous call, for backends that need them passed
// explicitly rather than re-derived from session.History.
type ResponseGenerator interface {
	Generate(ctx context.Context, event model.ChannelEvent, session *model.Session, toolResults []model.ToolResult) (model.ChannelResponse, error)
}
