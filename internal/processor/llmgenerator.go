package processor

import (
	"context"

	"github.com/capitalize-ai/channelgw/internal/gwerr"
	"github.com/capitalize-ai/channelgw/internal/llm"
	"github.com/capitalize-ai/channelgw/internal/model"
)

// LLMGeneratorConfig tunes LLMGenerator.
type LLMGeneratorConfig struct {
	Model       string
	MaxTokens   int
	Temperature float64
	Stream      bool
	SystemPrompt string
}

// LLMGenerator is the reference ResponseGenerator (§4.11): it turns a
// session's history into an llm.CompletionRequest, calls the configured
// llm.Client, and wraps the result as a text ChannelResponse.
type LLMGenerator struct {
	client llm.Client
	cfg    LLMGeneratorConfig
}

// NewLLMGenerator wraps client behind the ResponseGenerator contract.
func NewLLMGenerator(client llm.Client, cfg LLMGeneratorConfig) *LLMGenerator {
	return &LLMGenerator{client: client, cfg: cfg}
}

// Generate builds the chat transcript from session.History (toolResults
// is not read), and calls the backend once. Streaming backends
// accumulate their own chunks internally via llm.StreamCallback and
// return the full text, so the orchestrator sees one response per call
// regardless of cfg.Stream.
//
// llm.CompletionResponse carries no structured tool-call field, so this
// wrapper never reports a tool call and no "execute tool, append result,
// continue generation" loop runs on its output; a backend that needs
// native tool-calling should implement ResponseGenerator directly
// instead of going through this wrapper.
func (g *LLMGenerator) Generate(ctx context.Context, event model.ChannelEvent, session *model.Session, toolResults []model.ToolResult) (model.ChannelResponse, error) {
	messages := make([]llm.ChatMessage, 0, len(session.History)+1)
	if g.cfg.SystemPrompt != "" {
		messages = append(messages, llm.ChatMessage{Role: "system", Content: g.cfg.SystemPrompt})
	}
	for _, m := range session.History {
		messages = append(messages, llm.ChatMessage{Role: string(m.Role), Content: m.Content})
	}

	req := &llm.CompletionRequest{
		Model:       g.cfg.Model,
		Messages:    messages,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Stream:      g.cfg.Stream,
	}

	var resp *llm.CompletionResponse
	var err error
	if g.cfg.Stream {
		resp, err = g.client.CompleteStream(ctx, req, func(token string, index int) error {
			return nil
		})
	} else {
		resp, err = g.client.Complete(ctx, req)
	}
	if err != nil {
		return model.ChannelResponse{}, classifyLLMError(err)
	}

	return model.ChannelResponse{
		Conversation: event.Conversation,
		Variant:      model.ResponseText,
		Text:         resp.Content,
		ReplyToID:    event.EventID,
	}, nil
}

// classifyLLMError maps an opaque backend error onto the taxonomy; LLM
// clients don't themselves return *gwerr.Error, so every failure from
// this layer defaults to network_error, the closest fit for "the
// upstream call didn't succeed" without more specific status available.
func classifyLLMError(err error) error {
	return gwerr.Wrap(gwerr.CodeNetworkError, err)
}
