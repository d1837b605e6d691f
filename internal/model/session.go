package model

import "time"

// SessionState is the lifecycle state of a Session (§4.8).
type SessionState string

const (
	SessionActive  SessionState = "active"
	SessionPaused  SessionState = "paused"
	SessionExpired SessionState = "expired"
	SessionClosed  SessionState = "closed"
)

// MessageRole identifies the author of a SessionMessage.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
	RoleTool      MessageRole = "tool"
)

// ToolCall represents a single tool invocation requested by the LM.
type ToolCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolResult is the outcome of executing a ToolCall.
type ToolResult struct {
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SessionMessage is one turn of conversation history.
type SessionMessage struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`

	// EventID links a user message back to the ChannelEvent that produced it.
	EventID string `json:"event_id,omitempty"`
	// ToolCalls is set on assistant messages that requested tool use.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolResult is set on tool messages.
	ToolResult *ToolResult `json:"tool_result,omitempty"`
}

// Session is per-conversation durable state: history, context, and the
// authenticated principal driving it.
type Session struct {
	ID           string          `json:"id"`
	Conversation ConversationKey `json:"conversation"`
	Principal    Principal       `json:"principal"`
	State        SessionState    `json:"state"`

	CreatedAt      time.Time  `json:"created_at"`
	LastActivityAt time.Time  `json:"last_activity_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`

	Context map[string]any   `json:"context,omitempty"`
	History []SessionMessage `json:"history,omitempty"`
}

// IsActive reports whether the session can currently accept work.
func (s *Session) IsActive(now time.Time) bool {
	if s.State != SessionActive {
		return false
	}
	if s.ExpiresAt == nil {
		return true
	}
	return now.Before(*s.ExpiresAt)
}

// Clone returns a deep-enough copy for copy-on-write mutation: the
// manager never hands out a Session pointer it still intends to mutate
// in place, so every store write goes through a value produced here.
func (s *Session) Clone() *Session {
	clone := *s
	if s.ExpiresAt != nil {
		expires := *s.ExpiresAt
		clone.ExpiresAt = &expires
	}
	if s.Context != nil {
		clone.Context = make(map[string]any, len(s.Context))
		for k, v := range s.Context {
			clone.Context[k] = v
		}
	}
	if s.History != nil {
		clone.History = make([]SessionMessage, len(s.History))
		copy(clone.History, s.History)
	}
	return &clone
}
