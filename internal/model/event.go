package model

import "time"

// EventKind classifies an inbound ChannelEvent.
type EventKind string

const (
	EventKindMessage  EventKind = "message"
	EventKindCommand  EventKind = "command"
	EventKindButton   EventKind = "button"
	EventKindFile     EventKind = "file"
	EventKindReaction EventKind = "reaction"
	EventKindMention  EventKind = "mention"
	EventKindJoin     EventKind = "join"
	EventKindLeave    EventKind = "leave"
	EventKindWebhook  EventKind = "webhook"
	EventKindUnknown  EventKind = "unknown"
)

// ChannelEvent is the normalized representation of anything an adapter
// receives from its platform. EventID is opaque to the core but must be
// unique per platform delivery attempt's logical event — redeliveries of
// the same logical event must carry the same EventID, since it is the
// idempotency key (C6/C7).
type ChannelEvent struct {
	EventID      string          `json:"event_id"`
	Kind         EventKind       `json:"kind"`
	Conversation ConversationKey `json:"conversation"`
	Identity     ChannelIdentity `json:"identity"`
	Timestamp    time.Time       `json:"timestamp"`

	// Text is the kind-specific textual payload (message body, command
	// line, button value, reaction emoji, file caption...). Kinds that
	// carry richer payloads attach them via Payload.
	Text    string         `json:"text,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// ResponseVariant describes the shape of an outbound ChannelResponse.
type ResponseVariant string

const (
	ResponseText      ResponseVariant = "text"
	ResponseRichBlock ResponseVariant = "rich_blocks"
	ResponseFile      ResponseVariant = "file"
	ResponseUpdate    ResponseVariant = "update"
	ResponseDelete    ResponseVariant = "delete"
	ResponseEphemeral ResponseVariant = "ephemeral"
	ResponseReaction  ResponseVariant = "reaction"
	ResponseTyping    ResponseVariant = "typing"
)

// ChannelResponse is the normalized representation of a reply the core
// hands back to an adapter for delivery.
type ChannelResponse struct {
	Conversation ConversationKey `json:"conversation"`
	Variant      ResponseVariant `json:"variant"`
	Text         string          `json:"text,omitempty"`
	Blocks       []byte          `json:"blocks,omitempty"`
	FileName     string          `json:"file_name,omitempty"`
	FileData     []byte          `json:"file_data,omitempty"`

	// ReplyToID, when set, targets an existing platform message (reply
	// threading, edits, deletes, reactions).
	ReplyToID string `json:"reply_to_id,omitempty"`
	// TargetID identifies the platform-native entity a non-text variant
	// acts on (the message ID to edit, delete, or react to; a reaction's
	// emoji travels in Text).
	TargetID string `json:"target_id,omitempty"`
}

// ChannelRuntimeError is emitted on the orchestrator's errors stream
// whenever any stage of the pipeline fails for a given event.
type ChannelRuntimeError struct {
	Event     ChannelEvent `json:"event"`
	Err       error        `json:"-"`
	Message   string       `json:"error"`
	Timestamp time.Time    `json:"timestamp"`
}
