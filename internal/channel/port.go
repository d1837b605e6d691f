// Package channel defines the ChannelPort contract (§4.9, §6) that every
// platform adapter must satisfy, plus a base adapter implementing the
// default reconnection policy, shared by the reference adapters in
// channel/discord, channel/webhook, and channel/mock.
package channel

import (
	"context"

	"github.com/capitalize-ai/channelgw/internal/model"
)

// ConnectionState is the lifecycle state of an adapter's transport.
type ConnectionState string

const (
	Disconnected ConnectionState = "disconnected"
	Connecting   ConnectionState = "connecting"
	Connected    ConnectionState = "connected"
	Reconnecting ConnectionState = "reconnecting"
	Failed       ConnectionState = "failed"
)

// AttachmentKind enumerates file/attachment kinds a platform may support.
type AttachmentKind string

// Capabilities describes what an adapter's platform supports.
type Capabilities struct {
	Text          bool
	RichMessages  bool
	Attachments   bool
	Reactions     bool
	Threads       bool
	Editing       bool
	Deleting      bool
	Typing        bool
	Files         bool
	Buttons       bool
	Menus         bool
	Modals        bool
	Ephemeral     bool
	Commands      bool

	MaxMessageLength   int
	MaxFileSize        int64
	MaxBlocksPerMessage int
	AttachmentKinds    []AttachmentKind
}

// SendResult is the outcome of ChannelPort.Send.
type SendResult struct {
	Success      bool
	MessageID    string
	Error        error
	Timestamp    *int64
	PlatformData map[string]any
}

// FileInfo describes an uploaded file.
type FileInfo struct {
	ID       string
	Name     string
	SizeByte int64
	URL      string
}

// UploadArgs parameterizes UploadFile.
type UploadArgs struct {
	Conversation model.ConversationKey
	Name         string
	Data         []byte
	Caption      string
}

// Port is the contract every adapter must satisfy (§4.9, §6 "ChannelPort").
type Port interface {
	Platform() string
	Capabilities() Capabilities
	IsRunning() bool

	// Events returns the adapter's hot, lazy, infinite, non-restartable
	// event stream. A late subscriber never sees historical events.
	Events() <-chan model.ChannelEvent
	// ConnectionStates returns the adapter's connection-state stream,
	// with the same broadcast semantics as Events.
	ConnectionStates() <-chan ConnectionState

	Start(ctx context.Context) error
	Stop(ctx context.Context) error

	Send(ctx context.Context, resp model.ChannelResponse) (SendResult, error)
}

// OptionalCapabilities groups the capability-gated operations an adapter
// may implement. Adapters that don't support one return a CodeUnsupported
// *gwerr.Error from that method; the orchestrator never assumes these are
// present without checking Capabilities() first.
type OptionalCapabilities interface {
	GetIdentity(ctx context.Context, userID string) (model.ChannelIdentity, error)
	GetConversation(ctx context.Context, key model.ConversationKey) (model.ConversationKey, error)
	UploadFile(ctx context.Context, args UploadArgs) (*FileInfo, error)
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
	Edit(ctx context.Context, resp model.ChannelResponse) (SendResult, error)
	Delete(ctx context.Context, conversation model.ConversationKey, targetID string) error
	React(ctx context.Context, conversation model.ConversationKey, targetID, emoji string) error
	SendTyping(ctx context.Context, conversation model.ConversationKey) error
}
