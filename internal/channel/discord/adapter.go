// Package discord is a reference ChannelPort adapter over
// github.com/bwmarrin/discordgo, built on channel.Base's reconnection
// policy. It is intentionally minimal: text messages in, text responses
// out (a rich-block response is sent as its Text only), with a handful of optional capabilities (editing,
// deleting, reactions, typing) wired through discordgo's REST calls.
package discord

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/capitalize-ai/channelgw/internal/channel"
	"github.com/capitalize-ai/channelgw/internal/gwerr"
	"github.com/capitalize-ai/channelgw/internal/model"
	"github.com/capitalize-ai/channelgw/pkg/logger"
)

// Adapter satisfies channel.Port and channel.OptionalCapabilities for
// Discord, using discordgo's gateway session for inbound events and its
// REST client for outbound sends.
type Adapter struct {
	*channel.Base
	token   string
	session *discordgo.Session
}

// New constructs a Discord Adapter. token is a bot token as issued by
// the Discord developer portal.
func New(token string, reconfig channel.ReconnectConfig, log *logger.Logger) *Adapter {
	return &Adapter{
		Base:  channel.NewBase("discord", channel.DiscordCapabilities(), reconfig, 256, log),
		token: token,
	}
}

// Start opens the discordgo session and begins the reconnect-governed
// event loop.
func (a *Adapter) Start(ctx context.Context) error {
	return a.Run(ctx, a)
}

// Dial implements channel.Connector: it opens the gateway session,
// registers the message handler, and blocks until ctx is cancelled
// (returning nil) or the gateway disconnects (returning an error, so
// Run's loop applies the reconnection policy).
func (a *Adapter) Dial(ctx context.Context, emit func(model.ChannelEvent)) error {
	session, err := discordgo.New("Bot " + a.token)
	if err != nil {
		return gwerr.Wrap(gwerr.CodeNetworkError, err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentDirectMessages
	session.ShouldReconnectOnError = false

	session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author != nil && m.Author.Bot {
			return
		}
		emit(toChannelEvent(m))
	})
	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		a.NotifyConnected()
	})
	lost := make(chan struct{})
	var lostOnce sync.Once
	session.AddHandler(func(s *discordgo.Session, d *discordgo.Disconnect) {
		// Run's loop owns reconnection: end this Dial instead.
		lostOnce.Do(func() { close(lost) })
	})

	if err := session.Open(); err != nil {
		return gwerr.Wrap(gwerr.CodeNetworkError, err)
	}
	a.session = session

	select {
	case <-ctx.Done():
		_ = session.Close()
		return nil
	case <-lost:
		_ = session.Close()
		return gwerr.New(gwerr.CodeNetworkError, "discord gateway disconnected")
	}
}

func toChannelEvent(m *discordgo.MessageCreate) model.ChannelEvent {
	thread := ""
	if m.Thread != nil {
		thread = m.Thread.ID
	}
	return model.ChannelEvent{
		EventID: m.ID,
		Kind:    model.EventKindMessage,
		Conversation: model.ConversationKey{
			Platform: "discord",
			Tenant:   m.GuildID,
			Room:     m.ChannelID,
			Thread:   thread,
		},
		Identity: model.ChannelIdentity{
			Platform:    "discord",
			ID:          m.Author.ID,
			DisplayName: m.Author.Username,
		},
		Timestamp: m.Timestamp,
		Text:      m.Content,
		Payload: map[string]any{
			"attachments": m.Attachments,
		},
	}
}

// Send posts resp to the conversation's channel.
func (a *Adapter) Send(ctx context.Context, resp model.ChannelResponse) (channel.SendResult, error) {
	if a.session == nil {
		return channel.SendResult{}, gwerr.New(gwerr.CodeNotConnected, "discord session not established")
	}

	switch resp.Variant {
	case model.ResponseDelete:
		err := a.session.ChannelMessageDelete(resp.Conversation.Room, resp.TargetID, discordgo.WithContext(ctx))
		return result(resp.TargetID, err)
	case model.ResponseUpdate:
		msg, err := a.session.ChannelMessageEdit(resp.Conversation.Room, resp.TargetID, resp.Text, discordgo.WithContext(ctx))
		if err != nil {
			return result("", err)
		}
		return result(msg.ID, nil)
	case model.ResponseReaction:
		err := a.session.MessageReactionAdd(resp.Conversation.Room, resp.TargetID, resp.Text, discordgo.WithContext(ctx))
		return result(resp.TargetID, err)
	case model.ResponseTyping:
		err := a.session.ChannelTyping(resp.Conversation.Room, discordgo.WithContext(ctx))
		return result("", err)
	default:
		msg, err := a.session.ChannelMessageSend(resp.Conversation.Room, resp.Text, discordgo.WithContext(ctx))
		if err != nil {
			return result("", err)
		}
		return result(msg.ID, nil)
	}
}

func result(messageID string, err error) (channel.SendResult, error) {
	now := time.Now().UnixMilli()
	if err != nil {
		return channel.SendResult{Success: false, Error: err, Timestamp: &now}, gwerr.Wrap(gwerr.CodeNetworkError, err)
	}
	return channel.SendResult{Success: true, MessageID: messageID, Timestamp: &now}, nil
}

// GetIdentity resolves a Discord user ID to a ChannelIdentity.
func (a *Adapter) GetIdentity(ctx context.Context, userID string) (model.ChannelIdentity, error) {
	if a.session == nil {
		return model.ChannelIdentity{}, gwerr.New(gwerr.CodeNotConnected, "discord session not established")
	}
	u, err := a.session.User(userID, discordgo.WithContext(ctx))
	if err != nil {
		return model.ChannelIdentity{}, gwerr.Wrap(gwerr.CodeNetworkError, err)
	}
	return model.ChannelIdentity{Platform: "discord", ID: u.ID, DisplayName: u.Username}, nil
}

// GetConversation is a passthrough; Discord channel IDs are already
// canonical, so there's nothing to resolve beyond what's on the key.
func (a *Adapter) GetConversation(ctx context.Context, key model.ConversationKey) (model.ConversationKey, error) {
	return key, nil
}

// UploadFile sends data as a Discord attachment.
func (a *Adapter) UploadFile(ctx context.Context, args channel.UploadArgs) (*channel.FileInfo, error) {
	if a.session == nil {
		return nil, gwerr.New(gwerr.CodeNotConnected, "discord session not established")
	}
	msg, err := a.session.ChannelFileSendWithMessage(args.Conversation.Room, args.Caption, args.Name,
		bytes.NewReader(args.Data), discordgo.WithContext(ctx))
	if err != nil {
		return nil, gwerr.Wrap(gwerr.CodeNetworkError, err)
	}
	if len(msg.Attachments) == 0 {
		return nil, gwerr.New(gwerr.CodeUnsupported, "discord returned no attachment")
	}
	att := msg.Attachments[0]
	return &channel.FileInfo{ID: att.ID, Name: att.Filename, SizeByte: int64(att.Size), URL: att.URL}, nil
}

// DownloadFile is unsupported: retrieving attachment bytes requires a
// plain HTTP GET against the attachment URL, which callers can do
// themselves from FileInfo.URL without adapter involvement.
func (a *Adapter) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	return nil, gwerr.New(gwerr.CodeUnsupported, "discord adapter does not fetch attachment bytes; use FileInfo.URL")
}

func (a *Adapter) Edit(ctx context.Context, resp model.ChannelResponse) (channel.SendResult, error) {
	resp.Variant = model.ResponseUpdate
	return a.Send(ctx, resp)
}

func (a *Adapter) Delete(ctx context.Context, conversation model.ConversationKey, targetID string) error {
	if a.session == nil {
		return gwerr.New(gwerr.CodeNotConnected, "discord session not established")
	}
	if err := a.session.ChannelMessageDelete(conversation.Room, targetID); err != nil {
		return gwerr.Wrap(gwerr.CodeNetworkError, err)
	}
	return nil
}

func (a *Adapter) React(ctx context.Context, conversation model.ConversationKey, targetID, emoji string) error {
	if a.session == nil {
		return gwerr.New(gwerr.CodeNotConnected, "discord session not established")
	}
	if err := a.session.MessageReactionAdd(conversation.Room, targetID, emoji); err != nil {
		return gwerr.Wrap(gwerr.CodeNetworkError, err)
	}
	return nil
}

func (a *Adapter) SendTyping(ctx context.Context, conversation model.ConversationKey) error {
	if a.session == nil {
		return gwerr.New(gwerr.CodeNotConnected, "discord session not established")
	}
	if err := a.session.ChannelTyping(conversation.Room); err != nil {
		return gwerr.Wrap(gwerr.CodeNetworkError, err)
	}
	return nil
}
