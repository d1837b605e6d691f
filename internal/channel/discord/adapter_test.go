package discord

import (
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/capitalize-ai/channelgw/internal/gwerr"
	"github.com/capitalize-ai/channelgw/internal/model"
)

func TestToChannelEvent(t *testing.T) {
	now := time.Now()
	m := &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "msg-1",
		ChannelID: "chan-1",
		GuildID:   "guild-1",
		Content:   "hello",
		Timestamp: now,
		Author:    &discordgo.User{ID: "user-1", Username: "alice"},
	}}

	evt := toChannelEvent(m)

	if evt.EventID != "msg-1" {
		t.Errorf("EventID = %q, want msg-1", evt.EventID)
	}
	if evt.Kind != model.EventKindMessage {
		t.Errorf("Kind = %q, want %q", evt.Kind, model.EventKindMessage)
	}
	if evt.Conversation.Platform != "discord" || evt.Conversation.Tenant != "guild-1" || evt.Conversation.Room != "chan-1" {
		t.Errorf("Conversation = %+v, want platform=discord tenant=guild-1 room=chan-1", evt.Conversation)
	}
	if evt.Conversation.Thread != "" {
		t.Errorf("Conversation.Thread = %q, want empty for a non-thread message", evt.Conversation.Thread)
	}
	if evt.Identity.ID != "user-1" || evt.Identity.DisplayName != "alice" {
		t.Errorf("Identity = %+v, want ID=user-1 DisplayName=alice", evt.Identity)
	}
	if evt.Text != "hello" {
		t.Errorf("Text = %q, want hello", evt.Text)
	}
}

func TestToChannelEventThread(t *testing.T) {
	m := &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "msg-2",
		ChannelID: "chan-1",
		GuildID:   "guild-1",
		Author:    &discordgo.User{ID: "user-1"},
		Thread:    &discordgo.Channel{ID: "thread-1"},
	}}

	evt := toChannelEvent(m)
	if evt.Conversation.Thread != "thread-1" {
		t.Errorf("Conversation.Thread = %q, want thread-1", evt.Conversation.Thread)
	}
}

func TestResultSuccess(t *testing.T) {
	sr, err := result("msg-1", nil)
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if !sr.Success || sr.MessageID != "msg-1" {
		t.Errorf("result = %+v, want Success=true MessageID=msg-1", sr)
	}
	if sr.Timestamp == nil {
		t.Error("Timestamp is nil, want set")
	}
}

func TestResultFailure(t *testing.T) {
	cause := errors.New("api error")
	sr, err := result("", cause)

	if sr.Success {
		t.Error("Success = true, want false")
	}
	if sr.Error != cause {
		t.Errorf("sr.Error = %v, want %v", sr.Error, cause)
	}
	if gwerr.CodeOf(err) != gwerr.CodeNetworkError {
		t.Errorf("CodeOf(err) = %v, want %v", gwerr.CodeOf(err), gwerr.CodeNetworkError)
	}
}
