package eventbus

import (
	"testing"

	"github.com/capitalize-ai/channelgw/internal/model"
)

func TestEventSubject(t *testing.T) {
	tests := []struct {
		name string
		key  model.ConversationKey
		want string
	}{
		{
			name: "basic",
			key:  model.ConversationKey{Platform: "discord", Tenant: "acme", Room: "general"},
			want: "gw.discord.acme.general.event",
		},
		{
			name: "thread is not part of the subject",
			key:  model.ConversationKey{Platform: "slack", Tenant: "acme", Room: "C123", Thread: "T456"},
			want: "gw.slack.acme.C123.event",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := eventSubject(tt.key); got != tt.want {
				t.Errorf("eventSubject(%+v) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestResponseSubject(t *testing.T) {
	key := model.ConversationKey{Platform: "webhook", Tenant: "acme", Room: "room-1"}
	want := "gw.webhook.acme.room-1.response"
	if got := responseSubject(key); got != want {
		t.Errorf("responseSubject(%+v) = %q, want %q", key, got, want)
	}
}
