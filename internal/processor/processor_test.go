package processor

import (
	"testing"

	"github.com/capitalize-ai/channelgw/internal/model"
)

func TestRespond(t *testing.T) {
	resp := model.ChannelResponse{Text: "hi"}
	result := Respond(resp)

	if result.Kind != ResultRespond {
		t.Errorf("Kind = %v, want %v", result.Kind, ResultRespond)
	}
	if result.Response == nil || result.Response.Text != "hi" {
		t.Errorf("Response = %+v, want Text=hi", result.Response)
	}
}

func TestNeedsTool(t *testing.T) {
	result := NeedsTool("echo", map[string]any{"text": "hi"})

	if result.Kind != ResultNeedTool {
		t.Errorf("Kind = %v, want %v", result.Kind, ResultNeedTool)
	}
	if result.ToolName != "echo" {
		t.Errorf("ToolName = %q, want echo", result.ToolName)
	}
	if result.ToolArgs["text"] != "hi" {
		t.Errorf("ToolArgs[text] = %v, want hi", result.ToolArgs["text"])
	}
}

func TestDeferAndIgnore(t *testing.T) {
	if got := Defer().Kind; got != ResultDefer {
		t.Errorf("Defer().Kind = %v, want %v", got, ResultDefer)
	}
	if got := Ignore().Kind; got != ResultIgnore {
		t.Errorf("Ignore().Kind = %v, want %v", got, ResultIgnore)
	}
}
