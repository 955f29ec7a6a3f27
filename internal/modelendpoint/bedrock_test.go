package modelendpoint

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

func TestConvertMessagesToBedrock_RolesMapCorrectly(t *testing.T) {
	msgs := []chatmsg.ChatMessage{
		{Role: chatmsg.RoleUser, Content: "hi"},
		{Role: chatmsg.RoleAssistant, Content: "hello"},
	}
	out, err := convertMessagesToBedrock(msgs)
	if err != nil {
		t.Fatalf("convertMessagesToBedrock: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d messages, want 2", len(out))
	}
	if out[0].Role != types.ConversationRoleUser {
		t.Errorf("first role = %v, want user", out[0].Role)
	}
	if out[1].Role != types.ConversationRoleAssistant {
		t.Errorf("second role = %v, want assistant", out[1].Role)
	}
}

func TestConvertMessagesToBedrock_InvalidToolArgsError(t *testing.T) {
	msgs := []chatmsg.ChatMessage{
		{
			Role: chatmsg.RoleAssistant,
			ToolCalls: []chatmsg.ToolCall{
				{ID: "1", Name: "cat", Input: []byte("not json")},
			},
		},
	}
	if _, err := convertMessagesToBedrock(msgs); err == nil {
		t.Fatal("expected error for malformed tool call input")
	}
}

func TestConvertMessagesToBedrock_EmptyMessageDropped(t *testing.T) {
	msgs := []chatmsg.ChatMessage{{Role: chatmsg.RoleUser, Content: ""}}
	out, err := convertMessagesToBedrock(msgs)
	if err != nil {
		t.Fatalf("convertMessagesToBedrock: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("got %d messages, want 0 for an empty turn", len(out))
	}
}

func TestConvertToolsToBedrock_BuildsToolSpec(t *testing.T) {
	tools := []chatmsg.ToolDesc{
		{Name: "cat", Description: "read a file", Parameters: []byte(`{"type":"object"}`)},
	}
	cfg := convertToolsToBedrock(tools)
	if len(cfg.Tools) != 1 {
		t.Fatalf("got %d tools, want 1", len(cfg.Tools))
	}
}
