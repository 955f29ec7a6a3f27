package modelendpoint

import (
	"testing"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

func TestConvertMessagesToOpenAI_SystemPrependedWhenSet(t *testing.T) {
	out := convertMessagesToOpenAI("be concise", []chatmsg.ChatMessage{
		{Role: chatmsg.RoleUser, Content: "hi"},
	})
	if len(out) != 2 {
		t.Fatalf("got %d messages, want 2 (system + user)", len(out))
	}
	if out[0].Role != "system" || out[0].Content != "be concise" {
		t.Errorf("got %+v, want leading system message", out[0])
	}
}

func TestConvertMessagesToOpenAI_ContextRolesBecomeUser(t *testing.T) {
	out := convertMessagesToOpenAI("", []chatmsg.ChatMessage{
		{Role: chatmsg.RoleContextFile, Content: "file contents"},
	})
	if len(out) != 1 || out[0].Role != "user" {
		t.Errorf("got %+v, want a single user-role message", out)
	}
}

func TestConvertMessagesToOpenAI_ToolResultFollowsAssistantMessage(t *testing.T) {
	out := convertMessagesToOpenAI("", []chatmsg.ChatMessage{
		{
			Role: chatmsg.RoleAssistant,
			ToolResults: []chatmsg.ToolResult{
				{ToolCallID: "call_1", Content: "ok"},
			},
		},
	})
	if len(out) != 2 {
		t.Fatalf("got %d messages, want 2 (assistant + tool result)", len(out))
	}
	if out[1].Role != "tool" || out[1].ToolCallID != "call_1" {
		t.Errorf("got %+v, want trailing tool message for call_1", out[1])
	}
}

func TestConvertToolsToOpenAI_EmptyReturnsNil(t *testing.T) {
	if out := convertToolsToOpenAI(nil); out != nil {
		t.Errorf("got %v, want nil for no tools", out)
	}
}

func TestConvertToolsToOpenAI_BuildsFunctionDefinition(t *testing.T) {
	out := convertToolsToOpenAI([]chatmsg.ToolDesc{
		{Name: "cat", Description: "read a file", Parameters: []byte(`{"type":"object"}`)},
	})
	if len(out) != 1 || out[0].Function.Name != "cat" {
		t.Fatalf("got %+v, want single cat tool", out)
	}
}
