package modelendpoint

import (
	"testing"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

func TestConvertMessagesToAnthropic_UserAndContextRolesBecomeUser(t *testing.T) {
	msgs := []chatmsg.ChatMessage{
		{Role: chatmsg.RoleUser, Content: "hello"},
		{Role: chatmsg.RoleContextFile, Content: "file contents"},
	}
	out, err := convertMessagesToAnthropic(msgs)
	if err != nil {
		t.Fatalf("convertMessagesToAnthropic: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d messages, want 2", len(out))
	}
	for _, m := range out {
		if m.Role != "user" {
			t.Errorf("role = %v, want user", m.Role)
		}
	}
}

func TestConvertMessagesToAnthropic_AssistantToolCallRoundtrips(t *testing.T) {
	msgs := []chatmsg.ChatMessage{
		{
			Role:    chatmsg.RoleAssistant,
			Content: "calling a tool",
			ToolCalls: []chatmsg.ToolCall{
				{ID: "call_1", Name: "cat", Input: []byte(`{"path":"a.go"}`)},
			},
		},
	}
	out, err := convertMessagesToAnthropic(msgs)
	if err != nil {
		t.Fatalf("convertMessagesToAnthropic: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d messages, want 1", len(out))
	}
	if len(out[0].Content) != 2 {
		t.Errorf("got %d content blocks, want 2 (text + tool_use)", len(out[0].Content))
	}
}

func TestConvertMessagesToAnthropic_ToolResultBecomesUserMessage(t *testing.T) {
	msgs := []chatmsg.ChatMessage{
		{
			Role: chatmsg.RoleTool,
			ToolResults: []chatmsg.ToolResult{
				{ToolCallID: "call_1", Content: "ok", IsError: false},
			},
		},
	}
	out, err := convertMessagesToAnthropic(msgs)
	if err != nil {
		t.Fatalf("convertMessagesToAnthropic: %v", err)
	}
	if len(out) != 1 || out[0].Role != "user" {
		t.Fatalf("got %+v, want one user message", out)
	}
}

func TestConvertMessagesToAnthropic_InvalidToolArgumentsError(t *testing.T) {
	msgs := []chatmsg.ChatMessage{
		{
			Role: chatmsg.RoleAssistant,
			ToolCalls: []chatmsg.ToolCall{
				{ID: "call_1", Name: "cat", Input: []byte(`not json`)},
			},
		},
	}
	if _, err := convertMessagesToAnthropic(msgs); err == nil {
		t.Fatal("expected error for malformed tool call arguments")
	}
}

func TestConvertToolsToAnthropic_NamesAndDescriptionsCarryOver(t *testing.T) {
	tools := []chatmsg.ToolDesc{
		{Name: "cat", Description: "read a file", Parameters: []byte(`{"type":"object"}`)},
	}
	out, err := convertToolsToAnthropic(tools)
	if err != nil {
		t.Fatalf("convertToolsToAnthropic: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d tools, want 1", len(out))
	}
	if out[0].OfTool == nil || out[0].OfTool.Name != "cat" {
		t.Errorf("got %+v, want tool named cat", out[0])
	}
}

func TestConvertToolsToAnthropic_InvalidSchemaErrors(t *testing.T) {
	tools := []chatmsg.ToolDesc{
		{Name: "cat", Description: "read a file", Parameters: []byte(`not json`)},
	}
	if _, err := convertToolsToAnthropic(tools); err == nil {
		t.Fatal("expected error for invalid tool schema")
	}
}

func TestAnthropicEndpoint_CompleteFailsWithoutAPIKey(t *testing.T) {
	ep := NewAnthropicEndpoint("")
	if _, err := ep.Complete(nil, &Request{Model: "claude-3-5-sonnet"}); err == nil {
		t.Fatal("expected error when no API key configured")
	}
}

func TestAnthropicEndpoint_Style(t *testing.T) {
	ep := NewAnthropicEndpoint("")
	if ep.Style() != "anthropic" {
		t.Errorf("Style() = %q, want anthropic", ep.Style())
	}
}
