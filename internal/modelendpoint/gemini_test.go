package modelendpoint

import (
	"testing"

	"google.golang.org/genai"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

func TestConvertMessagesToGemini_RolesMapCorrectly(t *testing.T) {
	msgs := []chatmsg.ChatMessage{
		{Role: chatmsg.RoleUser, Content: "hi"},
		{Role: chatmsg.RoleAssistant, Content: "hello"},
	}
	out, err := convertMessagesToGemini(msgs)
	if err != nil {
		t.Fatalf("convertMessagesToGemini: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d contents, want 2", len(out))
	}
	if out[0].Role != genai.RoleUser {
		t.Errorf("first role = %v, want user", out[0].Role)
	}
	if out[1].Role != genai.RoleModel {
		t.Errorf("second role = %v, want model", out[1].Role)
	}
}

func TestConvertMessagesToGemini_ToolResultResolvesCallName(t *testing.T) {
	msgs := []chatmsg.ChatMessage{
		{
			Role: chatmsg.RoleAssistant,
			ToolCalls: []chatmsg.ToolCall{
				{ID: "call_1", Name: "cat", Input: []byte(`{"path":"a.go"}`)},
			},
		},
		{
			Role: chatmsg.RoleTool,
			ToolResults: []chatmsg.ToolResult{
				{ToolCallID: "call_1", Content: `{"ok":true}`},
			},
		},
	}
	out, err := convertMessagesToGemini(msgs)
	if err != nil {
		t.Fatalf("convertMessagesToGemini: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d contents, want 2", len(out))
	}
	resp := out[1].Parts[0].FunctionResponse
	if resp == nil || resp.Name != "cat" {
		t.Errorf("got %+v, want function response named cat", resp)
	}
}

func TestConvertSchemaToGemini_NestedObjectConvertsRecursively(t *testing.T) {
	schemaMap := map[string]any{
		"type":     "object",
		"required": []any{"path"},
		"properties": map[string]any{
			"path": map[string]any{"type": "string"},
		},
	}
	schema := convertSchemaToGemini(schemaMap)
	if schema.Type != genai.TypeObject {
		t.Errorf("type = %v, want OBJECT", schema.Type)
	}
	if len(schema.Required) != 1 || schema.Required[0] != "path" {
		t.Errorf("required = %v, want [path]", schema.Required)
	}
	if schema.Properties["path"] == nil || schema.Properties["path"].Type != genai.TypeString {
		t.Errorf("properties.path = %+v, want type STRING", schema.Properties["path"])
	}
}

func TestConvertToolsToGemini_SkipsInvalidSchema(t *testing.T) {
	tools := []chatmsg.ToolDesc{
		{Name: "broken", Parameters: []byte("not json")},
	}
	out := convertToolsToGemini(tools)
	if out != nil {
		t.Errorf("got %v, want nil when every tool has an invalid schema", out)
	}
}
