// Package chattools implements the concrete tool implementations
// dispatched by the toolregistry during a chat turn — file/AST/vector
// lookups that mirror the at-commands, the patch engine wrapper, and the
// shell-style external integrations (shell/postgres/mysql/github/gitlab/
// chrome/docker).
//
// Grounded on internal/tools/files/read.go's Tool shape (schema-as-map,
// toolError helper) and internal/tools/exec/tools.go for the integration
// tools, generalized from agent.Tool/agent.ToolResult to
// toolregistry.Tool/chatmsg.ToolResult.
package chattools

import (
	"encoding/json"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

func toolError(message string) *chatmsg.ToolResult {
	payload, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		return &chatmsg.ToolResult{Content: message, IsError: true}
	}
	return &chatmsg.ToolResult{Content: string(payload), IsError: true}
}

func toolJSON(v any) *chatmsg.ToolResult {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("encode result: " + err.Error())
	}
	return &chatmsg.ToolResult{Content: string(payload)}
}

func mustSchema(schema map[string]any) json.RawMessage {
	payload, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return payload
}

// noRules is embedded by tools with no default confirm/deny/ask_user rules.
type noRules struct{}

func (noRules) Confirm() []string { return nil }
func (noRules) Deny() []string    { return nil }
func (noRules) AskUser() []string { return nil }
