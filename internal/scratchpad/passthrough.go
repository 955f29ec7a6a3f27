package scratchpad

import (
	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// Passthrough hands the structured message list straight to a chat-capable
// endpoint unchanged; it is the style every modern tool-calling model
// declares, so Render/Parse are near-identities and the scratchpad's only
// job is the interface uniformity the orchestrator relies on.
type Passthrough struct{}

// NewPassthrough constructs a Passthrough scratchpad.
func NewPassthrough() Passthrough { return Passthrough{} }

func (Passthrough) Name() string { return "passthrough" }

func (Passthrough) Render(messages []chatmsg.ChatMessage, params Params) (Prompt, error) {
	out := make([]chatmsg.ChatMessage, len(messages))
	copy(out, messages)
	return Prompt{Messages: out, Stop: params.StopTokens}, nil
}

// Parse wraps raw as a single assistant message; a passthrough endpoint
// returns structured deltas itself, so by the time Parse would run on
// leftover text (e.g. a debug dump) there is nothing left to extract.
func (Passthrough) Parse(raw string) ([]chatmsg.ChatMessage, error) {
	if raw == "" {
		return nil, nil
	}
	return []chatmsg.ChatMessage{{Role: chatmsg.RoleAssistant, Content: raw}}, nil
}
