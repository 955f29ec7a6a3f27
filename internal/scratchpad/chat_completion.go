package scratchpad

import (
	"strings"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// ChatCompletion flattens a message list into a single role-headered prompt
// string for endpoints with no native chat/tool-calling wire format, and
// parses the raw continuation back out from the trailing "assistant:"
// header it asked the model to continue from.
type ChatCompletion struct {
	// roleHeader maps a chatmsg.Role to the textual header this style uses.
	roleHeader map[chatmsg.Role]string
}

// NewChatCompletion constructs a ChatCompletion scratchpad with the
// conventional system/user/assistant headers.
func NewChatCompletion() ChatCompletion {
	return ChatCompletion{
		roleHeader: map[chatmsg.Role]string{
			chatmsg.RoleSystem:    "system",
			chatmsg.RoleUser:      "user",
			chatmsg.RoleAssistant: "assistant",
			chatmsg.RoleTool:      "tool",
		},
	}
}

func (ChatCompletion) Name() string { return "chat-completion" }

const chatCompletionAssistantHeader = "\n\nassistant:\n"

func (c ChatCompletion) Render(messages []chatmsg.ChatMessage, params Params) (Prompt, error) {
	var b strings.Builder
	for i, m := range messages {
		header, ok := c.roleHeader[m.Role]
		if !ok {
			continue
		}
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(header)
		b.WriteString(":\n")
		b.WriteString(m.Content)
	}
	b.WriteString(chatCompletionAssistantHeader)

	stop := append([]string{"\n\nuser:", "\n\nsystem:"}, params.StopTokens...)
	return Prompt{Text: b.String(), Stop: stop}, nil
}

// Parse takes the model's raw continuation (everything after the
// "assistant:\n" header it was asked to continue) and wraps it as one
// assistant message, trimming a leading role header the model may have
// echoed back before the continuation proper.
func (c ChatCompletion) Parse(raw string) ([]chatmsg.ChatMessage, error) {
	text := raw
	for _, stopHeader := range []string{"\n\nuser:", "\n\nsystem:", "\n\nassistant:"} {
		if idx := strings.Index(text, stopHeader); idx >= 0 {
			text = text[:idx]
		}
	}
	text = strings.TrimPrefix(text, "assistant:\n")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	return []chatmsg.ChatMessage{{Role: chatmsg.RoleAssistant, Content: text}}, nil
}
