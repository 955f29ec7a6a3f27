package scratchpad

import (
	"strings"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// CodeCompletion renders a fill-in-the-middle prompt from a synthetic
// two-message exchange: a context_file-ish "prefix" message and a "suffix"
// message carrying the text after the cursor, the shape the inline
// completion endpoint hands the orchestrator instead of a real chat
// history. The scratchpad owns the FIM markers and the end-of-generation
// stop token: it is the only layer that knows a model's textual
// conventions.
type CodeCompletion struct {
	prefixToken string
	suffixToken string
	middleToken string
	eotToken    string
}

// NewCodeCompletion constructs a FIM scratchpad with the given markers.
func NewCodeCompletion(prefixToken, suffixToken, middleToken, eotToken string) CodeCompletion {
	return CodeCompletion{
		prefixToken: prefixToken,
		suffixToken: suffixToken,
		middleToken: middleToken,
		eotToken:    eotToken,
	}
}

func (CodeCompletion) Name() string { return "code-completion" }

// Render expects exactly two messages tagged by convention: the first
// message is the prefix (text before the cursor), the second is
// the suffix (text after the cursor). Any further messages are ignored —
// code completion has no multi-turn history.
func (c CodeCompletion) Render(messages []chatmsg.ChatMessage, params Params) (Prompt, error) {
	var prefix, suffix string
	if len(messages) > 0 {
		prefix = messages[0].Content
	}
	if len(messages) > 1 {
		suffix = messages[1].Content
	}

	var b strings.Builder
	b.WriteString(c.prefixToken)
	b.WriteString(prefix)
	b.WriteString(c.suffixToken)
	b.WriteString(suffix)
	b.WriteString(c.middleToken)

	stop := append([]string{c.eotToken}, params.StopTokens...)
	return Prompt{Text: b.String(), Stop: stop}, nil
}

// Parse trims the completion at the first stop token the model echoed
// back and wraps the remainder as a single assistant message holding the
// generated middle section.
func (c CodeCompletion) Parse(raw string) ([]chatmsg.ChatMessage, error) {
	text := raw
	if idx := strings.Index(text, c.eotToken); idx >= 0 {
		text = text[:idx]
	}
	if text == "" {
		return nil, nil
	}
	return []chatmsg.ChatMessage{{Role: chatmsg.RoleAssistant, Content: text}}, nil
}
