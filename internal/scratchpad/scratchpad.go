// Package scratchpad implements the per-model prompt adapters the turn
// orchestrator renders a message list through before a completion call, and
// parses a raw completion back through afterward.
//
// Grounded on _examples/original_source/src/caps.rs's which_scratchpad_to_use
// (a model's caps record names a default scratchpad plus the set it
// supports; the caller's requested style wins when non-empty) and on
// internal/modelendpoint's Request/Chunk shapes, which a scratchpad produces
// and consumes respectively.
package scratchpad

import (
	"fmt"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// Params carries the per-request knobs a scratchpad needs when rendering,
// beyond the message list itself.
type Params struct {
	MaxNewTokens int
	// StopTokens are appended to whatever stop sequences the scratchpad
	// itself requires (e.g. a FIM end marker).
	StopTokens []string
}

// Prompt is a scratchpad's rendered output. Exactly one of Text or
// Messages is populated: Text for scratchpads that flatten the
// conversation into a single string (completion-style, code-completion),
// Messages for scratchpads that hand the structured list straight to a
// chat-capable endpoint (passthrough).
type Prompt struct {
	Text     string
	Messages []chatmsg.ChatMessage
	Stop     []string
}

// Scratchpad is a pair of conversions between the orchestrator's internal
// message list and one model's textual conventions: Render shapes a
// request, Parse turns the model's raw answer back into structured
// messages. A scratchpad is the only component that knows FIM markers,
// stop tokens, or role-header formatting for the style it implements.
type Scratchpad interface {
	// Name identifies the scratchpad style as it appears in a model
	// record's supports_scratchpad field (e.g. "passthrough", "chat-completion",
	// "code-completion").
	Name() string
	Render(messages []chatmsg.ChatMessage, params Params) (Prompt, error)
	Parse(raw string) ([]chatmsg.ChatMessage, error)
}

// Registry resolves a model's declared scratchpad style to an
// implementation, the same style-keyed lookup which_scratchpad_to_use does
// against a caps record's supports_scratchpads map.
type Registry struct {
	byName      map[string]Scratchpad
	defaultName string
}

// NewRegistry builds a registry pre-populated with the three scratchpad
// styles every caps.yaml model record can declare.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]Scratchpad)}
	r.Register(NewPassthrough())
	r.Register(NewChatCompletion())
	r.Register(NewCodeCompletion("<fim_prefix>", "<fim_suffix>", "<fim_middle>", "<|endoftext|>"))
	r.defaultName = "passthrough"
	return r
}

// Register adds or replaces a scratchpad implementation under its own Name().
func (r *Registry) Register(sp Scratchpad) {
	r.byName[sp.Name()] = sp
}

// SetDefault changes which style Resolve falls back to when the caller
// requests an empty style.
func (r *Registry) SetDefault(name string) {
	r.defaultName = name
}

// Resolve picks a scratchpad the way which_scratchpad_to_use does: the
// caller's requested style wins when non-empty; otherwise fall back to the
// registry default; an unknown style is an error naming the available set.
func (r *Registry) Resolve(requested string) (Scratchpad, error) {
	name := requested
	if name == "" {
		name = r.defaultName
	}
	sp, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("scratchpad: %q not found, available: %v", name, r.names())
	}
	return sp, nil
}

func (r *Registry) names() []string {
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	return out
}
