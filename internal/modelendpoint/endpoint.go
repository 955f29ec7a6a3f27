// Package modelendpoint implements the provider adapter layer that
// normalizes streaming calls to remote model endpoints of several wire
// styles (openai, anthropic, hf, bedrock, gemini) into one Endpoint
// interface and one Chunk stream shape the orchestrator consumes.
//
// Grounded on internal/agent/provider_types.go's LLMProvider/
// CompletionRequest/CompletionChunk shapes, generalized from two concrete
// wire styles (openai, anthropic) to five (plus hf, bedrock, gemini), and
// from pkg/models to pkg/chatmsg.
package modelendpoint

import (
	"context"
	"time"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// Endpoint adapts one model-serving backend to a uniform streaming call.
// Implementations must be safe for concurrent use: the orchestrator may
// call Complete for many in-flight chat turns at once.
type Endpoint interface {
	// Style identifies the wire format this endpoint speaks, as it appears
	// in caps.yaml (e.g. "openai", "anthropic", "hf", "bedrock", "gemini").
	Style() string
	// Complete streams a completion for req, closing the returned channel
	// when the response is fully delivered or an error chunk was sent.
	Complete(ctx context.Context, req *Request) (<-chan *Chunk, error)
}

// Request is the endpoint-agnostic completion request built by the
// orchestrator after prompt shaping has rendered a scratchpad.
type Request struct {
	Model                string
	System               string
	Messages             []chatmsg.ChatMessage
	Tools                []chatmsg.ToolDesc
	MaxTokens            int
	Temperature          float64
	EnableThinking       bool
	ThinkingBudgetTokens int
}

// Chunk is one piece of a streamed completion. Exactly one of Text,
// ToolCall, Thinking, or Done/Error carries meaningful content per chunk,
// mirroring agent.CompletionChunk's discriminated-union-by-zero-value shape.
type Chunk struct {
	Text          string
	ToolCall      *chatmsg.ToolCall
	Thinking      string
	ThinkingStart bool
	ThinkingEnd   bool
	Done          bool
	Error         error
	Usage         *chatmsg.Usage
}

// Registry resolves a model name (as declared in caps.yaml) to the Endpoint
// that serves it, so the orchestrator never needs to know which wire style
// backs a given model.
type Registry struct {
	endpoints   map[string]Endpoint // style -> Endpoint
	modelStyle  map[string]string   // model name -> style
}

// NewRegistry creates an endpoint registry.
func NewRegistry() *Registry {
	return &Registry{
		endpoints:  make(map[string]Endpoint),
		modelStyle: make(map[string]string),
	}
}

// RegisterStyle attaches an Endpoint implementation to a wire style name.
func (r *Registry) RegisterStyle(style string, ep Endpoint) {
	r.endpoints[style] = ep
}

// BindModel associates a caps-declared model name with a wire style.
func (r *Registry) BindModel(model, style string) {
	r.modelStyle[model] = style
}

// Resolve returns the Endpoint serving model, or false if no caps entry
// bound it to a known style.
func (r *Registry) Resolve(model string) (Endpoint, bool) {
	style, ok := r.modelStyle[model]
	if !ok {
		return nil, false
	}
	ep, ok := r.endpoints[style]
	return ep, ok
}

// defaultRequestTimeout bounds a whole endpoint round trip, including
// reading a streamed response body (used as the http.Client timeout by
// adapters built on raw net/http, like the HF REST POST).
const defaultRequestTimeout = 5 * time.Minute
