package chattools

import (
	"context"
	"encoding/json"

	"github.com/nexuslang/nexus-lsp/internal/atcommands"
	"github.com/nexuslang/nexus-lsp/internal/sharedstate"
	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// These four tools (tree, definition, references, search) wrap the same
// atcommands.Command implementations the @-command processor uses, so a
// model-invoked tool call and a user-typed @-command resolve identically
// against shared state's workspace/AST/vector capabilities.

type TreeTool struct {
	noRules
	state *sharedstate.State
	cmd   atcommands.TreeCommand
}

func NewTreeTool(state *sharedstate.State) *TreeTool { return &TreeTool{state: state} }

func (t *TreeTool) Name() string        { return "tree" }
func (t *TreeTool) Description() string { return "List the workspace directory tree, optionally rooted at a path." }
func (t *TreeTool) Schema() json.RawMessage {
	return mustSchema(map[string]any{
		"type":       "object",
		"properties": map[string]any{"path": map[string]any{"type": "string"}},
	})
}
func (t *TreeTool) Execute(ctx context.Context, params json.RawMessage) (*chatmsg.ToolResult, error) {
	var input struct {
		Path string `json:"path"`
	}
	_ = json.Unmarshal(params, &input)
	var args []string
	if input.Path != "" {
		args = []string{input.Path}
	}
	actx, err := t.cmd.Execute(t.state, args, input.Path, 0)
	if err != nil {
		return toolError(err.Error()), nil
	}
	return &chatmsg.ToolResult{Content: actx.PlainText}, nil
}

type DefinitionTool struct {
	noRules
	state *sharedstate.State
	cmd   atcommands.DefinitionCommand
}

func NewDefinitionTool(state *sharedstate.State) *DefinitionTool { return &DefinitionTool{state: state} }

func (t *DefinitionTool) Name() string        { return "definition" }
func (t *DefinitionTool) Description() string { return "Resolve a symbol's definition location(s) via the AST index." }
func (t *DefinitionTool) Schema() json.RawMessage {
	return mustSchema(map[string]any{
		"type":       "object",
		"properties": map[string]any{"symbol": map[string]any{"type": "string"}},
		"required":   []string{"symbol"},
	})
}
func (t *DefinitionTool) Execute(ctx context.Context, params json.RawMessage) (*chatmsg.ToolResult, error) {
	var input struct {
		Symbol string `json:"symbol"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError("invalid parameters: " + err.Error()), nil
	}
	actx, err := t.cmd.Execute(t.state, []string{input.Symbol}, input.Symbol, 0)
	if err != nil {
		return toolError(err.Error()), nil
	}
	return toolJSON(actx.Files), nil
}

type ReferencesTool struct {
	noRules
	state *sharedstate.State
	cmd   atcommands.ReferencesCommand
}

func NewReferencesTool(state *sharedstate.State) *ReferencesTool { return &ReferencesTool{state: state} }

func (t *ReferencesTool) Name() string        { return "references" }
func (t *ReferencesTool) Description() string { return "Find every reference to a symbol via the AST index." }
func (t *ReferencesTool) Schema() json.RawMessage {
	return mustSchema(map[string]any{
		"type":       "object",
		"properties": map[string]any{"symbol": map[string]any{"type": "string"}},
		"required":   []string{"symbol"},
	})
}
func (t *ReferencesTool) Execute(ctx context.Context, params json.RawMessage) (*chatmsg.ToolResult, error) {
	var input struct {
		Symbol string `json:"symbol"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError("invalid parameters: " + err.Error()), nil
	}
	actx, err := t.cmd.Execute(t.state, []string{input.Symbol}, input.Symbol, 0)
	if err != nil {
		return toolError(err.Error()), nil
	}
	return toolJSON(actx.Files), nil
}

type SearchTool struct {
	noRules
	state *sharedstate.State
	cmd   atcommands.SearchCommand
}

func NewSearchTool(state *sharedstate.State) *SearchTool { return &SearchTool{state: state} }

func (t *SearchTool) Name() string        { return "search" }
func (t *SearchTool) Description() string { return "Semantic search over the workspace vector index, optionally scoped to a file or directory." }
func (t *SearchTool) Schema() json.RawMessage {
	return mustSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string"},
			"scope": map[string]any{"type": "string", "description": "Optional file or directory prefix to restrict the search to."},
			"top_n": map[string]any{"type": "integer", "minimum": 1},
		},
		"required": []string{"query"},
	})
}
func (t *SearchTool) Execute(ctx context.Context, params json.RawMessage) (*chatmsg.ToolResult, error) {
	var input struct {
		Query string `json:"query"`
		Scope string `json:"scope"`
		TopN  int    `json:"top_n"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError("invalid parameters: " + err.Error()), nil
	}
	if input.TopN <= 0 {
		input.TopN = 10
	}
	var args []string
	if input.Scope != "" {
		args = append(args, input.Scope)
	}
	args = append(args, input.Query)

	actx, err := t.cmd.Execute(t.state, args, input.Query, input.TopN)
	if err != nil {
		return toolError(err.Error()), nil
	}
	return toolJSON(actx.Files), nil
}
