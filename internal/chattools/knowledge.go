package chattools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// MemorySnippet is one hit returned from the memories store.
type MemorySnippet struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// MemoryStore is the persistence boundary the knowledge tool queries and
// writes to, backed by memories.sqlite. Defined here rather than in
// sharedstate because only the knowledge tool needs it; shared state
// doesn't otherwise touch memory content.
type MemoryStore interface {
	Search(ctx context.Context, query string, topN int) ([]MemorySnippet, error)
	AddDocSource(ctx context.Context, url string) error
}

// KnowledgeTool implements the knowledge(im_going_to_use,
// im_going_to_apply_to, goal, language) tool, plus the doc_sources
// sub-action folded in from original_source/'s att_doc_sources_* family:
// a knowledge call carrying a doc_sources_add URL attaches that URL to the
// memory store instead of querying it.
type KnowledgeTool struct {
	noRules
	store MemoryStore
}

func NewKnowledgeTool(store MemoryStore) *KnowledgeTool { return &KnowledgeTool{store: store} }

func (t *KnowledgeTool) Name() string { return "knowledge" }

func (t *KnowledgeTool) Description() string {
	return "Search remembered project knowledge for a goal, or attach an external doc URL to the memory store."
}

func (t *KnowledgeTool) Schema() json.RawMessage {
	return mustSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"im_going_to_use":        map[string]any{"type": "string"},
			"im_going_to_apply_to":   map[string]any{"type": "string"},
			"goal":                   map[string]any{"type": "string"},
			"language":               map[string]any{"type": "string"},
			"doc_sources_add":        map[string]any{"type": "string", "description": "An external doc URL to attach to the memory store instead of searching."},
		},
	})
}

func (t *KnowledgeTool) Execute(ctx context.Context, params json.RawMessage) (*chatmsg.ToolResult, error) {
	if t.store == nil {
		return toolError("knowledge: memory store unavailable"), nil
	}
	var input struct {
		ImGoingToUse      string `json:"im_going_to_use"`
		ImGoingToApplyTo  string `json:"im_going_to_apply_to"`
		Goal              string `json:"goal"`
		Language          string `json:"language"`
		DocSourcesAdd     string `json:"doc_sources_add"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError("invalid parameters: " + err.Error()), nil
	}

	if url := strings.TrimSpace(input.DocSourcesAdd); url != "" {
		if err := t.store.AddDocSource(ctx, url); err != nil {
			return toolError(err.Error()), nil
		}
		return toolJSON(map[string]any{"doc_source_added": url}), nil
	}

	query := strings.Join(nonEmpty(input.ImGoingToUse, input.ImGoingToApplyTo, input.Goal, input.Language), " ")
	if strings.TrimSpace(query) == "" {
		return toolError("at least one of im_going_to_use/im_going_to_apply_to/goal/language is required"), nil
	}

	snippets, err := t.store.Search(ctx, query, 10)
	if err != nil {
		return toolError(err.Error()), nil
	}
	return toolJSON(map[string]any{"snippets": snippets}), nil
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
