package chattools

import (
	"context"
	"encoding/json"
	"testing"
)

type fakeMemoryStore struct {
	lastQuery   string
	lastURL     string
	snippets    []MemorySnippet
}

func (f *fakeMemoryStore) Search(ctx context.Context, query string, topN int) ([]MemorySnippet, error) {
	f.lastQuery = query
	return f.snippets, nil
}

func (f *fakeMemoryStore) AddDocSource(ctx context.Context, url string) error {
	f.lastURL = url
	return nil
}

func TestKnowledgeTool_SearchesByGoal(t *testing.T) {
	store := &fakeMemoryStore{snippets: []MemorySnippet{{Text: "use context.Context for cancellation", Score: 0.8}}}
	tool := NewKnowledgeTool(store)

	params, _ := json.Marshal(map[string]any{"goal": "cancel a long request"})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.Content)
	}
	if store.lastQuery != "cancel a long request" {
		t.Errorf("got query %q", store.lastQuery)
	}
}

func TestKnowledgeTool_DocSourcesAddBypassesSearch(t *testing.T) {
	store := &fakeMemoryStore{}
	tool := NewKnowledgeTool(store)

	params, _ := json.Marshal(map[string]any{"doc_sources_add": "https://example.com/docs"})
	if _, err := tool.Execute(context.Background(), params); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if store.lastURL != "https://example.com/docs" {
		t.Errorf("got %q", store.lastURL)
	}
	if store.lastQuery != "" {
		t.Errorf("expected search not to be called, got query %q", store.lastQuery)
	}
}
