package chattools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nexuslang/nexus-lsp/internal/sharedstate"
)

func TestTreeTool_ListsWorkspaceFiles(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.go"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	state := newTestState(t, []string{root})

	tool := NewTreeTool(state)
	result, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(result.Content, "a.go") {
		t.Errorf("expected tree output to list a.go, got %q", result.Content)
	}
}

type fakeASTForTools struct {
	defs []sharedstate.SymbolLocation
	refs []sharedstate.SymbolLocation
}

func (f *fakeASTForTools) Definition(symbol string) ([]sharedstate.SymbolLocation, error) { return f.defs, nil }
func (f *fakeASTForTools) References(symbol string) ([]sharedstate.SymbolLocation, error) { return f.refs, nil }

func TestDefinitionTool_ReturnsASTHits(t *testing.T) {
	root := t.TempDir()
	state := newTestState(t, []string{root})
	state.SetASTIndex(&fakeASTForTools{defs: []sharedstate.SymbolLocation{{FileName: "b.go", Line1: 1, Line2: 2}}})

	tool := NewDefinitionTool(state)
	params, _ := json.Marshal(map[string]any{"symbol": "Foo"})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(result.Content, "b.go") {
		t.Errorf("got %q", result.Content)
	}
}

func TestSearchTool_RequiresVectorIndex(t *testing.T) {
	root := t.TempDir()
	state := newTestState(t, []string{root})

	tool := NewSearchTool(state)
	params, _ := json.Marshal(map[string]any{"query": "auth"})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !result.IsError {
		t.Errorf("expected an error result without a vector index")
	}
}
