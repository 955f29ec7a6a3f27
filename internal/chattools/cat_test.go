package chattools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/nexuslang/nexus-lsp/internal/modelendpoint"
	"github.com/nexuslang/nexus-lsp/internal/sharedstate"
	"github.com/nexuslang/nexus-lsp/internal/tokenizer"
	"github.com/nexuslang/nexus-lsp/internal/toolregistry"
)

func newTestState(t *testing.T, roots []string) *sharedstate.State {
	t.Helper()
	s := sharedstate.New(modelendpoint.NewRegistry(), toolregistry.NewRegistry(nil), tokenizer.NewCache(nil))
	s.SetWorkspaceRoots(roots)
	return s
}

func TestCatTool_ResolvesExactPath(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.go"), []byte("package a\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	state := newTestState(t, []string{root})

	tool := NewCatTool(state)
	params, _ := json.Marshal(map[string]any{"paths": []string{"a.go"}})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", result.Content)
	}
	var out struct {
		Files []struct {
			Content string `json:"file_content"`
		} `json:"files"`
		Corrections []string `json:"corrections"`
	}
	if err := json.Unmarshal([]byte(result.Content), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out.Corrections) != 0 {
		t.Errorf("unexpected corrections: %v", out.Corrections)
	}
	if len(out.Files) != 1 || out.Files[0].Content != "package a\n" {
		t.Errorf("got %+v", out.Files)
	}
}

func TestCatTool_FuzzyCorrectsMisspelledPath(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "src"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "src", "main.go"), []byte("package main\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	state := newTestState(t, []string{root})

	tool := NewCatTool(state)
	params, _ := json.Marshal(map[string]any{"paths": []string{"main.go"}})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	var out struct {
		Files []struct {
			Content string `json:"file_content"`
		} `json:"files"`
	}
	if err := json.Unmarshal([]byte(result.Content), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out.Files) != 1 || out.Files[0].Content != "package main\n" {
		t.Errorf("expected basename fallback to resolve src/main.go, got %+v", out.Files)
	}
}

func TestCatTool_MissingPathYieldsCorrection(t *testing.T) {
	root := t.TempDir()
	state := newTestState(t, []string{root})

	tool := NewCatTool(state)
	params, _ := json.Marshal(map[string]any{"paths": []string{"nope.go"}})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !result.IsError {
		t.Errorf("expected an error result when nothing resolves")
	}
}
