package chattools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	execpkg "github.com/nexuslang/nexus-lsp/internal/tools/exec"
)

func TestShellTool_RunsCommandInWorkspace(t *testing.T) {
	root := t.TempDir()
	manager := execpkg.NewManager(root)
	tool := NewShellTool(manager)

	params, _ := json.Marshal(map[string]any{"command": "echo hello"})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(result.Content, "hello") {
		t.Errorf("got %q", result.Content)
	}
}

func TestShellTool_RequiresCommand(t *testing.T) {
	tool := NewShellTool(execpkg.NewManager(t.TempDir()))
	result, err := tool.Execute(context.Background(), json.RawMessage(`{"command":""}`))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !result.IsError {
		t.Error("expected an error result for empty command")
	}
}
