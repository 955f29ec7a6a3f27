package chattools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

func TestPatchTool_AppliesPartialEditTicket(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "a.go")
	if err := os.WriteFile(target, []byte("package a\n\nfunc Old() {}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	state := newTestState(t, []string{root})

	response := "📍001 PARTIAL_EDIT a.go\n" +
		"```\n" +
		"-func Old() {}\n" +
		"+func New() {}\n" +
		"```\n"

	tool := NewPatchTool(state)
	params, _ := json.Marshal(map[string]any{"response": response})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.Content)
	}

	updated, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(updated) == "package a\n\nfunc Old() {}\n" {
		t.Errorf("expected file to change, got unchanged content")
	}
}

func TestValidateSameFile_RejectsMixedFilenames(t *testing.T) {
	tickets := []chatmsg.PatchTicket{
		{ID: "001", FilenameOrig: "a.go", Action: chatmsg.ActionPartialEdit},
		{ID: "002", FilenameOrig: "b.go", Action: chatmsg.ActionPartialEdit},
	}
	if err := validateSameFile(tickets); err == nil {
		t.Error("expected an error for mixed filenames")
	}
}

func TestValidateSameFile_RejectsMultipleNonPartialEdit(t *testing.T) {
	tickets := []chatmsg.PatchTicket{
		{ID: "001", FilenameOrig: "a.go", Action: chatmsg.ActionRewriteWholeFile},
		{ID: "002", FilenameOrig: "a.go", Action: chatmsg.ActionRewriteWholeFile},
	}
	if err := validateSameFile(tickets); err == nil {
		t.Error("expected an error: two non-PARTIAL_EDIT tickets for the same file")
	}
}
