package atcommands

import (
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

func writeWorkspaceFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestProcess_FileCommandReturnsWholeFile(t *testing.T) {
	root := t.TempDir()
	writeWorkspaceFile(t, root, "src/a.py", "line1\nline2\nline3\n")
	state := newTestState(t, []string{root})

	result := NewRegistry().Process(state, "@file src/a.py\nexplain this", 10)

	if len(result.Contexts) != 1 {
		t.Fatalf("got %d contexts, want 1", len(result.Contexts))
	}
	files := result.Contexts[0].Files
	if len(files) != 1 || files[0].Line1 != 1 || files[0].Line2 != 3 {
		t.Errorf("got %+v, want whole 3-line file", files)
	}
	if result.Spans[0].OK != true {
		t.Errorf("expected ok span, got %+v", result.Spans[0])
	}
}

func TestProcess_FileCommandWithRange(t *testing.T) {
	root := t.TempDir()
	writeWorkspaceFile(t, root, "a.py", "l1\nl2\nl3\nl4\nl5\n")
	state := newTestState(t, []string{root})

	result := NewRegistry().Process(state, "@file a.py:2-3", 10)
	files := result.Contexts[0].Files
	if files[0].Line1 != 2 || files[0].Line2 != 3 || files[0].Content != "l2\nl3" {
		t.Errorf("got %+v, want lines 2-3", files[0])
	}
}

func TestProcess_UnknownCommandYieldsFailingSpanWithoutAborting(t *testing.T) {
	root := t.TempDir()
	writeWorkspaceFile(t, root, "a.py", "x\n")
	state := newTestState(t, []string{root})

	result := NewRegistry().Process(state, "@bogus foo @file a.py", 10)

	if len(result.Spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(result.Spans))
	}
	if result.Spans[0].OK {
		t.Error("expected the unknown command span to be not-ok")
	}
	if !result.Spans[1].OK {
		t.Error("expected the valid @file command to still succeed")
	}
	if len(result.Contexts) != 1 {
		t.Errorf("got %d contexts, want 1 (only the valid command)", len(result.Contexts))
	}
}

func TestProcess_MissingFileYieldsFailingSpan(t *testing.T) {
	root := t.TempDir()
	state := newTestState(t, []string{root})

	result := NewRegistry().Process(state, "@file does/not/exist.go", 10)
	if len(result.Spans) != 1 || result.Spans[0].OK {
		t.Errorf("got %+v, want one failing span", result.Spans)
	}
	if len(result.Contexts) != 0 {
		t.Error("expected no context for a failed command")
	}
}

func TestSplitFileArg_ParsesRangeAndSingleLine(t *testing.T) {
	path, l1, l2, hasRange := SplitFileArg("src/a.go:10-20")
	if path != "src/a.go" || l1 != 10 || l2 != 20 || !hasRange {
		t.Errorf("got (%q, %d, %d, %v), want (src/a.go, 10, 20, true)", path, l1, l2, hasRange)
	}

	path, l1, l2, hasRange = SplitFileArg("src/a.go:5")
	if path != "src/a.go" || l1 != 5 || l2 != 5 || !hasRange {
		t.Errorf("got (%q, %d, %d, %v), want (src/a.go, 5, 5, true)", path, l1, l2, hasRange)
	}

	path, _, _, hasRange = SplitFileArg("src/a.go")
	if path != "src/a.go" || hasRange {
		t.Errorf("got (%q, hasRange=%v), want no range", path, hasRange)
	}
}

func TestParse_FindsMultipleCommandsWithOffsets(t *testing.T) {
	text := "please look at @file a.go and @tree src"
	parsed := Parse(text)
	if len(parsed) != 2 {
		t.Fatalf("got %d commands, want 2", len(parsed))
	}
	if parsed[0].Name != "file" || parsed[1].Name != "tree" {
		t.Errorf("got names %q, %q", parsed[0].Name, parsed[1].Name)
	}
	if text[parsed[0].StartPos] != '@' {
		t.Errorf("StartPos %d does not point at '@', got %q", parsed[0].StartPos, text[parsed[0].StartPos])
	}
}
