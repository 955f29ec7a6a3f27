package patch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

func TestLocateWindow_ExactMatch(t *testing.T) {
	lines := []string{"package main", "", "func main() {", "\tprintln(1)", "}"}
	l1, l2, err := locateWindow(lines, []string{"func main() {", "\tprintln(1)"})
	if err != nil {
		t.Fatalf("locateWindow: %v", err)
	}
	if l1 != 3 || l2 != 4 {
		t.Errorf("got (%d,%d), want (3,4)", l1, l2)
	}
}

func TestLocateWindow_FuzzyMatchToleratesOneLineDrift(t *testing.T) {
	lines := []string{"a", "b changed", "c", "d"}
	l1, l2, err := locateWindow(lines, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("locateWindow: %v", err)
	}
	if l1 != 1 || l2 != 3 {
		t.Errorf("got (%d,%d), want (1,3)", l1, l2)
	}
}

func TestLocateWindow_NoMatch(t *testing.T) {
	lines := []string{"a", "b", "c"}
	_, _, err := locateWindow(lines, []string{"x", "y", "z"})
	if err == nil {
		t.Fatal("expected no-match error")
	}
}

func TestApplyChunk_PartialEdit(t *testing.T) {
	content := "package main\n\nfunc main() {\n\tfmt.Println(\"old\")\n}\n"
	chunk := chatmsg.DiffChunk{
		LinesOrig: []string{"func main() {", "\tfmt.Println(\"old\")", "}"},
		LinesAdd:  []string{"func main() {", "\tfmt.Println(\"new\")", "}"},
	}
	out, err := ApplyChunk(content, chunk)
	if err != nil {
		t.Fatalf("ApplyChunk: %v", err)
	}
	want := "package main\n\nfunc main() {\n\tfmt.Println(\"new\")\n}\n"
	if out != want {
		t.Errorf("out = %q, want %q", out, want)
	}
}

func TestWriteAtomic_NewFile(t *testing.T) {
	dir := t.TempDir()
	chunk := chatmsg.DiffChunk{LinesAdd: []string{"package main"}}
	if err := WriteAtomic(dir, "sub/new.go", []chatmsg.DiffChunk{chunk}, false, true); err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "sub/new.go"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "package main\n" {
		t.Errorf("content = %q", string(data))
	}
}

func TestWriteAtomic_RejectsEscapingPath(t *testing.T) {
	dir := t.TempDir()
	err := WriteAtomic(dir, "../outside.go", nil, false, true)
	if err == nil {
		t.Fatal("expected error for path escaping workspace root")
	}
}

func TestVoteChunks_MajorityWins(t *testing.T) {
	candidates := []chatmsg.DiffChunk{
		{LinesAdd: []string{"a"}},
		{LinesAdd: []string{"b"}},
		{LinesAdd: []string{"a"}},
	}
	winner := VoteChunks(candidates)
	if winner.LinesAdd[0] != "a" || winner.Votes != 2 {
		t.Errorf("winner = %+v, want a with 2 votes", winner)
	}
}
