package atcommands

import (
	"testing"

	"github.com/nexuslang/nexus-lsp/internal/sharedstate"
)

type fakeVectorIndex struct {
	lastScope string
	hits      []sharedstate.VectorHit
}

func (f *fakeVectorIndex) Search(query, scope string, topN int) ([]sharedstate.VectorHit, error) {
	f.lastScope = scope
	return f.hits, nil
}

type fakeASTIndex struct {
	defs []sharedstate.SymbolLocation
	refs []sharedstate.SymbolLocation
}

func (f *fakeASTIndex) Definition(symbol string) ([]sharedstate.SymbolLocation, error) { return f.defs, nil }
func (f *fakeASTIndex) References(symbol string) ([]sharedstate.SymbolLocation, error) { return f.refs, nil }

func TestProcess_SearchCommandUsesVectorIndex(t *testing.T) {
	root := t.TempDir()
	state := newTestState(t, []string{root})
	idx := &fakeVectorIndex{hits: []sharedstate.VectorHit{{FileName: "a.go", Line1: 1, Line2: 5, Score: 0.9}}}
	state.SetVectorIndex(idx)

	result := NewRegistry().Process(state, "@search how does auth work", 5)
	if len(result.Contexts) != 1 {
		t.Fatalf("got %d contexts, want 1", len(result.Contexts))
	}
	if len(result.Contexts[0].Files) != 1 || result.Contexts[0].Files[0].Path != "a.go" {
		t.Errorf("got %+v, want a.go hit", result.Contexts[0].Files)
	}
	if idx.lastScope != "" {
		t.Errorf("expected empty scope filter for a bare query, got %q", idx.lastScope)
	}
}

func TestProcess_SearchWithoutVectorIndexFails(t *testing.T) {
	root := t.TempDir()
	state := newTestState(t, []string{root})

	result := NewRegistry().Process(state, "@search anything", 5)
	if len(result.Contexts) != 0 || result.Spans[0].OK {
		t.Errorf("expected a failing span when no vector index is attached, got %+v / %+v", result.Contexts, result.Spans)
	}
}

func TestProcess_DefinitionCommandUsesASTIndex(t *testing.T) {
	root := t.TempDir()
	state := newTestState(t, []string{root})
	state.SetASTIndex(&fakeASTIndex{defs: []sharedstate.SymbolLocation{{FileName: "b.go", Line1: 10, Line2: 20}}})

	result := NewRegistry().Process(state, "@definition Foo", 5)
	if len(result.Contexts) != 1 || result.Contexts[0].Files[0].Path != "b.go" {
		t.Fatalf("got %+v", result.Contexts)
	}
}
