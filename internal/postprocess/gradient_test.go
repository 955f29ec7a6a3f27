package postprocess

import (
	"testing"

	"github.com/nexuslang/nexus-lsp/internal/tokenizer"
)

func TestGradient_FloorDropRemovesLowUsefulness(t *testing.T) {
	tok := tokenizer.NewCache(nil)
	g := NewGradient(DefaultGradientConfig(), tok)

	candidates := []FileCandidate{
		{
			Path: "main.go",
			Spans: []Span{
				{Kind: SpanDeclaration, Line1: 1, Line2: 1, Text: "func Main() {", Usefulness: 1.0},
				{Kind: SpanBody, Line1: 2, Line2: 2, Text: "  doStuff()", Usefulness: 0.02},
			},
		},
	}

	out, err := g.Compress("gpt-4", candidates, 1000)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1 (body should be floor-dropped)", len(out))
	}
	if out[0].Line1 != 1 {
		t.Errorf("surviving span line1 = %d, want 1", out[0].Line1)
	}
}

func TestGradient_BudgetBoundedAdmission(t *testing.T) {
	tok := tokenizer.NewCache(nil)
	g := NewGradient(DefaultGradientConfig(), tok)

	candidates := []FileCandidate{
		{Path: "a.go", Spans: []Span{{Kind: SpanDeclaration, Line1: 1, Line2: 1, Text: "func A() {}", Usefulness: 0.9}}},
		{Path: "b.go", Spans: []Span{{Kind: SpanDeclaration, Line1: 1, Line2: 1, Text: "func B() {}", Usefulness: 0.5}}},
	}

	out, err := g.Compress("gpt-4", candidates, 1)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("len(out) = %d, want 0 under a 1-token budget", len(out))
	}
}

func TestGradient_RanksMoreUsefulFileFirst(t *testing.T) {
	tok := tokenizer.NewCache(nil)
	g := NewGradient(DefaultGradientConfig(), tok)

	candidates := []FileCandidate{
		{Path: "low.go", Spans: []Span{{Kind: SpanDeclaration, Line1: 1, Line2: 1, Text: "x", Usefulness: 0.2}}},
		{Path: "high.go", Spans: []Span{{Kind: SpanDeclaration, Line1: 1, Line2: 1, Text: "y", Usefulness: 0.9}}},
	}

	out, err := g.Compress("gpt-4", candidates, 1000)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	if out[0].Path != "high.go" {
		t.Errorf("out[0].Path = %q, want high.go (higher usefulness admitted first)", out[0].Path)
	}
}

func TestCloseGaps_MergesSmallGap(t *testing.T) {
	spans := []Span{
		{Line1: 1, Line2: 2, Usefulness: 0.5},
		{Line1: 4, Line2: 5, Usefulness: 0.6},
	}
	merged := closeGaps(spans, 2)
	if len(merged) != 1 {
		t.Fatalf("len(merged) = %d, want 1", len(merged))
	}
	if merged[0].Line2 != 5 {
		t.Errorf("merged.Line2 = %d, want 5", merged[0].Line2)
	}
}

func TestCloseGaps_KeepsLargeGapSeparate(t *testing.T) {
	spans := []Span{
		{Line1: 1, Line2: 2, Usefulness: 0.5},
		{Line1: 50, Line2: 51, Usefulness: 0.6},
	}
	merged := closeGaps(spans, 2)
	if len(merged) != 2 {
		t.Fatalf("len(merged) = %d, want 2", len(merged))
	}
}
