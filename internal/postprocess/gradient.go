package postprocess

import (
	"sort"

	"github.com/nexuslang/nexus-lsp/internal/tokenizer"
	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// SpanKind classifies one line-range within a file candidate for the
// purposes of usefulness propagation.
type SpanKind string

const (
	SpanDeclaration SpanKind = "declaration"
	SpanBody        SpanKind = "body"
	SpanParent      SpanKind = "parent"
	SpanComment     SpanKind = "comment"
)

// Span is one line range inside a FileCandidate with its own usefulness
// score before propagation.
type Span struct {
	Kind       SpanKind
	Line1      int
	Line2      int
	Text       string
	Usefulness float64
}

// FileCandidate is one file considered for inclusion, broken into spans
// (declaration/body/parent/comment) with a per-span usefulness score the
// caller (typically the workspace AST index) assigned from how the file was
// reached: directly @-mentioned, referenced by a symbol, or pulled in as a
// parent/enclosing scope.
type FileCandidate struct {
	Path  string
	Spans []Span
}

// GradientConfig tunes the propagation coefficients and admission floor.
// Defaults mirror internal/agent/context/packer.go's defaults in spirit:
// keep the most useful content, drop the rest, without per-file
// special-casing.
type GradientConfig struct {
	// DeclarationCoefficient scales a declaration span's usefulness onto its
	// body (a body is only as useful as the fact its declaration matters).
	DeclarationCoefficient float64
	// ParentCoefficient scales a referenced symbol's usefulness onto its
	// enclosing parent scope (class/module), pulled in for context.
	ParentCoefficient float64
	// CommentCoefficient scales a declaration's usefulness onto its leading
	// comment.
	CommentCoefficient float64
	// FloorDrop is the usefulness threshold below which a span is dropped
	// entirely rather than admitted at low priority.
	FloorDrop float64
	// GapCloseLines: if an admitted span starts no more than this many lines
	// after the previous admitted span in the same file ends (with the
	// default of 2, a dropped gap of at most one line), the two spans are
	// merged into one range instead of leaving a hole, to avoid useless "..."
	// runs around a one-line gap.
	GapCloseLines int
}

// DefaultGradientConfig returns the coefficients used when caps.yaml
// doesn't override them.
func DefaultGradientConfig() GradientConfig {
	return GradientConfig{
		DeclarationCoefficient: 0.5,
		ParentCoefficient:      0.3,
		CommentCoefficient:     0.8,
		FloorDrop:              0.05,
		GapCloseLines:          2,
	}
}

// Gradient compresses ContextFile candidates against a token budget.
type Gradient struct {
	cfg GradientConfig
	tok *tokenizer.Cache
}

// NewGradient creates a gradient compressor with the given config (zero
// value config falls back to DefaultGradientConfig).
func NewGradient(cfg GradientConfig, tok *tokenizer.Cache) *Gradient {
	if cfg.FloorDrop == 0 && cfg.DeclarationCoefficient == 0 {
		cfg = DefaultGradientConfig()
	}
	return &Gradient{cfg: cfg, tok: tok}
}

// propagate applies the declaration/body/parent/comment coefficients onto
// each span's raw usefulness, in place.
func (g *Gradient) propagate(spans []Span) {
	for i := range spans {
		switch spans[i].Kind {
		case SpanBody:
			spans[i].Usefulness *= g.cfg.DeclarationCoefficient
		case SpanParent:
			spans[i].Usefulness *= g.cfg.ParentCoefficient
		case SpanComment:
			spans[i].Usefulness *= g.cfg.CommentCoefficient
		}
	}
}

// floorDrop removes spans whose propagated usefulness falls below the
// configured floor.
func (g *Gradient) floorDrop(spans []Span) []Span {
	out := spans[:0]
	for _, s := range spans {
		if s.Usefulness >= g.cfg.FloorDrop {
			out = append(out, s)
		}
	}
	return out
}

// closeGaps merges adjacent admitted spans within the same file when the
// next span starts at most gapLines lines after the previous one ends, so
// the rendered file doesn't show a pointless one-line hole.
func closeGaps(spans []Span, gapLines int) []Span {
	if len(spans) < 2 {
		return spans
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Line1 < spans[j].Line1 })
	merged := []Span{spans[0]}
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.Line1-last.Line2 <= gapLines {
			if s.Line2 > last.Line2 {
				last.Line2 = s.Line2
			}
			if s.Usefulness > last.Usefulness {
				last.Usefulness = s.Usefulness
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// rankFiles orders candidates by their best surviving span's usefulness,
// descending, so the greedy admission pass favors the most relevant files
// first the same way the packer favors the most recent messages first.
func rankFiles(candidates []FileCandidate) []FileCandidate {
	ranked := make([]FileCandidate, len(candidates))
	copy(ranked, candidates)
	best := func(c FileCandidate) float64 {
		m := 0.0
		for _, s := range c.Spans {
			if s.Usefulness > m {
				m = s.Usefulness
			}
		}
		return m
	}
	sort.SliceStable(ranked, func(i, j int) bool { return best(ranked[i]) > best(ranked[j]) })
	return ranked
}

// Compress runs the full gradient pipeline: propagate, floor-drop,
// gap-close per file, rank files, then greedily admit spans (highest
// usefulness file first, highest usefulness span first within a file),
// skipping any span whose tokens no longer fit model's budget. It returns
// one ContextFile per admitted span range, in file-rank order.
func (g *Gradient) Compress(model string, candidates []FileCandidate, maxTokens int) ([]chatmsg.ContextFile, error) {
	working := make([]FileCandidate, len(candidates))
	for i, c := range candidates {
		spans := make([]Span, len(c.Spans))
		copy(spans, c.Spans)
		g.propagate(spans)
		spans = g.floorDrop(spans)
		spans = closeGaps(spans, g.cfg.GapCloseLines)
		working[i] = FileCandidate{Path: c.Path, Spans: spans}
	}
	working = rankFiles(working)

	var out []chatmsg.ContextFile
	used := 0
	for _, c := range working {
		sort.Slice(c.Spans, func(i, j int) bool { return c.Spans[i].Usefulness > c.Spans[j].Usefulness })
		for _, s := range c.Spans {
			n, err := g.tok.Count(model, s.Text)
			if err != nil {
				return nil, err
			}
			if used+n > maxTokens {
				continue
			}
			used += n
			out = append(out, chatmsg.ContextFile{
				Path:       c.Path,
				Content:    s.Text,
				Line1:      s.Line1,
				Line2:      s.Line2,
				Usefulness: s.Usefulness,
			})
		}
	}
	return out, nil
}
