// Package postprocess implements budget-aware compression of plain text
// and context files before they're admitted into a model prompt.
// Grounded on internal/agent/context/packer.go's greedy, budget-bounded
// message selection, generalized from whole messages to token-budgeted
// text and to the usefulness-gradient compression of ContextFile entries.
package postprocess

import (
	"github.com/nexuslang/nexus-lsp/internal/tokenizer"
)

// PlainTextBudget truncates plain text to fit within maxTokens, preferring
// to keep the tail (most recent content) the way internal/agent/context/
// packer.go keeps the newest messages first when walking history
// backwards.
type PlainTextBudget struct {
	tok *tokenizer.Cache
}

// NewPlainTextBudget creates a plain-text budget enforcer backed by tok.
func NewPlainTextBudget(tok *tokenizer.Cache) *PlainTextBudget {
	return &PlainTextBudget{tok: tok}
}

// Truncate greedily drops whole lines from the front of text until it fits
// maxTokens under model's encoder, never splitting a line mid-token. It
// returns the (possibly unmodified) text and the number of lines dropped.
func (b *PlainTextBudget) Truncate(model, text string, maxTokens int) (string, int, error) {
	if maxTokens <= 0 {
		return "", linesIn(text), nil
	}
	count, err := b.tok.Count(model, text)
	if err != nil {
		return "", 0, err
	}
	if count <= maxTokens {
		return text, 0, nil
	}

	lines := splitLinesKeepEnds(text)
	dropped := 0
	for len(lines) > 0 {
		candidate := joinLines(lines)
		count, err := b.tok.Count(model, candidate)
		if err != nil {
			return "", 0, err
		}
		if count <= maxTokens {
			return candidate, dropped, nil
		}
		lines = lines[1:]
		dropped++
	}
	return "", dropped, nil
}

func linesIn(s string) int {
	n := 1
	for _, r := range s {
		if r == '\n' {
			n++
		}
	}
	return n
}

func splitLinesKeepEnds(s string) []string {
	var out []string
	start := 0
	for i, r := range s {
		if r == '\n' {
			out = append(out, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func joinLines(lines []string) string {
	total := 0
	for _, l := range lines {
		total += len(l)
	}
	buf := make([]byte, 0, total)
	for _, l := range lines {
		buf = append(buf, l...)
	}
	return string(buf)
}
