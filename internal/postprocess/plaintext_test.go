package postprocess

import (
	"strings"
	"testing"

	"github.com/nexuslang/nexus-lsp/internal/tokenizer"
)

func TestPlainTextBudget_FitsUnderBudgetUnchanged(t *testing.T) {
	tok := tokenizer.NewCache(nil)
	b := NewPlainTextBudget(tok)

	text := "short text\n"
	out, dropped, err := b.Truncate("gpt-4", text, 1000)
	if err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	if out != text {
		t.Errorf("out = %q, want unchanged %q", out, text)
	}
	if dropped != 0 {
		t.Errorf("dropped = %d, want 0", dropped)
	}
}

func TestPlainTextBudget_DropsLeadingLinesUnderBudget(t *testing.T) {
	tok := tokenizer.NewCache(nil)
	b := NewPlainTextBudget(tok)

	var sb strings.Builder
	for i := 0; i < 200; i++ {
		sb.WriteString("this is line number filler content to push token count up\n")
	}
	text := sb.String()

	out, dropped, err := b.Truncate("gpt-4", text, 50)
	if err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	if dropped == 0 {
		t.Fatalf("expected some lines dropped for a tight budget")
	}
	n, err := tok.Count("gpt-4", out)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n > 50 {
		t.Errorf("resulting token count = %d, want <= 50", n)
	}
}
