package caps

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCapsFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "caps.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing caps fixture: %v", err)
	}
	return path
}

func TestLoad_ValidCapsResolves(t *testing.T) {
	path := writeCapsFile(t, `
default_chat_model: gpt-4o
models:
  gpt-4o:
    style: openai
    n_ctx: 128000
  claude-3-5-sonnet:
    style: anthropic
    n_ctx: 200000
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	m, ok := c.Resolve("gpt-4o")
	if !ok {
		t.Fatal("expected gpt-4o in catalog")
	}
	if m.Style != "openai" {
		t.Errorf("style = %q, want openai", m.Style)
	}
}

func TestLoad_UnknownDefaultModelFails(t *testing.T) {
	path := writeCapsFile(t, `
default_chat_model: nonexistent
models:
  gpt-4o:
    style: openai
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for unknown default_chat_model")
	}
}

func TestLoad_ModelMissingStyleFails(t *testing.T) {
	path := writeCapsFile(t, `
models:
  gpt-4o:
    n_ctx: 128000
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for model missing style")
	}
}

func TestTokenizerEncodings_OnlyNonEmptyEntries(t *testing.T) {
	c := &Caps{
		Models: map[string]ModelRecord{
			"gpt-4o":   {TokenizerEncoding: "cl100k_base"},
			"untagged": {},
		},
	}
	enc := c.TokenizerEncodings()
	if len(enc) != 1 || enc["gpt-4o"] != "cl100k_base" {
		t.Errorf("got %v, want only gpt-4o mapped", enc)
	}
}
