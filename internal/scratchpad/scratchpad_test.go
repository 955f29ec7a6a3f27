package scratchpad

import (
	"strings"
	"testing"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

func TestRegistryResolveDefault(t *testing.T) {
	r := NewRegistry()
	sp, err := r.Resolve("")
	if err != nil {
		t.Fatalf("resolve default: %v", err)
	}
	if sp.Name() != "passthrough" {
		t.Fatalf("expected default passthrough, got %s", sp.Name())
	}
}

func TestRegistryResolveUnknown(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Resolve("nonexistent"); err == nil {
		t.Fatal("expected error for unknown scratchpad style")
	}
}

func TestPassthroughRoundTrip(t *testing.T) {
	sp := NewPassthrough()
	in := []chatmsg.ChatMessage{{Role: chatmsg.RoleUser, Content: "hello"}}
	prompt, err := sp.Render(in, Params{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(prompt.Messages) != 1 || prompt.Messages[0].Content != "hello" {
		t.Fatalf("unexpected rendered messages: %+v", prompt.Messages)
	}
	out, err := sp.Parse("world")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(out) != 1 || out[0].Content != "world" {
		t.Fatalf("unexpected parsed messages: %+v", out)
	}
}

func TestChatCompletionRenderIncludesHeaders(t *testing.T) {
	sp := NewChatCompletion()
	in := []chatmsg.ChatMessage{
		{Role: chatmsg.RoleSystem, Content: "be helpful"},
		{Role: chatmsg.RoleUser, Content: "hi there"},
	}
	prompt, err := sp.Render(in, Params{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(prompt.Text, "system:\nbe helpful") {
		t.Fatalf("missing system header: %s", prompt.Text)
	}
	if !strings.Contains(prompt.Text, "user:\nhi there") {
		t.Fatalf("missing user header: %s", prompt.Text)
	}
	if !strings.HasSuffix(prompt.Text, "assistant:\n") {
		t.Fatalf("expected trailing assistant header, got %s", prompt.Text)
	}
}

func TestChatCompletionParseStopsAtNextHeader(t *testing.T) {
	sp := NewChatCompletion()
	out, err := sp.Parse("the answer is 42\n\nuser:\nfollowup question")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(out) != 1 || out[0].Content != "the answer is 42" {
		t.Fatalf("unexpected parse result: %+v", out)
	}
}

func TestCodeCompletionRenderWrapsPrefixSuffix(t *testing.T) {
	sp := NewCodeCompletion("<PRE>", "<SUF>", "<MID>", "<EOT>")
	in := []chatmsg.ChatMessage{
		{Content: "func foo() {"},
		{Content: "}\n"},
	}
	prompt, err := sp.Render(in, Params{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "<PRE>func foo() {<SUF>}\n<MID>"
	if prompt.Text != want {
		t.Fatalf("render = %q, want %q", prompt.Text, want)
	}
	if len(prompt.Stop) == 0 || prompt.Stop[0] != "<EOT>" {
		t.Fatalf("expected eot stop token first, got %v", prompt.Stop)
	}
}

func TestCodeCompletionParseTrimsAtEOT(t *testing.T) {
	sp := NewCodeCompletion("<PRE>", "<SUF>", "<MID>", "<EOT>")
	out, err := sp.Parse("    return 1\n<EOT>garbage")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(out) != 1 || out[0].Content != "    return 1\n" {
		t.Fatalf("unexpected parse result: %+v", out)
	}
}
