package modelendpoint

import (
	"io"
	"strings"
	"testing"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

func TestRenderHFPrompt_IncludesSystemAndTurns(t *testing.T) {
	prompt := renderHFPrompt("be concise", []chatmsg.ChatMessage{
		{Role: chatmsg.RoleUser, Content: "hi"},
		{Role: chatmsg.RoleAssistant, Content: "hello"},
	})
	if !strings.Contains(prompt, "System: be concise") {
		t.Errorf("prompt missing system preamble: %q", prompt)
	}
	if !strings.Contains(prompt, "User: hi") || !strings.Contains(prompt, "Assistant: hello") {
		t.Errorf("prompt missing turn content: %q", prompt)
	}
	if !strings.HasSuffix(prompt, "Assistant: ") {
		t.Errorf("prompt should end awaiting the assistant turn: %q", prompt)
	}
}

type nopCloser struct{ io.Reader }

func (nopCloser) Close() error { return nil }

func TestProcessHFStream_EmitsTextThenDone(t *testing.T) {
	sse := "data: {\"token\":{\"text\":\"Hel\",\"special\":false}}\n" +
		"data: {\"token\":{\"text\":\"lo\",\"special\":false}}\n" +
		"data: {\"token\":{\"text\":\"\",\"special\":true},\"generated_text\":\"Hello\",\"details\":{\"finish_reason\":\"eos_token\"}}\n"

	out := make(chan *Chunk, 16)
	processHFStream(nopCloser{strings.NewReader(sse)}, out)

	var texts []string
	doneSeen := false
	for c := range out {
		if c.Text != "" {
			texts = append(texts, c.Text)
		}
		if c.Done {
			doneSeen = true
		}
	}
	if strings.Join(texts, "") != "Hello" {
		t.Errorf("got text %q, want Hello", strings.Join(texts, ""))
	}
	if !doneSeen {
		t.Error("expected a Done chunk")
	}
}

func TestProcessHFStream_IgnoresNonDataLines(t *testing.T) {
	sse := ": comment\n\ndata: {\"token\":{\"text\":\"ok\",\"special\":false}}\n"
	out := make(chan *Chunk, 16)
	processHFStream(nopCloser{strings.NewReader(sse)}, out)

	var got string
	for c := range out {
		got += c.Text
	}
	if got != "ok" {
		t.Errorf("got %q, want ok", got)
	}
}
