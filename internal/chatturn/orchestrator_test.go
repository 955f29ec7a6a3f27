package chatturn

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nexuslang/nexus-lsp/internal/atcommands"
	"github.com/nexuslang/nexus-lsp/internal/caps"
	"github.com/nexuslang/nexus-lsp/internal/modelendpoint"
	"github.com/nexuslang/nexus-lsp/internal/scratchpad"
	"github.com/nexuslang/nexus-lsp/internal/sharedstate"
	"github.com/nexuslang/nexus-lsp/internal/tokenizer"
	"github.com/nexuslang/nexus-lsp/internal/toolregistry"
	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// scriptedEndpoint replies with a fixed sequence of turns: each call to
// Complete pops the next scripted response off the queue.
type scriptedEndpoint struct {
	turns [][]*modelendpoint.Chunk
	calls int
}

func (e *scriptedEndpoint) Style() string { return "test" }

func (e *scriptedEndpoint) Complete(ctx context.Context, req *modelendpoint.Request) (<-chan *modelendpoint.Chunk, error) {
	turn := e.turns[e.calls]
	e.calls++
	ch := make(chan *modelendpoint.Chunk, len(turn))
	for _, c := range turn {
		ch <- c
	}
	close(ch)
	return ch, nil
}

type echoTool struct{}

func (echoTool) Name() string            { return "echo" }
func (echoTool) Description() string     { return "echoes its input" }
func (echoTool) Schema() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (echoTool) Confirm() []string       { return nil }
func (echoTool) Deny() []string          { return nil }
func (echoTool) AskUser() []string       { return nil }
func (echoTool) Execute(ctx context.Context, params json.RawMessage) (*chatmsg.ToolResult, error) {
	return &chatmsg.ToolResult{Content: "echoed: " + string(params)}, nil
}

func newTestOrchestrator(t *testing.T, endpoint modelendpoint.Endpoint) *Orchestrator {
	t.Helper()
	tok := tokenizer.NewCache(map[string]string{"test-model": "cl100k_base"})
	tools := toolregistry.NewRegistry(nil)
	if err := tools.Register(echoTool{}); err != nil {
		t.Fatalf("register tool: %v", err)
	}
	models := modelendpoint.NewRegistry()
	models.RegisterStyle("test", endpoint)
	models.BindModel("test-model", "test")

	state := sharedstate.New(models, tools, tok)
	state.SetCaps(&caps.Caps{
		DefaultChatModel: "test-model",
		Models: map[string]caps.ModelRecord{
			"test-model": {Name: "test-model", Style: "test", SupportsScratchpad: "passthrough", TokenizerEncoding: "cl100k_base"},
		},
	})

	return NewOrchestrator(state, atcommands.NewRegistry(), scratchpad.NewRegistry(), NewPromptTable())
}

func drain(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var out []Event
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

func TestRunTurnNoToolCallsEndsImmediately(t *testing.T) {
	endpoint := &scriptedEndpoint{turns: [][]*modelendpoint.Chunk{
		{{Text: "hello"}, {Text: " there"}},
	}}
	o := newTestOrchestrator(t, endpoint)

	events, err := o.RunTurn(context.Background(), nil, chatmsg.ChatMessage{Role: chatmsg.RoleUser, Content: "hi"}, TurnOptions{
		Model:    "test-model",
		ChatMode: ModeNoTools,
	})
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}

	got := drain(t, events)
	if len(got) == 0 {
		t.Fatal("expected at least one event")
	}
	last := got[len(got)-1]
	if last.Kind != EventDone {
		t.Fatalf("expected terminal EventDone, got %s (err=%v)", last.Kind, last.Err)
	}
	if last.Message.Content != "hello there" {
		t.Fatalf("unexpected assistant content: %q", last.Message.Content)
	}
}

func TestRunTurnDispatchesToolCallThenEnds(t *testing.T) {
	endpoint := &scriptedEndpoint{turns: [][]*modelendpoint.Chunk{
		{{ToolCall: &chatmsg.ToolCall{ID: "1", Name: "echo", Input: json.RawMessage(`{"x":1}`)}}},
		{{Text: "done"}},
	}}
	o := newTestOrchestrator(t, endpoint)

	events, err := o.RunTurn(context.Background(), nil, chatmsg.ChatMessage{Role: chatmsg.RoleUser, Content: "run echo"}, TurnOptions{
		Model:    "test-model",
		ChatMode: ModeAgent,
	})
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}

	got := drain(t, events)
	var sawToolResult, sawDone bool
	for _, ev := range got {
		switch ev.Kind {
		case EventToolResult:
			sawToolResult = true
		case EventDone:
			sawDone = true
		case EventError:
			t.Fatalf("unexpected error event: %v", ev.Err)
		}
	}
	if !sawToolResult {
		t.Fatal("expected a tool_result event")
	}
	if !sawDone {
		t.Fatal("expected a terminal done event")
	}
}

func TestRunTurnUnknownModelErrors(t *testing.T) {
	o := newTestOrchestrator(t, &scriptedEndpoint{})
	_, err := o.RunTurn(context.Background(), nil, chatmsg.ChatMessage{Content: "hi"}, TurnOptions{Model: "nope"})
	if err == nil {
		t.Fatal("expected error for unknown model")
	}
}

func TestRunTurnRespectsContextCancellation(t *testing.T) {
	endpoint := &scriptedEndpoint{turns: [][]*modelendpoint.Chunk{{{Text: "x"}}}}
	o := newTestOrchestrator(t, endpoint)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events, err := o.RunTurn(ctx, nil, chatmsg.ChatMessage{Content: "hi"}, TurnOptions{Model: "test-model"})
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}

	got := drain(t, events)
	if len(got) == 0 {
		t.Fatal("expected at least an error event")
	}
	last := got[len(got)-1]
	if last.Kind != EventError {
		t.Fatalf("expected cancellation to surface as EventError, got %s", last.Kind)
	}
}
