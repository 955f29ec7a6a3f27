package toolregistry

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nexuslang/nexus-lsp/internal/tools/policy"
	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

type stubTool struct {
	name    string
	schema  json.RawMessage
	confirm []string
	deny    []string
	ask     []string
	execErr error
}

func (s *stubTool) Name() string            { return s.name }
func (s *stubTool) Description() string     { return "stub tool for tests" }
func (s *stubTool) Schema() json.RawMessage { return s.schema }
func (s *stubTool) Confirm() []string       { return s.confirm }
func (s *stubTool) Deny() []string          { return s.deny }
func (s *stubTool) AskUser() []string       { return s.ask }
func (s *stubTool) Execute(ctx context.Context, params json.RawMessage) (*chatmsg.ToolResult, error) {
	if s.execErr != nil {
		return nil, s.execErr
	}
	return &chatmsg.ToolResult{Content: "ok"}, nil
}

func TestRegistry_RegisterAndExecute(t *testing.T) {
	r := NewRegistry(nil)
	schema := json.RawMessage(`{"type":"object","properties":{"path":{"type":"string"}},"required":["path"]}`)
	if err := r.Register(&stubTool{name: "cat", schema: schema}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	res, err := r.Execute(context.Background(), "cat", json.RawMessage(`{"path":"a.go"}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Content != "ok" {
		t.Errorf("Content = %q, want ok", res.Content)
	}
}

func TestRegistry_ExecuteRejectsSchemaMismatch(t *testing.T) {
	r := NewRegistry(nil)
	schema := json.RawMessage(`{"type":"object","properties":{"path":{"type":"string"}},"required":["path"]}`)
	if err := r.Register(&stubTool{name: "cat", schema: schema}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := r.Execute(context.Background(), "cat", json.RawMessage(`{}`))
	if err == nil {
		t.Fatal("expected schema validation error for missing required field")
	}
}

func TestRegistry_ExecuteUnknownTool(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Execute(context.Background(), "nope", json.RawMessage(`{}`))
	if err == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestRegistry_Descriptors(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&stubTool{name: "exec", ask: []string{"exec"}})

	descs := r.Descriptors()
	if len(descs) != 1 {
		t.Fatalf("len(descs) = %d, want 1", len(descs))
	}
	if descs[0].Name != "exec" {
		t.Errorf("Name = %q, want exec", descs[0].Name)
	}
}

func TestRegistry_MatchAgainstConfirmDeny(t *testing.T) {
	r := NewRegistry(nil)
	p := &policy.Policy{Allow: []string{"exec"}, AskUser: []string{"exec"}}

	d := r.MatchAgainstConfirmDeny(p, "exec")
	if d.Verdict != policy.VerdictConfirmation {
		t.Fatalf("Verdict = %q, want confirmation", d.Verdict)
	}
}
