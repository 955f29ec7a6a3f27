package modelendpoint

import (
	"context"
	"testing"
)

type fakeEndpoint struct{ style string }

func (f *fakeEndpoint) Style() string { return f.style }
func (f *fakeEndpoint) Complete(ctx context.Context, req *Request) (<-chan *Chunk, error) {
	ch := make(chan *Chunk, 1)
	ch <- &Chunk{Done: true}
	close(ch)
	return ch, nil
}

func TestRegistry_ResolveByBoundModel(t *testing.T) {
	r := NewRegistry()
	r.RegisterStyle("openai", &fakeEndpoint{style: "openai"})
	r.BindModel("gpt-4o", "openai")

	ep, ok := r.Resolve("gpt-4o")
	if !ok {
		t.Fatal("expected resolve to succeed")
	}
	if ep.Style() != "openai" {
		t.Errorf("style = %q, want openai", ep.Style())
	}
}

func TestRegistry_ResolveUnknownModelFails(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Resolve("nonexistent"); ok {
		t.Error("expected resolve to fail for an unbound model")
	}
}

func TestRegistry_ResolveStyleNotRegisteredFails(t *testing.T) {
	r := NewRegistry()
	r.BindModel("gpt-4o", "openai")
	if _, ok := r.Resolve("gpt-4o"); ok {
		t.Error("expected resolve to fail when the bound style has no endpoint")
	}
}
