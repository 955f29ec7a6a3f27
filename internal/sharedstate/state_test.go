package sharedstate

import (
	"testing"

	"github.com/nexuslang/nexus-lsp/internal/caps"
	"github.com/nexuslang/nexus-lsp/internal/modelendpoint"
	"github.com/nexuslang/nexus-lsp/internal/tokenizer"
	"github.com/nexuslang/nexus-lsp/internal/toolregistry"
)

func newTestState() *State {
	return New(modelendpoint.NewRegistry(), toolregistry.NewRegistry(nil), tokenizer.NewCache(nil))
}

func TestSetCaps_PublishesSnapshot(t *testing.T) {
	s := newTestState()
	if s.Caps() != nil {
		t.Fatal("expected nil caps before SetCaps")
	}
	c := &caps.Caps{DefaultChatModel: "gpt-4o", Models: map[string]caps.ModelRecord{"gpt-4o": {Style: "openai"}}}
	s.SetCaps(c)
	if s.Caps() != c {
		t.Error("Caps() did not return the published snapshot")
	}
}

func TestWorkspaceRoots_CopyIsIndependent(t *testing.T) {
	s := newTestState()
	s.SetWorkspaceRoots([]string{"/repo"})
	roots := s.WorkspaceRoots()
	roots[0] = "mutated"
	if s.WorkspaceRoots()[0] != "/repo" {
		t.Error("mutating the returned slice affected internal state")
	}
}

func TestInWorkspace_MatchesRootAndSubpath(t *testing.T) {
	s := newTestState()
	s.SetWorkspaceRoots([]string{"/repo"})

	cases := []struct {
		path string
		want bool
	}{
		{"/repo", true},
		{"/repo/src/a.go", true},
		{"/repository/a.go", false},
		{"/other/a.go", false},
	}
	for _, c := range cases {
		if got := s.InWorkspace(c.path); got != c.want {
			t.Errorf("InWorkspace(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

func TestSession_CreatesOnceAndReuses(t *testing.T) {
	s := newTestState()
	calls := 0
	factory := func() *IntegrationSession {
		calls++
		return &IntegrationSession{}
	}

	first := s.Session("shell", "chat-1", factory)
	second := s.Session("shell", "chat-1", factory)
	if first != second {
		t.Error("expected the same session instance on repeated lookup")
	}
	if calls != 1 {
		t.Errorf("factory called %d times, want 1", calls)
	}

	other := s.Session("shell", "chat-2", factory)
	if other == first {
		t.Error("expected a distinct session for a distinct chat id")
	}
	if calls != 2 {
		t.Errorf("factory called %d times, want 2", calls)
	}
}

func TestCloseSession_InvokesCloserAndForgets(t *testing.T) {
	s := newTestState()
	closed := false
	s.Session("postgres", "chat-1", func() *IntegrationSession {
		return &IntegrationSession{Closer: func() error {
			closed = true
			return nil
		}}
	})

	if err := s.CloseSession("postgres", "chat-1"); err != nil {
		t.Fatalf("CloseSession: %v", err)
	}
	if !closed {
		t.Error("expected Closer to be invoked")
	}

	calls := 0
	s.Session("postgres", "chat-1", func() *IntegrationSession {
		calls++
		return &IntegrationSession{}
	})
	if calls != 1 {
		t.Error("expected a fresh session to be created after close")
	}
}

func TestCloseSession_UnknownKeyIsNoop(t *testing.T) {
	s := newTestState()
	if err := s.CloseSession("shell", "missing"); err != nil {
		t.Errorf("CloseSession on unknown key: %v", err)
	}
}
