// Package sharedstate implements the single process-lifetime record every
// entry point threads explicitly. It holds the hot-swappable caps
// snapshot, the model and tool registries, workspace roots, the tokenizer
// cache, optional vector/AST index handles, live integration sessions, and
// a shared HTTP client.
//
// Grounded on internal/config's Config-loading pattern (swap a fully-built
// value rather than mutate fields in place) and internal/agent/
// tool_registry.go's RWMutex-guarded map plus its per-key sessionLock
// pattern, generalized from a single tools map to the full set of
// capabilities a chat turn needs concurrent access to.
package sharedstate

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/nexuslang/nexus-lsp/internal/caps"
	"github.com/nexuslang/nexus-lsp/internal/modelendpoint"
	"github.com/nexuslang/nexus-lsp/internal/tokenizer"
	"github.com/nexuslang/nexus-lsp/internal/toolregistry"
)

// VectorIndex is the capability-holding handle for the vector search
// backend behind the @search command and the search() tool. The concrete
// embedding/indexing backend is an external collaborator; the core only
// depends on this narrow interface.
type VectorIndex interface {
	// Search returns the top-k hits for query, optionally restricted to a
	// file or directory scope prefix (the at_file_search.rs Scope
	// semantics).
	Search(query string, scope string, topN int) ([]VectorHit, error)
}

// VectorHit is one ranked result from a VectorIndex.Search call.
type VectorHit struct {
	FileName string
	Line1    int
	Line2    int
	Score    float64
}

// ASTIndex is the capability-holding handle for symbol lookups behind the
// @definition/@references commands and the definition()/references() tools.
type ASTIndex interface {
	Definition(symbol string) ([]SymbolLocation, error)
	References(symbol string) ([]SymbolLocation, error)
}

// SymbolLocation names a symbol's declaration or usage range, used both by
// the AST index and by the patch engine's REWRITE_SYMBOL resolution.
type SymbolLocation struct {
	FileName string
	Line1    int
	Line2    int
}

// IntegrationSession is a live session an integration tool (shell,
// postgres, mysql, github, gitlab, chrome, docker) keeps open across tool
// calls within one chat. Sessions carry their own mutex so one session's
// in-flight command doesn't block another session's.
type IntegrationSession struct {
	mu      sync.Mutex
	Closer  func() error
	Payload any // integration-specific connection handle
}

// Lock acquires the session's own mutex for the duration of one command.
func (s *IntegrationSession) Lock()   { s.mu.Lock() }
func (s *IntegrationSession) Unlock() { s.mu.Unlock() }

type sessionKey struct {
	integration string
	chatID      string
}

// State is the process-wide shared record. Every field that can change after
// construction is protected by mu; fields that are themselves safe for
// concurrent use (the registries) are not re-guarded here.
type State struct {
	mu sync.RWMutex

	caps           *caps.Caps
	workspaceRoots []string
	vectorIndex    VectorIndex
	astIndex       ASTIndex

	sessionsMu sync.Mutex
	sessions   map[sessionKey]*IntegrationSession

	Models     *modelendpoint.Registry
	Tools      *toolregistry.Registry
	Tokenizers *tokenizer.Cache
	HTTPClient *http.Client
}

// New constructs an empty State. Callers populate caps, workspace roots,
// and registries via the setter methods before serving requests; this
// mirrors internal/config's Load-then-apply-defaults-then-validate
// sequencing, generalized to an in-memory record instead of a config file.
func New(models *modelendpoint.Registry, tools *toolregistry.Registry, tokenizers *tokenizer.Cache) *State {
	return &State{
		sessions:   make(map[sessionKey]*IntegrationSession),
		Models:     models,
		Tools:      tools,
		Tokenizers: tokenizers,
		HTTPClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// Caps returns the current caps snapshot. Safe to call from any
// goroutine; the returned pointer is immutable once published by
// SetCaps/ReloadCaps, so callers may read it after the lock is released
// without racing a concurrent reload.
func (s *State) Caps() *caps.Caps {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.caps
}

// SetCaps publishes a new caps snapshot. Callers must build the full
// *caps.Caps value (e.g. via caps.Load) before calling this — the lock is
// held only for the pointer swap, never across the file/network read that
// produced newCaps: readers take shared access per-request, writers swap
// an owned value instead of holding the lock across I/O.
func (s *State) SetCaps(newCaps *caps.Caps) {
	s.mu.Lock()
	s.caps = newCaps
	s.mu.Unlock()
}

// WorkspaceRoots returns the currently declared workspace roots.
func (s *State) WorkspaceRoots() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.workspaceRoots))
	copy(out, s.workspaceRoots)
	return out
}

// SetWorkspaceRoots replaces the workspace root list wholesale.
func (s *State) SetWorkspaceRoots(roots []string) {
	owned := make([]string, len(roots))
	copy(owned, roots)
	s.mu.Lock()
	s.workspaceRoots = owned
	s.mu.Unlock()
}

// InWorkspace reports whether path lies inside at least one declared
// workspace root, the check every at-command and tool enforces before
// touching the filesystem.
func (s *State) InWorkspace(absPath string) bool {
	roots := s.WorkspaceRoots()
	for _, root := range roots {
		if absPath == root {
			return true
		}
		if len(absPath) > len(root) && absPath[:len(root)] == root && (root[len(root)-1] == '/' || absPath[len(root)] == '/') {
			return true
		}
	}
	return false
}

// VectorIndex returns the optional vector-search handle, or nil if no
// backend has been attached — callers degrade search() to an empty result
// set in that case rather than treating it as an error.
func (s *State) VectorIndex() VectorIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vectorIndex
}

// SetVectorIndex attaches or replaces the vector-search backend.
func (s *State) SetVectorIndex(idx VectorIndex) {
	s.mu.Lock()
	s.vectorIndex = idx
	s.mu.Unlock()
}

// ASTIndex returns the optional AST-symbol-index handle.
func (s *State) ASTIndex() ASTIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.astIndex
}

// SetASTIndex attaches or replaces the AST-symbol-index backend.
func (s *State) SetASTIndex(idx ASTIndex) {
	s.mu.Lock()
	s.astIndex = idx
	s.mu.Unlock()
}

// Session returns the live session for (integration, chatID), creating one
// via factory on first use. The acquire-or-create step is exclusive;
// factory must not block on network I/O with the exclusive lock held for
// longer than constructing the session's local bookkeeping — long-lived
// connection setup should happen inside factory's returned session after
// the map slot is published, or factory should be cheap and let the first
// command populate Payload lazily.
func (s *State) Session(integration, chatID string, factory func() *IntegrationSession) *IntegrationSession {
	key := sessionKey{integration: integration, chatID: chatID}

	s.sessionsMu.Lock()
	sess, ok := s.sessions[key]
	if !ok {
		sess = factory()
		s.sessions[key] = sess
	}
	s.sessionsMu.Unlock()
	return sess
}

// CloseSession tears down and forgets a live integration session, e.g. on
// explicit disconnect or chat-end cleanup.
func (s *State) CloseSession(integration, chatID string) error {
	key := sessionKey{integration: integration, chatID: chatID}

	s.sessionsMu.Lock()
	sess, ok := s.sessions[key]
	if ok {
		delete(s.sessions, key)
	}
	s.sessionsMu.Unlock()

	if !ok || sess.Closer == nil {
		return nil
	}
	if err := sess.Closer(); err != nil {
		return fmt.Errorf("sharedstate: closing session %s/%s: %w", integration, chatID, err)
	}
	return nil
}
