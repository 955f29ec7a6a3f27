// Package toolregistry implements the tool registry and descriptor
// catalog the orchestrator dispatches against, plus the confirm/deny/
// ask_user policy gate in front of every dispatch.
//
// Grounded on internal/agent/tool_registry.go (registry shape, name/size
// validation, AsLLMTools) and internal/tools/policy (the confirm/deny/
// ask_user Resolver), generalized to the chatmsg.ToolCall/ToolResult/
// ToolDesc data model.
package toolregistry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nexuslang/nexus-lsp/internal/tools/policy"
	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

const (
	// MaxToolNameLength bounds tool names the same way internal/agent/
	// tool_registry.go does, to keep a misbehaving model call from
	// ballooning log lines.
	MaxToolNameLength = 256
	// MaxToolParamsSize bounds a single tool call's argument payload.
	MaxToolParamsSize = 10 << 20
)

// Tool is the contract every tool implementation satisfies. The shape
// mirrors internal/agent/tool_registry.go's agent.Tool interface (Name/
// Description/Schema/Execute), with Execute returning the generalized
// chatmsg.ToolResult.
type Tool interface {
	Name() string
	Description() string
	Schema() json.RawMessage
	Confirm() []string
	Deny() []string
	AskUser() []string
	Execute(ctx context.Context, params json.RawMessage) (*chatmsg.ToolResult, error)
}

// Registry holds every registered tool plus its compiled JSON Schema
// validator, and gates dispatch through a policy.Resolver.
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]Tool
	schemas  map[string]*jsonschema.Schema
	resolver *policy.Resolver
}

// NewRegistry creates an empty registry backed by resolver. If resolver is
// nil, a fresh policy.NewResolver() is used.
func NewRegistry(resolver *policy.Resolver) *Registry {
	if resolver == nil {
		resolver = policy.NewResolver()
	}
	return &Registry{
		tools:    make(map[string]Tool),
		schemas:  make(map[string]*jsonschema.Schema),
		resolver: resolver,
	}
}

// Register adds a tool to the registry, compiling its declared schema so
// Execute can reject malformed arguments before they ever reach tool code.
func (r *Registry) Register(t Tool) error {
	name := t.Name()
	if name == "" {
		return fmt.Errorf("toolregistry: tool has empty name")
	}
	if len(name) > MaxToolNameLength {
		return fmt.Errorf("toolregistry: tool name %q exceeds %d chars", name, MaxToolNameLength)
	}

	var compiled *jsonschema.Schema
	if raw := t.Schema(); len(raw) > 0 {
		c := jsonschema.NewCompiler()
		url := "mem://" + name + ".json"
		if err := c.AddResource(url, strings.NewReader(string(raw))); err != nil {
			return fmt.Errorf("toolregistry: adding schema for %q: %w", name, err)
		}
		sch, err := c.Compile(url)
		if err != nil {
			return fmt.Errorf("toolregistry: compiling schema for %q: %w", name, err)
		}
		compiled = sch
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[name] = t
	if compiled != nil {
		r.schemas[name] = compiled
	}
	return nil
}

// Unregister removes a tool.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
	delete(r.schemas, name)
}

// Get returns a registered tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Descriptors returns a ToolDesc for every registered tool, the shape
// advertised to the model and returned by GET /v1/tools.
func (r *Registry) Descriptors() []chatmsg.ToolDesc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]chatmsg.ToolDesc, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, chatmsg.ToolDesc{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Schema(),
			Confirm:     t.Confirm(),
			Deny:        t.Deny(),
			AskUser:     t.AskUser(),
		})
	}
	return out
}

// MatchAgainstConfirmDeny resolves whether a call to toolName may proceed,
// needs interactive confirmation, or is denied, under the given policy:
// the three-way confirm/deny/ask_user gate every tool dispatch passes
// through.
func (r *Registry) MatchAgainstConfirmDeny(p *policy.Policy, toolName string) policy.ConfirmDenyDecision {
	return r.resolver.DecideConfirmDeny(p, toolName)
}

// validateParams checks params against the tool's compiled schema, if any.
func (r *Registry) validateParams(name string, params json.RawMessage) error {
	r.mu.RLock()
	sch, ok := r.schemas[name]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	var v any
	if err := json.Unmarshal(params, &v); err != nil {
		return fmt.Errorf("toolregistry: params for %q are not valid JSON: %w", name, err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("toolregistry: params for %q failed schema validation: %w", name, err)
	}
	return nil
}

// Execute runs a registered tool after validating its arguments against the
// compiled schema and enforcing the argument size cap.
func (r *Registry) Execute(ctx context.Context, name string, params json.RawMessage) (*chatmsg.ToolResult, error) {
	if len(params) > MaxToolParamsSize {
		return nil, fmt.Errorf("toolregistry: params for %q exceed %d bytes", name, MaxToolParamsSize)
	}

	t, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("toolregistry: unknown tool %q", name)
	}

	if err := r.validateParams(name, params); err != nil {
		return nil, err
	}

	return t.Execute(ctx, params)
}

// Resolver exposes the underlying policy resolver, e.g. so callers can
// register MCP/edge-equivalent dynamic tool groups.
func (r *Registry) Resolver() *policy.Resolver {
	return r.resolver
}
