package chattools

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	execpkg "github.com/nexuslang/nexus-lsp/internal/tools/exec"
	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// defaultIntegrationTimeout bounds how long a shell-like integration may
// run before it's canceled, configurable per call.
const defaultIntegrationTimeout = 10 * time.Second

// ShellTool parses a single free-form command argument and executes it
// against the workspace, subject to the tool registry's confirm/deny gate.
// Wraps internal/tools/exec.Manager directly rather than re-implementing
// process management.
type ShellTool struct {
	manager *execpkg.Manager
	deny    []string
}

// NewShellTool creates a shell tool backed by manager, with a default deny
// rule for destructive recursive removal (the gate itself is enforced by
// toolregistry's policy resolver; this just advertises the rule).
func NewShellTool(manager *execpkg.Manager) *ShellTool {
	return &ShellTool{manager: manager, deny: []string{"rm -rf *", "rm -rf /*"}}
}

func (t *ShellTool) Name() string        { return "shell" }
func (t *ShellTool) Description() string { return "Run a shell command in the workspace." }
func (t *ShellTool) Confirm() []string   { return []string{"*"} }
func (t *ShellTool) Deny() []string      { return t.deny }
func (t *ShellTool) AskUser() []string   { return nil }

func (t *ShellTool) Schema() json.RawMessage {
	return mustSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command":         map[string]any{"type": "string"},
			"cwd":             map[string]any{"type": "string"},
			"timeout_seconds": map[string]any{"type": "integer", "minimum": 0},
		},
		"required": []string{"command"},
	})
}

func (t *ShellTool) Execute(ctx context.Context, params json.RawMessage) (*chatmsg.ToolResult, error) {
	if t.manager == nil {
		return toolError("shell: exec manager unavailable"), nil
	}
	var input struct {
		Command        string `json:"command"`
		Cwd            string `json:"cwd"`
		TimeoutSeconds int    `json:"timeout_seconds"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError("invalid parameters: " + err.Error()), nil
	}
	command := strings.TrimSpace(input.Command)
	if command == "" {
		return toolError("command is required"), nil
	}

	timeout := defaultIntegrationTimeout
	if input.TimeoutSeconds > 0 {
		timeout = time.Duration(input.TimeoutSeconds) * time.Second
	}

	result, err := t.manager.RunCommand(ctx, command, input.Cwd, nil, "", timeout)
	if err != nil {
		return toolError(err.Error()), nil
	}
	return toolJSON(result), nil
}
