// Package chatmsg defines the wire and in-memory data model shared by every
// component of the chat daemon: messages, context files, tool calls, tool
// descriptors, patch tickets and diff chunks. It plays the role pkg/models
// plays elsewhere in this codebase's lineage, generalized from channel
// messaging to the editor<->LLM chat protocol.
package chatmsg

import (
	"encoding/json"
	"time"
)

// Role identifies the author of a ChatMessage. Beyond the usual
// user/assistant/system/tool roles, the orchestrator needs three more to
// carry structured context produced by postprocessing and context commands.
type Role string

const (
	RoleUser        Role = "user"
	RoleAssistant   Role = "assistant"
	RoleSystem      Role = "system"
	RoleTool        Role = "tool"
	RoleContextFile Role = "context_file"
	RoleDiff        Role = "diff"
	RoleCDInstr     Role = "cd_instruction"
	RolePlainText   Role = "plain_text"
)

// Usage records per-message token accounting, reported back to the editor
// so it can show running cost and drive compaction decisions.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// ContentElement is one piece of a (possibly multimodal) message body.
// Type is one of "text", "image_url", "tool_use", "tool_result".
type ContentElement struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL string          `json:"image_url,omitempty"`
	ToolCall *ToolCall       `json:"tool_call,omitempty"`
	Raw      json.RawMessage `json:"raw,omitempty"`
}

// ChatMessage is one turn in a chat thread. Content is usually plain text;
// Elements is populated when the message carries multimodal or structured
// content that a single string can't represent.
type ChatMessage struct {
	ID          string           `json:"id"`
	ThreadID    string           `json:"thread_id"`
	Role        Role             `json:"role"`
	Content     string           `json:"content"`
	Elements    []ContentElement `json:"elements,omitempty"`
	ToolCalls   []ToolCall       `json:"tool_calls,omitempty"`
	ToolResults []ToolResult     `json:"tool_results,omitempty"`
	Usage       *Usage           `json:"usage,omitempty"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// ContextFile is a single file slice admitted into the prompt, either
// verbatim or compressed by the usefulness-gradient postprocessor.
type ContextFile struct {
	Path        string `json:"file_name"`
	Content     string `json:"file_content"`
	Line1       int    `json:"line1"`
	Line2       int    `json:"line2"`
	Usefulness  float64 `json:"usefulness"`
	GradientTop bool   `json:"gradient_type,omitempty"`
}

// ToolCall represents an LLM's request to execute one registered tool.
type ToolCall struct {
	ID    string          `json:"id"`
	Name  string          `json:"function_name"`
	Input json.RawMessage `json:"function_arguments"`
}

// ToolResult is the outcome of executing a ToolCall, folded back into the
// thread as a RoleTool message.
type ToolResult struct {
	ToolCallID string           `json:"tool_call_id"`
	Content    string           `json:"content"`
	Elements   []ContentElement `json:"elements,omitempty"`
	IsError    bool             `json:"is_error,omitempty"`
}

// ToolDesc is the schema the orchestrator advertises to the model for one
// registered tool, and the confirm/deny/ask_user rules governing it.
type ToolDesc struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
	Confirm     []string        `json:"confirm,omitempty"`
	Deny        []string        `json:"deny,omitempty"`
	AskUser     []string        `json:"ask_user,omitempty"`
}

// SubchatParameters configures a recursive sub-chat spawned by a tool (for
// example the patch engine's PARTIAL_EDIT candidate voting).
type SubchatParameters struct {
	Model          string  `json:"model"`
	Temperature    float64 `json:"temperature"`
	MaxNewTokens   int     `json:"max_new_tokens"`
	NumCandidates  int     `json:"n,omitempty"`
	SystemPrompt   string  `json:"system_prompt,omitempty"`
}

// Thread is a persisted conversation, stored in experimental_db.sqlite.
type Thread struct {
	ID         string         `json:"id"`
	Title      string         `json:"title,omitempty"`
	Model      string         `json:"model"`
	WorkspaceRoot string      `json:"workspace_root,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
