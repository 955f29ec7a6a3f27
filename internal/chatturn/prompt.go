// Package chatturn implements the main per-turn loop: resolve a model and
// scratchpad, prepend a system prompt, expand @-commands into context,
// render and stream a completion, dispatch any tool calls the model
// requested, postprocess the results under a token budget, and loop until
// the model stops calling tools or a round limit is hit.
//
// Grounded on internal/agent/runtime.go's Runtime.run (history load ->
// context pack -> system prompt -> tools-filtered-by-policy -> labeled
// iteration loop appending tool-result messages and looping to the next
// completion) and on _examples/original_source/src/scratchpads/
// chat_utils_prompts.rs for system-prompt-by-mode selection and the
// %WORKSPACE_INFO%/%PROJECT_INFO% placeholder convention.
package chatturn

import "strings"

// ChatMode selects which system prompt template a turn starts from,
// mirroring chat_utils_prompts.rs's ChatMode-to-prompt-key mapping.
type ChatMode string

const (
	ModeNoTools        ChatMode = "no_tools"
	ModeExplore        ChatMode = "explore"
	ModeAgent          ChatMode = "agent"
	ModeConfigure      ChatMode = "configure"
	ModeProjectSummary ChatMode = "project_summary"
)

// DefaultPrompts is the built-in system prompt table, keyed by ChatMode.
// Callers running a customized install replace entries via PromptTable.Set.
var DefaultPrompts = map[ChatMode]string{
	ModeNoTools: "You are a coding assistant. Answer the user's question directly; " +
		"you have no tools available in this mode.",
	ModeExplore: "You are a coding assistant with read-only exploration tools " +
		"(file/definition/references/search/tree). Investigate before answering; " +
		"do not propose edits.\n%WORKSPACE_INFO%",
	ModeAgent: "You are a coding agent with full tool access, including patch. " +
		"Make the requested changes yourself rather than just describing them.\n" +
		"%WORKSPACE_INFO%\n%PROJECT_INFO%",
	ModeConfigure: "You are helping the user configure this workspace's integrations " +
		"and customization files.\n%WORKSPACE_INFO%",
	ModeProjectSummary: "Summarize this project for a newcomer: its purpose, layout, " +
		"and how to run it.\n%WORKSPACE_INFO%\n%PROJECT_INFO%",
}

// PromptTable holds a (possibly customized) copy of the system prompt
// table, the same "customization_loader"-then-lookup-by-mode shape
// chat_utils_prompts.rs's get_default_system_prompt follows.
type PromptTable struct {
	prompts map[ChatMode]string
}

// NewPromptTable builds a table seeded from DefaultPrompts.
func NewPromptTable() *PromptTable {
	t := &PromptTable{prompts: make(map[ChatMode]string, len(DefaultPrompts))}
	for mode, text := range DefaultPrompts {
		t.prompts[mode] = text
	}
	return t
}

// Set overrides the template for one mode, e.g. from a loaded customization file.
func (t *PromptTable) Set(mode ChatMode, text string) {
	t.prompts[mode] = text
}

// WorkspaceInfo is the %WORKSPACE_INFO% substitution: the declared
// workspace roots and, if known, which file is currently active in the
// editor.
type WorkspaceInfo struct {
	Roots      []string
	ActiveFile string
}

func (w WorkspaceInfo) render() string {
	var b strings.Builder
	if len(w.Roots) > 0 {
		b.WriteString("The current workspace has these project directories:\n")
		b.WriteString(strings.Join(w.Roots, "\n"))
	} else {
		b.WriteString("There is no workspace directory currently open.")
	}
	if w.ActiveFile != "" {
		b.WriteString("\n\nThe active file is:\n")
		b.WriteString(w.ActiveFile)
	} else {
		b.WriteString("\n\nThere is no active file currently open.")
	}
	return b.String()
}

// Render returns the system prompt for mode with %WORKSPACE_INFO% and
// %PROJECT_INFO% filled in, the way system_prompt_add_workspace_info
// performs its substitution after get_default_system_prompt picks the
// template. projectInfo is the raw contents of a project_summary.yaml-style
// file, or empty if none exists.
func (t *PromptTable) Render(mode ChatMode, ws WorkspaceInfo, projectInfo string) string {
	text, ok := t.prompts[mode]
	if !ok {
		text = t.prompts[ModeAgent]
	}
	if strings.Contains(text, "%WORKSPACE_INFO%") {
		text = strings.ReplaceAll(text, "%WORKSPACE_INFO%", ws.render())
	}
	if strings.Contains(text, "%PROJECT_INFO%") {
		text = strings.ReplaceAll(text, "%PROJECT_INFO%", projectInfo)
	}
	return strings.TrimSpace(text)
}
