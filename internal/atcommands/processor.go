package atcommands

import (
	"strings"

	"github.com/nexuslang/nexus-lsp/internal/sharedstate"
	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// Registry maps an @-command name (without the leading @) to its handler.
type Registry struct {
	commands map[string]Command
}

// NewRegistry builds a Registry pre-populated with the standard command
// set: file, definition, references, search, tree, diff.
func NewRegistry() *Registry {
	r := &Registry{commands: make(map[string]Command)}
	r.Register("file", FileCommand{})
	r.Register("definition", DefinitionCommand{})
	r.Register("references", ReferencesCommand{})
	r.Register("search", SearchCommand{})
	r.Register("tree", TreeCommand{})
	r.Register("diff", DiffCommand{})
	return r
}

// Register adds or replaces the handler for name.
func (r *Registry) Register(name string, cmd Command) {
	r.commands[name] = cmd
}

// Result is the outcome of expanding every @-command in one message.
type Result struct {
	// RewrittenQuery is the message text with every recognized @-command
	// span removed, so it reads as the plain-language remainder.
	RewrittenQuery string
	// Contexts holds one AtCommandsContext per successfully executed
	// command, in left-to-right order.
	Contexts []chatmsg.AtCommandsContext
	// Spans covers every parsed @-command occurrence, success or failure,
	// so the editor can render inline ok/error decoration without the
	// turn ever aborting.
	Spans []chatmsg.Span
}

// Process parses and expands every @-command in message, left to right.
// No command failure aborts the turn: a failing command simply emits a
// Span with OK=false and contributes nothing else.
func (r *Registry) Process(state *sharedstate.State, message string, topN int) Result {
	parsed := Parse(message)
	result := Result{}

	var b strings.Builder
	prevEnd := 0

	for _, p := range parsed {
		b.WriteString(message[prevEnd:p.StartPos])
		prevEnd = p.EndPos

		cmd, ok := r.commands[p.Name]
		if !ok {
			result.Spans = append(result.Spans, chatmsg.Span{
				Start: p.StartPos, End: p.EndPos, OK: false,
				Error: "unknown command: @" + p.Name,
			})
			continue
		}

		query := strings.Join(p.Args, " ")
		actx, err := cmd.Execute(state, p.Args, query, topN)
		if err != nil {
			result.Spans = append(result.Spans, chatmsg.Span{
				Start: p.StartPos, End: p.EndPos, OK: false, Error: err.Error(),
			})
			continue
		}

		actx.Span = chatmsg.Span{Start: p.StartPos, End: p.EndPos, OK: true}
		result.Spans = append(result.Spans, actx.Span)
		result.Contexts = append(result.Contexts, actx)
	}

	b.WriteString(message[prevEnd:])
	result.RewrittenQuery = strings.TrimSpace(collapseBlankLines(b.String()))
	return result
}

// ContextFileMessages flattens every successful command's ContextFile
// entries into context_file ChatMessages, the shape the orchestrator
// streams to the client immediately after running context commands.
func (r Result) ContextFileMessages() []chatmsg.ChatMessage {
	var out []chatmsg.ChatMessage
	for _, actx := range r.Contexts {
		if len(actx.Files) == 0 {
			continue
		}
		out = append(out, chatmsg.ChatMessage{Role: chatmsg.RoleContextFile, Metadata: map[string]any{"files": actx.Files}})
	}
	return out
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
