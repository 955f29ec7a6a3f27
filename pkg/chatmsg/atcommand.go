package chatmsg

// AtCommandKind enumerates the supported @-commands a user can type in the
// editor's chat input; the at-command processor expands these into context
// before the model call.
type AtCommandKind string

const (
	AtFile       AtCommandKind = "file"
	AtDefinition AtCommandKind = "definition"
	AtReferences AtCommandKind = "references"
	AtSearch     AtCommandKind = "search"
	AtTree       AtCommandKind = "tree"
	AtDiff       AtCommandKind = "diff"
)

// AtCommandScope restricts an @search to a file or directory prefix,
// mirroring refact-lsp's at_file_search.rs Scope enum.
type AtCommandScope struct {
	Kind string `json:"kind"` // "workspace", "dir", "file"
	Path string `json:"path,omitempty"`
}

// Span is a highlighted range within the editor's input, used to render
// inline ok/error decoration for an @-command as it's typed.
type Span struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// AtCommandsContext is the result of expanding every @-command found in a
// user message: resolved context entries plus non-aborting per-command
// highlight spans so one bad @-command doesn't fail the whole turn.
type AtCommandsContext struct {
	Kind       AtCommandKind  `json:"kind"`
	Query      string         `json:"query"`
	Scope      AtCommandScope `json:"scope,omitempty"`
	Files      []ContextFile  `json:"files,omitempty"`
	PlainText  string         `json:"plain_text,omitempty"`
	Span       Span           `json:"span"`
}
