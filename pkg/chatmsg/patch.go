package chatmsg

import "time"

// PatchAction is one of the five actions a patch ticket can carry.
type PatchAction string

const (
	ActionPartialEdit      PatchAction = "PARTIAL_EDIT"
	ActionRewriteWholeFile PatchAction = "REWRITE_WHOLE_FILE"
	ActionRewriteSymbol    PatchAction = "REWRITE_SYMBOL"
	ActionNewFile          PatchAction = "NEW_FILE"
	ActionDelete           PatchAction = "DELETE"
)

// TicketState tracks a PatchTicket through its lifecycle.
type TicketState string

const (
	TicketDraft     TicketState = "draft"
	TicketCorrected TicketState = "corrected"
	TicketDerived   TicketState = "derived"
	TicketApplied   TicketState = "applied"
	TicketFailed    TicketState = "failed"
)

// PatchTicket is one 📍-fenced block the model emitted, identified by a
// 3-digit ID unique within the response.
type PatchTicket struct {
	ID          string      `json:"id"`
	Action      PatchAction `json:"action"`
	FilenameOrig string     `json:"filename_orig"`
	Filename    string      `json:"filename"`
	Symbol      string      `json:"symbol,omitempty"`
	Code        string      `json:"code"`
	State       TicketState `json:"state"`
	FallbackOf  string      `json:"fallback_of,omitempty"`
	Error       string      `json:"error,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// DiffChunk is a single contiguous replacement derived from a PatchTicket,
// expressed as a line-range swap so it can be applied with fuzzy matching
// even if the file drifted slightly since the ticket's context was read.
type DiffChunk struct {
	TicketID   string   `json:"ticket_id"`
	FileName   string   `json:"file_name"`
	Line1      int      `json:"line1"`
	Line2      int      `json:"line2"`
	LinesOrig  []string `json:"lines_orig"`
	LinesAdd   []string `json:"lines_add"`
	// Votes is >1 when several sub-chat candidates agreed on this chunk.
	Votes int `json:"votes,omitempty"`
}

// Chore is a todo/task ticket distinct from patch tickets, surfaced
// read-only to editor UIs. Restored from refact-lsp's chore_schema.rs.
type Chore struct {
	ID          string    `json:"id"`
	ThreadID    string    `json:"thread_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Done        bool      `json:"done"`
	CreatedAt   time.Time `json:"created_at"`
}
