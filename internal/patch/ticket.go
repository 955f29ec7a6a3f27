// Package patch implements parsing of 📍-fenced patch tickets out of a
// model response, deriving diff chunks from them, and applying those chunks
// to workspace files with fuzzy line-window matching so a chunk still
// applies after the file drifted slightly since the ticket's context was
// read.
//
// Grounded on internal/tools/files/patch.go's unified-diff hunk application
// (line-by-line context/add/remove walk over a split file), generalized
// from a single hunk format to the ticket/action model and widened with a
// fuzzy search radius instead of an exact line offset.
package patch

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// ticketHeader matches a 📍-prefixed ticket fence header, e.g.:
//
//	📍001 PARTIAL_EDIT src/main.go
//	📍002 NEW_FILE internal/foo/bar.go
//	📍003 REWRITE_SYMBOL src/main.go Server.Start
var ticketHeader = regexp.MustCompile(`^📍(\d{3})\s+(PARTIAL_EDIT|REWRITE_WHOLE_FILE|REWRITE_SYMBOL|NEW_FILE|DELETE)\s+(\S+)(?:\s+(.+))?$`)

// ParseTickets scans a model response for fenced 📍-ticket blocks and
// returns one PatchTicket per block, in draft state. A ticket's code body
// is everything between the header line and the closing fence.
func ParseTickets(response string) ([]chatmsg.PatchTicket, error) {
	lines := strings.Split(response, "\n")
	var tickets []chatmsg.PatchTicket

	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "📍") {
			i++
			continue
		}
		m := ticketHeader.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("patch: malformed ticket header: %q", line)
		}
		id := m[1]
		action := chatmsg.PatchAction(m[2])
		filename := m[3]
		symbol := strings.TrimSpace(m[4])

		i++
		fenceStart := i
		for fenceStart < len(lines) && strings.TrimSpace(lines[fenceStart]) == "" {
			fenceStart++
		}
		if fenceStart >= len(lines) || !strings.HasPrefix(strings.TrimSpace(lines[fenceStart]), "```") {
			return nil, fmt.Errorf("patch: ticket %s missing opening code fence", id)
		}
		bodyStart := fenceStart + 1
		bodyEnd := bodyStart
		for bodyEnd < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[bodyEnd]), "```") {
			bodyEnd++
		}
		if bodyEnd >= len(lines) {
			return nil, fmt.Errorf("patch: ticket %s missing closing code fence", id)
		}
		code := strings.Join(lines[bodyStart:bodyEnd], "\n")

		tickets = append(tickets, chatmsg.PatchTicket{
			ID:           id,
			Action:       action,
			FilenameOrig: filename,
			Filename:     filename,
			Symbol:       symbol,
			Code:         code,
			State:        chatmsg.TicketDraft,
		})
		i = bodyEnd + 1
	}

	return tickets, nil
}

// ValidateTicket checks a ticket's structural invariants: a 3-digit ID,
// a known action, a non-empty filename, and (for REWRITE_SYMBOL) a symbol
// name. It advances State to corrected on success, or returns an error and
// sets State to failed.
func ValidateTicket(t *chatmsg.PatchTicket) error {
	if len(t.ID) != 3 {
		t.State = chatmsg.TicketFailed
		t.Error = "ticket id must be 3 digits"
		return fmt.Errorf("patch: %s", t.Error)
	}
	if _, err := strconv.Atoi(t.ID); err != nil {
		t.State = chatmsg.TicketFailed
		t.Error = "ticket id must be numeric"
		return fmt.Errorf("patch: %s", t.Error)
	}
	switch t.Action {
	case chatmsg.ActionPartialEdit, chatmsg.ActionRewriteWholeFile, chatmsg.ActionRewriteSymbol,
		chatmsg.ActionNewFile, chatmsg.ActionDelete:
	default:
		t.State = chatmsg.TicketFailed
		t.Error = fmt.Sprintf("unknown action %q", t.Action)
		return fmt.Errorf("patch: %s", t.Error)
	}
	if strings.TrimSpace(t.Filename) == "" {
		t.State = chatmsg.TicketFailed
		t.Error = "ticket filename is empty"
		return fmt.Errorf("patch: %s", t.Error)
	}
	if t.Action == chatmsg.ActionRewriteSymbol && strings.TrimSpace(t.Symbol) == "" {
		t.State = chatmsg.TicketFailed
		t.Error = "REWRITE_SYMBOL ticket missing symbol name"
		return fmt.Errorf("patch: %s", t.Error)
	}
	t.State = chatmsg.TicketCorrected
	return nil
}

// FallbackAction returns the action to retry with when ticket's action
// failed to derive or apply cleanly, or "" if there is no fallback.
// REWRITE_SYMBOL falls back to PARTIAL_EDIT (smaller blast radius is no
// longer achievable, but a line-range replace might still match); a failed
// PARTIAL_EDIT falls back to REWRITE_WHOLE_FILE as a last resort.
func FallbackAction(a chatmsg.PatchAction) chatmsg.PatchAction {
	switch a {
	case chatmsg.ActionRewriteSymbol:
		return chatmsg.ActionPartialEdit
	case chatmsg.ActionPartialEdit:
		return chatmsg.ActionRewriteWholeFile
	default:
		return ""
	}
}
