package patch

import (
	"fmt"
	"strings"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// DeriveChunks converts a corrected ticket into one or more DiffChunks
// against the current file content, advancing the ticket to TicketDerived
// on success. currentContent is "" for NEW_FILE tickets.
func DeriveChunks(t *chatmsg.PatchTicket, currentContent string) ([]chatmsg.DiffChunk, error) {
	if t.State != chatmsg.TicketCorrected && t.State != chatmsg.TicketDraft {
		return nil, fmt.Errorf("patch: ticket %s not ready to derive (state=%s)", t.ID, t.State)
	}

	var chunks []chatmsg.DiffChunk
	var err error

	switch t.Action {
	case chatmsg.ActionNewFile:
		chunks = []chatmsg.DiffChunk{{
			TicketID: t.ID,
			FileName: t.Filename,
			Line1:    1,
			Line2:    1,
			LinesAdd: splitLines(t.Code),
		}}
	case chatmsg.ActionDelete:
		chunks = []chatmsg.DiffChunk{{
			TicketID:  t.ID,
			FileName:  t.Filename,
			Line1:     1,
			Line2:     len(splitLines(currentContent)),
			LinesOrig: splitLines(currentContent),
		}}
	case chatmsg.ActionRewriteWholeFile:
		chunks = []chatmsg.DiffChunk{{
			TicketID:  t.ID,
			FileName:  t.Filename,
			Line1:     1,
			Line2:     len(splitLines(currentContent)),
			LinesOrig: splitLines(currentContent),
			LinesAdd:  splitLines(t.Code),
		}}
	case chatmsg.ActionRewriteSymbol:
		chunks, err = deriveSymbolChunk(t, currentContent)
	case chatmsg.ActionPartialEdit:
		chunks, err = derivePartialEditChunks(t, currentContent)
	default:
		err = fmt.Errorf("patch: unsupported action %q", t.Action)
	}

	if err != nil {
		t.State = chatmsg.TicketFailed
		t.Error = err.Error()
		return nil, err
	}
	t.State = chatmsg.TicketDerived
	return chunks, nil
}

// deriveSymbolChunk replaces the line range occupied by a named symbol. The
// caller's workspace AST index is expected to have already resolved the
// symbol's line range into the ticket's metadata via the Symbol field
// convention "name@line1-line2"; if absent or out of range, derivation
// returns an error and DeriveChunks marks the ticket failed.
func deriveSymbolChunk(t *chatmsg.PatchTicket, currentContent string) ([]chatmsg.DiffChunk, error) {
	name, line1, line2, ok := parseSymbolLocation(t.Symbol)
	if !ok {
		return nil, fmt.Errorf("patch: ticket %s symbol %q has no resolved location", t.ID, t.Symbol)
	}
	lines := splitLines(currentContent)
	if line1 < 1 || line2 > len(lines) || line1 > line2 {
		return nil, fmt.Errorf("patch: ticket %s symbol %q location out of range", t.ID, name)
	}
	return []chatmsg.DiffChunk{{
		TicketID:  t.ID,
		FileName:  t.Filename,
		Line1:     line1,
		Line2:     line2,
		LinesOrig: lines[line1-1 : line2],
		LinesAdd:  splitLines(t.Code),
	}}, nil
}

// parseSymbolLocation parses a "name@line1-line2" symbol reference.
func parseSymbolLocation(symbol string) (name string, line1, line2 int, ok bool) {
	at := strings.LastIndex(symbol, "@")
	if at < 0 {
		return "", 0, 0, false
	}
	name = symbol[:at]
	rangePart := symbol[at+1:]
	dash := strings.Index(rangePart, "-")
	if dash < 0 {
		return "", 0, 0, false
	}
	l1, err1 := parsePositiveInt(rangePart[:dash])
	l2, err2 := parsePositiveInt(rangePart[dash+1:])
	if err1 != nil || err2 != nil {
		return "", 0, 0, false
	}
	return name, l1, l2, true
}

func parsePositiveInt(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("not a digit: %q", s)
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

// derivePartialEditChunks parses the ticket's code body as a context-diff:
// lines prefixed " " are unchanged context, "-" removed, "+" added, mirroring
// internal/tools/files/patch.go's unified-diff hunk convention but without a
// leading @@ header, since the patch ticket format carries no line numbers —
// the context lines are matched fuzzily against the current file instead.
func derivePartialEditChunks(t *chatmsg.PatchTicket, currentContent string) ([]chatmsg.DiffChunk, error) {
	bodyLines := splitLines(t.Code)
	var origLines, addLines []string
	for _, l := range bodyLines {
		if l == "" {
			continue
		}
		prefix := l[0]
		text := ""
		if len(l) > 1 {
			text = l[1:]
		}
		switch prefix {
		case ' ':
			origLines = append(origLines, text)
			addLines = append(addLines, text)
		case '-':
			origLines = append(origLines, text)
		case '+':
			addLines = append(addLines, text)
		default:
			return nil, fmt.Errorf("patch: ticket %s has malformed partial-edit line: %q", t.ID, l)
		}
	}
	if len(origLines) == 0 {
		return nil, fmt.Errorf("patch: ticket %s partial edit has no context/removed lines to locate", t.ID)
	}

	line1, line2, err := locateWindow(splitLines(currentContent), origLines)
	if err != nil {
		return nil, fmt.Errorf("patch: ticket %s: %w", t.ID, err)
	}

	return []chatmsg.DiffChunk{{
		TicketID:  t.ID,
		FileName:  t.Filename,
		Line1:     line1,
		Line2:     line2,
		LinesOrig: origLines,
		LinesAdd:  addLines,
	}}, nil
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
