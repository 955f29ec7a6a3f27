package httpapi

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/nexuslang/nexus-lsp/internal/patch"
	"github.com/nexuslang/nexus-lsp/internal/workspace"
	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

type patchSingleFileRequest struct {
	Messages  []chatmsg.ChatMessage `json:"messages"`
	TicketIDs []string              `json:"ticket_ids"`
}

type patchSingleFileResponse struct {
	State   string               `json:"state"`
	Results []patchTicketResult  `json:"results"`
	Chunks  []chatmsg.DiffChunk  `json:"chunks"`
	Summary string               `json:"summary,omitempty"`
}

type patchTicketResult struct {
	TicketID string `json:"ticket_id"`
	State    string `json:"state"`
	Error    string `json:"error,omitempty"`
}

// handlePatchSingleFileFromTicket re-extracts every 📍-ticket from
// req.Messages, keeping only the ones named in req.TicketIDs (or every
// ticket if the list is empty), derives diff chunks, and applies them to
// the workspace file each names. One ticket failing to apply does not
// abort the others: the result set always reports per-ticket state
// rather than a single all-or-nothing error.
func (s *Server) handlePatchSingleFileFromTicket(w http.ResponseWriter, r *http.Request) {
	var req patchSingleFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", "decoding request body: "+err.Error())
		return
	}

	wanted := make(map[string]bool, len(req.TicketIDs))
	for _, id := range req.TicketIDs {
		wanted[id] = true
	}

	var tickets []chatmsg.PatchTicket
	for _, msg := range req.Messages {
		if msg.Role != chatmsg.RoleAssistant {
			continue
		}
		parsed, err := patch.ParseTickets(msg.Content)
		if err != nil {
			continue
		}
		tickets = append(tickets, parsed...)
	}

	roots := s.state.WorkspaceRoots()
	resp := patchSingleFileResponse{State: "applied", Results: make([]patchTicketResult, 0, len(tickets))}

	for i := range tickets {
		t := &tickets[i]
		if len(wanted) > 0 && !wanted[t.ID] {
			continue
		}

		result := patchTicketResult{TicketID: t.ID}
		chunks, err := s.applyTicket(roots, t)
		if err != nil {
			result.State = string(chatmsg.TicketFailed)
			result.Error = err.Error()
			resp.State = "partial"
		} else {
			result.State = string(t.State)
			resp.Chunks = append(resp.Chunks, chunks...)
		}
		resp.Results = append(resp.Results, result)
	}

	if len(resp.Results) == 0 {
		resp.State = "failed"
	}
	resp.Summary = renderPatchSummaryMarkdown(resp.Chunks)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) applyTicket(roots []string, t *chatmsg.PatchTicket) ([]chatmsg.DiffChunk, error) {
	if err := patch.ValidateTicket(t); err != nil {
		return nil, err
	}

	abs, err := workspace.ResolveInRoots(roots, t.Filename)
	if err != nil {
		return nil, err
	}

	var currentContent string
	if t.Action != chatmsg.ActionNewFile {
		data, err := os.ReadFile(abs)
		if err != nil {
			t.State = chatmsg.TicketFailed
			t.Error = err.Error()
			return nil, err
		}
		currentContent = string(data)
	}

	chunks, err := patch.DeriveChunks(t, currentContent)
	if err != nil {
		return nil, err
	}

	root := roots[0]
	for _, root = range roots {
		if within(root, abs) {
			break
		}
	}
	if err := patch.WriteAtomic(root, t.Filename, chunks, t.Action == chatmsg.ActionDelete, t.Action == chatmsg.ActionNewFile); err != nil {
		t.State = chatmsg.TicketFailed
		t.Error = err.Error()
		return nil, err
	}

	t.State = chatmsg.TicketApplied
	return chunks, nil
}

func within(root, path string) bool {
	if len(path) < len(root) {
		return false
	}
	return path[:len(root)] == root
}
