package chattools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/nexuslang/nexus-lsp/internal/patch"
	"github.com/nexuslang/nexus-lsp/internal/sharedstate"
	"github.com/nexuslang/nexus-lsp/internal/workspace"
	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// PatchTool implements the patch-single-file-from-ticket tool: parse
// the 📍-fenced tickets out of a model response, fuzzy-correct the target
// filename against the workspace if it doesn't exist verbatim, derive diff
// chunks and apply them atomically. Grounded on internal/patch plus the
// same workspace.FuzzyResolveFiles correction the cat tool and @file
// command use.
type PatchTool struct {
	noRules
	state *sharedstate.State
}

func NewPatchTool(state *sharedstate.State) *PatchTool { return &PatchTool{state: state} }

func (t *PatchTool) Name() string { return "patch" }

func (t *PatchTool) Description() string {
	return "Apply one or more 📍-fenced patch tickets from a model response to workspace files."
}

func (t *PatchTool) Schema() json.RawMessage {
	return mustSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"response": map[string]any{"type": "string", "description": "Raw model response containing 📍-fenced tickets."},
		},
		"required": []string{"response"},
	})
}

func (t *PatchTool) Confirm() []string { return []string{"*"} }

func (t *PatchTool) Execute(ctx context.Context, params json.RawMessage) (*chatmsg.ToolResult, error) {
	var input struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError("invalid parameters: " + err.Error()), nil
	}

	tickets, err := patch.ParseTickets(input.Response)
	if err != nil {
		return toolError(err.Error()), nil
	}
	if len(tickets) == 0 {
		return toolError("no 📍 tickets found in response"), nil
	}

	if err := validateSameFile(tickets); err != nil {
		// Structured remediation the orchestrator surfaces as a
		// cd_instruction message.
		return &chatmsg.ToolResult{Content: err.Error(), IsError: true}, nil
	}

	roots := t.state.WorkspaceRoots()
	allFiles, _ := workspace.ListFiles(roots)

	applied := make([]string, 0, len(tickets))
	for i := range tickets {
		ticket := &tickets[i]
		if err := patch.ValidateTicket(ticket); err != nil {
			ticket.State = chatmsg.TicketFailed
			ticket.Error = err.Error()
			continue
		}

		resolvedName := correctFilename(ticket.FilenameOrig, roots, allFiles)
		ticket.Filename = resolvedName
		ticket.State = chatmsg.TicketCorrected

		var currentContent string
		isNewFile := ticket.Action == chatmsg.ActionNewFile
		if !isNewFile {
			abs, rerr := workspace.ResolveInRoots(roots, resolvedName)
			if rerr != nil {
				ticket.State = chatmsg.TicketFailed
				ticket.Error = rerr.Error()
				continue
			}
			data, rerr := os.ReadFile(abs)
			if rerr != nil && ticket.Action != chatmsg.ActionDelete {
				ticket.State = chatmsg.TicketFailed
				ticket.Error = rerr.Error()
				continue
			}
			currentContent = string(data)
		}

		chunks, derr := patch.DeriveChunks(ticket, currentContent)
		if derr != nil {
			ticket.State = chatmsg.TicketFailed
			ticket.Error = derr.Error()
			continue
		}

		if len(roots) == 0 {
			ticket.State = chatmsg.TicketFailed
			ticket.Error = "no workspace root configured"
			continue
		}
		if werr := patch.WriteAtomic(roots[0], resolvedName, chunks, ticket.Action == chatmsg.ActionDelete, isNewFile); werr != nil {
			ticket.State = chatmsg.TicketFailed
			ticket.Error = werr.Error()
			continue
		}

		ticket.State = chatmsg.TicketApplied
		applied = append(applied, ticket.ID)
	}

	return toolJSON(map[string]any{
		"applied": applied,
		"tickets": tickets,
	}), nil
}

// validateSameFile enforces that all active tickets share filename_before,
// and that for action != PARTIAL_EDIT there is exactly one ticket.
func validateSameFile(tickets []chatmsg.PatchTicket) error {
	first := tickets[0].FilenameOrig
	for _, t := range tickets[1:] {
		if t.FilenameOrig != first {
			return fmt.Errorf("tickets target different files (%q vs %q); split into separate patch calls", first, t.FilenameOrig)
		}
	}
	if len(tickets) > 1 {
		for _, t := range tickets {
			if t.Action != chatmsg.ActionPartialEdit {
				return fmt.Errorf("multiple tickets for %q but action %s requires exactly one ticket", first, t.Action)
			}
		}
	}
	return nil
}

func correctFilename(want string, roots []string, allFiles []string) string {
	if abs, err := workspace.ResolveInRoots(roots, want); err == nil {
		if _, statErr := os.Stat(abs); statErr == nil {
			return want
		}
	}
	candidates := workspace.FuzzyResolveFiles(want, allFiles)
	if len(candidates) == 0 {
		// Not found anywhere: treat as the literal target, e.g. for a
		// NEW_FILE ticket that hasn't been created yet.
		return want
	}
	return candidates[0]
}
