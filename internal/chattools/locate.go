package chattools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/nexuslang/nexus-lsp/internal/sharedstate"
	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// LocateTool implements the locate(problem_statement) composite tool: it
// spawns several strategy sub-chats that each propose a ranked file list,
// merges them by vote count, then runs a decider sub-chat over the merged
// list. Lower-priority than the other tools, kept here since the sub-chat
// primitive (runSubchatOnce) is cheap to exercise from it.
type LocateTool struct {
	noRules
	state      *sharedstate.State
	strategies []string
	model      string
}

func NewLocateTool(state *sharedstate.State, model string) *LocateTool {
	return &LocateTool{
		state: state,
		model: model,
		strategies: []string{
			"List the files most likely to need changes for this problem, ranked, one per line.",
			"Working backwards from the symptoms, list the files most likely responsible, ranked, one per line.",
			"List the files a senior engineer would open first to investigate this, ranked, one per line.",
		},
	}
}

func (t *LocateTool) Name() string { return "locate" }

func (t *LocateTool) Description() string {
	return "Find the files most relevant to a problem statement by voting across several sub-chat strategies."
}

func (t *LocateTool) Schema() json.RawMessage {
	return mustSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"problem_statement": map[string]any{"type": "string"},
		},
		"required": []string{"problem_statement"},
	})
}

func (t *LocateTool) Execute(ctx context.Context, params json.RawMessage) (*chatmsg.ToolResult, error) {
	var input struct {
		ProblemStatement string `json:"problem_statement"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError("invalid parameters: " + err.Error()), nil
	}
	if strings.TrimSpace(input.ProblemStatement) == "" {
		return toolError("problem_statement is required"), nil
	}
	if t.model == "" {
		return toolError("locate: no sub-chat model configured"), nil
	}

	votes := map[string]int{}
	for _, strategy := range t.strategies {
		out, err := runSubchatOnce(ctx, t.state, t.model, strategy, input.ProblemStatement)
		if err != nil {
			continue // one strategy failing doesn't fail the tool, per locate's "non-critical" framing
		}
		for _, line := range strings.Split(out, "\n") {
			f := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-"))
			if f == "" {
				continue
			}
			votes[f]++
		}
	}
	if len(votes) == 0 {
		return toolError("locate: no strategy produced a candidate file"), nil
	}

	ranked := rankByVotes(votes)
	decision, err := runSubchatOnce(ctx, t.state, t.model,
		"Given this ranked candidate file list (most-voted first), decide the final ordered list to investigate. Reply with one file per line.",
		fmt.Sprintf("Problem: %s\n\nCandidates:\n%s", input.ProblemStatement, strings.Join(ranked, "\n")))
	if err != nil {
		// The decider failing still leaves the vote-ranked list usable.
		return toolJSON(map[string]any{"files": ranked}), nil
	}

	return toolJSON(map[string]any{
		"files":    ranked,
		"decision": strings.TrimSpace(decision),
	}), nil
}

func rankByVotes(votes map[string]int) []string {
	files := make([]string, 0, len(votes))
	for f := range votes {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool {
		if votes[files[i]] != votes[files[j]] {
			return votes[files[i]] > votes[files[j]]
		}
		return files[i] < files[j]
	})
	return files
}
