package chatturn

import (
	"encoding/json"

	"github.com/nexuslang/nexus-lsp/internal/postprocess"
	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// toolFileCandidate is the shape a tool emits when it wants its output
// folded into context files rather than left as opaque tool-result text:
// cat() and locate() marshal a "files" array of this shape into their
// ToolResult.Content. tree() returns plain text and definition()/
// references()/search() return a bare array, so their results stay
// tool-result text.
type toolFileCandidate struct {
	Path    string `json:"file_name"`
	Content string `json:"file_content"`
	Line1   int    `json:"line1"`
	Line2   int    `json:"line2"`
}

// postprocessRound folds one round's tool results into the next turn's
// history under a fixed token budget, split in half between raw
// tool-result text (truncated by PlainTextBudget) and file-shaped results
// (compressed through the usefulness Gradient). This is the "half for
// tool-result text, half for context files" split the orchestrator applies
// after tool dispatch and before the next completion round.
func (o *Orchestrator) postprocessRound(model string, outcome roundOutcome, budget int) (chatmsg.ChatMessage, []chatmsg.ChatMessage) {
	textBudget := budget / 2
	fileBudget := budget - textBudget

	var candidates []postprocess.FileCandidate
	plainResults := make([]chatmsg.ToolResult, 0, len(outcome.results))

	for _, res := range outcome.results {
		if files, ok := extractFileCandidates(res.Content); ok {
			for _, f := range files {
				candidates = append(candidates, postprocess.FileCandidate{
					Path: f.Path,
					Spans: []postprocess.Span{{
						Kind:       postprocess.SpanBody,
						Line1:      f.Line1,
						Line2:      f.Line2,
						Text:       f.Content,
						Usefulness: 1.0,
					}},
				})
			}
			continue
		}
		plainResults = append(plainResults, res)
	}

	for i, res := range plainResults {
		truncated, _, err := o.plainBudget.Truncate(model, res.Content, textBudget)
		if err == nil {
			plainResults[i].Content = truncated
		}
	}

	toolMsg := chatmsg.ChatMessage{
		Role:        chatmsg.RoleTool,
		ToolResults: append(plainResults, nonPlainResults(outcome.results)...),
	}

	var contextFiles []chatmsg.ChatMessage
	if len(candidates) > 0 {
		compressed, err := o.gradient.Compress(model, candidates, fileBudget)
		if err == nil && len(compressed) > 0 {
			contextFiles = append(contextFiles, chatmsg.ChatMessage{
				Role:     chatmsg.RoleContextFile,
				Metadata: map[string]any{"files": compressed},
			})
		}
	}

	return toolMsg, contextFiles
}

// nonPlainResults returns the subset of results that extractFileCandidates
// claimed, unmodified — they're represented downstream only as context
// files, but the tool_call_id still needs a tool-result entry so the model
// sees every call it made was answered.
func nonPlainResults(results []chatmsg.ToolResult) []chatmsg.ToolResult {
	var out []chatmsg.ToolResult
	for _, res := range results {
		if _, ok := extractFileCandidates(res.Content); ok {
			out = append(out, chatmsg.ToolResult{
				ToolCallID: res.ToolCallID,
				Content:    "see context files below",
			})
		}
	}
	return out
}

func extractFileCandidates(content string) ([]toolFileCandidate, bool) {
	var probe struct {
		Files []toolFileCandidate `json:"files"`
	}
	if err := json.Unmarshal([]byte(content), &probe); err != nil {
		return nil, false
	}
	if len(probe.Files) == 0 {
		return nil, false
	}
	return probe.Files, true
}
