package chattools

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/nexuslang/nexus-lsp/internal/sharedstate"
	"github.com/nexuslang/nexus-lsp/internal/workspace"
	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// CatTool implements the cat(paths, symbols?, skeleton?) tool: fuzzy
// workspace path resolution (exact match, then filename correction) with
// symbol-range narrowing when symbols match the AST index. Grounded on
// internal/tools/files/read.go's Tool shape, generalized from a single
// path to a batch with non-aborting per-path corrections.
type CatTool struct {
	noRules
	state *sharedstate.State
}

func NewCatTool(state *sharedstate.State) *CatTool { return &CatTool{state: state} }

func (t *CatTool) Name() string { return "cat" }

func (t *CatTool) Description() string {
	return "Read one or more workspace files, optionally narrowed to named symbols, with fuzzy filename correction."
}

func (t *CatTool) Schema() json.RawMessage {
	return mustSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"paths":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"symbols":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"skeleton": map[string]any{"type": "boolean", "description": "Return a structural skeleton instead of full bodies."},
		},
		"required": []string{"paths"},
	})
}

type catResolvedFile struct {
	Path    string `json:"file_name"`
	Content string `json:"file_content"`
	Line1   int    `json:"line1"`
	Line2   int    `json:"line2"`
}

func (t *CatTool) Execute(ctx context.Context, params json.RawMessage) (*chatmsg.ToolResult, error) {
	var input struct {
		Paths    []string `json:"paths"`
		Symbols  []string `json:"symbols"`
		Skeleton bool     `json:"skeleton"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError("invalid parameters: " + err.Error()), nil
	}
	if len(input.Paths) == 0 {
		return toolError("paths is required"), nil
	}

	roots := t.state.WorkspaceRoots()
	allFiles, _ := workspace.ListFiles(roots)

	var resolved []catResolvedFile
	var corrections []string

	for _, p := range input.Paths {
		abs, err := workspace.ResolveInRoots(roots, p)
		if err != nil || !fileExistsOnDisk(abs) {
			candidates := workspace.FuzzyResolveFiles(p, allFiles)
			if len(candidates) == 0 {
				corrections = append(corrections, p)
				continue
			}
			abs, err = workspace.ResolveInRoots(roots, candidates[0])
			if err != nil {
				corrections = append(corrections, p)
				continue
			}
		}

		content, err := os.ReadFile(abs)
		if err != nil {
			corrections = append(corrections, p)
			continue
		}

		line1, line2, text := 1, strings.Count(string(content), "\n")+1, string(content)
		if len(input.Symbols) > 0 && t.state.ASTIndex() != nil {
			if l1, l2, ok := symbolRangeIn(t.state, input.Symbols, abs); ok {
				line1, line2 = l1, l2
				text = sliceLines(string(content), l1, l2)
			}
		}

		resolved = append(resolved, catResolvedFile{Path: p, Content: text, Line1: line1, Line2: line2})
	}

	result := map[string]any{
		"files":       resolved,
		"corrections": corrections,
	}
	out := toolJSON(result)
	out.IsError = len(corrections) > 0 && len(resolved) == 0
	return out, nil
}

func fileExistsOnDisk(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func symbolRangeIn(state *sharedstate.State, symbols []string, abs string) (int, int, bool) {
	for _, sym := range symbols {
		locs, err := state.ASTIndex().Definition(sym)
		if err != nil {
			continue
		}
		for _, loc := range locs {
			if strings.HasSuffix(abs, loc.FileName) {
				return loc.Line1, loc.Line2, true
			}
		}
	}
	return 0, 0, false
}

func sliceLines(content string, line1, line2 int) string {
	lines := strings.Split(content, "\n")
	if line1 < 1 {
		line1 = 1
	}
	if line2 > len(lines) {
		line2 = len(lines)
	}
	if line1 > line2 {
		return ""
	}
	return strings.Join(lines[line1-1:line2], "\n")
}
