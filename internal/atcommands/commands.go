package atcommands

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/nexuslang/nexus-lsp/internal/sharedstate"
	"github.com/nexuslang/nexus-lsp/internal/workspace"
	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// Command is one registered `@name` handler. Commands are pure consumers
// of sharedstate.State — they must not mutate global state — and return
// a fully-populated AtCommandsContext on success.
type Command interface {
	Kind() chatmsg.AtCommandKind
	// Execute resolves args against state and produces the context this
	// command contributes. query is the command's raw argument text,
	// used by commands (like search) that want the whole phrase rather
	// than split tokens.
	Execute(state *sharedstate.State, args []string, query string, topN int) (chatmsg.AtCommandsContext, error)
}

// FileCommand implements `@file path[:L1[-L2]]` (at_file.rs).
type FileCommand struct{}

func (FileCommand) Kind() chatmsg.AtCommandKind { return chatmsg.AtFile }

func (FileCommand) Execute(state *sharedstate.State, args []string, _ string, _ int) (chatmsg.AtCommandsContext, error) {
	if len(args) == 0 {
		return chatmsg.AtCommandsContext{}, fmt.Errorf("@file requires a path argument")
	}
	rawPath, line1, line2, hasRange := SplitFileArg(args[0])

	abs, err := resolveWorkspaceFile(state, rawPath)
	if err != nil {
		return chatmsg.AtCommandsContext{}, err
	}

	content, err := readFile(abs)
	if err != nil {
		return chatmsg.AtCommandsContext{}, err
	}
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	total := len(lines)

	if !hasRange {
		line1, line2 = 1, total
	}
	if line1 < 1 {
		line1 = 1
	}
	if line2 > total {
		line2 = total
	}
	if line2 < line1 {
		return chatmsg.AtCommandsContext{}, fmt.Errorf("@file: line2 must be >= line1")
	}

	slice := strings.Join(lines[line1-1:line2], "\n")

	return chatmsg.AtCommandsContext{
		Kind:  chatmsg.AtFile,
		Query: rawPath,
		Files: []chatmsg.ContextFile{{
			Path:       abs,
			Content:    slice,
			Line1:      line1,
			Line2:      line2,
			Usefulness: 100,
		}},
	}, nil
}

// DefinitionCommand implements `@definition name` (at_ast_definition.rs).
type DefinitionCommand struct{}

func (DefinitionCommand) Kind() chatmsg.AtCommandKind { return chatmsg.AtDefinition }

func (DefinitionCommand) Execute(state *sharedstate.State, args []string, _ string, _ int) (chatmsg.AtCommandsContext, error) {
	if len(args) == 0 {
		return chatmsg.AtCommandsContext{}, fmt.Errorf("@definition requires a symbol argument")
	}
	ast := state.ASTIndex()
	if ast == nil {
		return chatmsg.AtCommandsContext{}, fmt.Errorf("ast index is not available")
	}
	locs, err := ast.Definition(args[0])
	if err != nil {
		return chatmsg.AtCommandsContext{}, err
	}
	return chatmsg.AtCommandsContext{Kind: chatmsg.AtDefinition, Query: args[0], Files: symbolLocationsToFiles(locs, 100)}, nil
}

// ReferencesCommand implements `@references name` (at_ast_reference.rs /
// at_ast_references.rs).
type ReferencesCommand struct{}

func (ReferencesCommand) Kind() chatmsg.AtCommandKind { return chatmsg.AtReferences }

func (ReferencesCommand) Execute(state *sharedstate.State, args []string, _ string, _ int) (chatmsg.AtCommandsContext, error) {
	if len(args) == 0 {
		return chatmsg.AtCommandsContext{}, fmt.Errorf("@references requires a symbol argument")
	}
	ast := state.ASTIndex()
	if ast == nil {
		return chatmsg.AtCommandsContext{}, fmt.Errorf("ast index is not available")
	}
	locs, err := ast.References(args[0])
	if err != nil {
		return chatmsg.AtCommandsContext{}, err
	}
	return chatmsg.AtCommandsContext{Kind: chatmsg.AtReferences, Query: args[0], Files: symbolLocationsToFiles(locs, 80)}, nil
}

// SearchCommand implements `@search query` with the restored scope filter
// (at_file_search.rs's Scope enum): when the first argument names a
// workspace file or directory, the remaining words are the query and the
// search is scoped to that prefix.
type SearchCommand struct{}

func (SearchCommand) Kind() chatmsg.AtCommandKind { return chatmsg.AtSearch }

func (SearchCommand) Execute(state *sharedstate.State, args []string, query string, topN int) (chatmsg.AtCommandsContext, error) {
	vdb := state.VectorIndex()
	if vdb == nil {
		return chatmsg.AtCommandsContext{}, fmt.Errorf("vector index is not available")
	}
	if topN <= 0 {
		topN = 10
	}

	scope := chatmsg.AtCommandScope{Kind: "workspace"}
	searchQuery := query
	if len(args) > 0 {
		if files, err := workspace.ListFiles(state.WorkspaceRoots()); err == nil {
			if candidates := workspace.FuzzyResolveFiles(args[0], files); len(candidates) > 0 {
				scope = fileOrDirScope(candidates[0])
				searchQuery = strings.TrimSpace(strings.Join(args[1:], " "))
				if searchQuery == "" {
					searchQuery = query
				}
			}
		}
	}

	hits, err := vdb.Search(searchQuery, scopeFilter(scope), topN)
	if err != nil {
		return chatmsg.AtCommandsContext{}, err
	}

	files := make([]chatmsg.ContextFile, 0, len(hits))
	for _, h := range hits {
		files = append(files, chatmsg.ContextFile{Path: h.FileName, Line1: h.Line1, Line2: h.Line2, Usefulness: h.Score})
	}
	return chatmsg.AtCommandsContext{Kind: chatmsg.AtSearch, Query: searchQuery, Scope: scope, Files: files}, nil
}

func fileOrDirScope(path string) chatmsg.AtCommandScope {
	if ext := filepath.Ext(path); ext != "" {
		return chatmsg.AtCommandScope{Kind: "file", Path: path}
	}
	return chatmsg.AtCommandScope{Kind: "dir", Path: path}
}

func scopeFilter(scope chatmsg.AtCommandScope) string {
	if scope.Kind == "workspace" || scope.Path == "" {
		return ""
	}
	return scope.Path
}

// TreeCommand implements `@tree [path]`.
type TreeCommand struct{}

func (TreeCommand) Kind() chatmsg.AtCommandKind { return chatmsg.AtTree }

const maxTreeLines = 2000

func (TreeCommand) Execute(state *sharedstate.State, args []string, _ string, _ int) (chatmsg.AtCommandsContext, error) {
	path := ""
	if len(args) > 0 {
		resolved, err := workspace.ResolveInRoots(state.WorkspaceRoots(), args[0])
		if err != nil {
			return chatmsg.AtCommandsContext{}, err
		}
		path = resolved
	}
	out, err := workspace.Tree(state.WorkspaceRoots(), path, maxTreeLines)
	if err != nil {
		return chatmsg.AtCommandsContext{}, fmt.Errorf("@tree: %w", err)
	}
	return chatmsg.AtCommandsContext{Kind: chatmsg.AtTree, PlainText: out}, nil
}

// DiffCommand implements `@diff` by shelling out to the detected VCS
// (at_diff.rs's execute_diff_for_vcs), scoped to an optional file path.
type DiffCommand struct{}

func (DiffCommand) Kind() chatmsg.AtCommandKind { return chatmsg.AtDiff }

func (DiffCommand) Execute(state *sharedstate.State, args []string, _ string, _ int) (chatmsg.AtCommandsContext, error) {
	roots := state.WorkspaceRoots()
	if len(roots) == 0 {
		return chatmsg.AtCommandsContext{}, fmt.Errorf("@diff: no workspace root configured")
	}
	root := roots[0]

	vcs, err := detectVCS(root)
	if err != nil {
		return chatmsg.AtCommandsContext{}, err
	}

	diffArgs := []string{"diff"}
	if len(args) > 0 {
		resolved, err := workspace.ResolveInRoots(roots, args[0])
		if err != nil {
			return chatmsg.AtCommandsContext{}, err
		}
		diffArgs = append(diffArgs, "--", resolved)
	}

	out, err := exec.Command(vcs, diffArgs...).Output()
	if err != nil {
		return chatmsg.AtCommandsContext{}, fmt.Errorf("@diff: %s %v: %w", vcs, diffArgs, err)
	}
	return chatmsg.AtCommandsContext{Kind: chatmsg.AtDiff, PlainText: string(out)}, nil
}

func detectVCS(root string) (string, error) {
	for dir, vcs := range map[string]string{".git": "git", ".hg": "hg", ".svn": "svn"} {
		if fileExists(filepath.Join(root, dir)) {
			return vcs, nil
		}
	}
	return "", fmt.Errorf("no VCS detected under %s", root)
}

func symbolLocationsToFiles(locs []sharedstate.SymbolLocation, usefulness float64) []chatmsg.ContextFile {
	out := make([]chatmsg.ContextFile, 0, len(locs))
	for _, l := range locs {
		out = append(out, chatmsg.ContextFile{Path: l.FileName, Line1: l.Line1, Line2: l.Line2, Usefulness: usefulness})
	}
	return out
}

func resolveWorkspaceFile(state *sharedstate.State, path string) (string, error) {
	roots := state.WorkspaceRoots()
	if resolved, err := workspace.ResolveInRoots(roots, path); err == nil && fileExists(resolved) {
		return resolved, nil
	}

	files, err := workspace.ListFiles(roots)
	if err != nil {
		return "", err
	}
	candidates := workspace.FuzzyResolveFiles(path, files)
	if len(candidates) == 0 {
		return "", fmt.Errorf("no workspace file matches %q", path)
	}
	return candidates[0], nil
}
