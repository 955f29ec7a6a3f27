// Package workspace implements the file-tree walker, fuzzy filename
// correction, and change-notification plumbing that backs the @file/@tree
// commands, the cat/tree tools, and the patch engine's ticket filename
// correction.
//
// Grounded on internal/tools/files/resolver.go's workspace-root path
// containment check, generalized here from a single root to the multiple
// declared workspace roots sharedstate.State.WorkspaceRoots holds.
package workspace

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ignoredDirs are skipped wholesale during a workspace walk; the same
// noise every editor-facing file listing excludes.
var ignoredDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	".venv":        true,
	"__pycache__":  true,
	"target":       true,
	"dist":         true,
	"build":        true,
}

// ListFiles walks every declared workspace root and returns every regular
// file's absolute path, skipping hidden/vendor directories. Results are
// sorted for deterministic fuzzy-match ranking.
func ListFiles(roots []string) ([]string, error) {
	var out []string
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if name != "." && (ignoredDirs[name] || strings.HasPrefix(name, ".")) {
					return filepath.SkipDir
				}
				return nil
			}
			out = append(out, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(out)
	return out, nil
}

// Tree renders an indented directory listing rooted at path (or every
// workspace root if path is empty), truncated to maxLines so @tree / the
// tree() tool never blows a chat turn's budget on a huge repo.
func Tree(roots []string, path string, maxLines int) (string, error) {
	var targets []string
	if path != "" {
		targets = []string{path}
	} else {
		targets = roots
	}

	var b strings.Builder
	lines := 0
	for _, root := range targets {
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return err
			}
			if lines >= maxLines {
				return filepath.SkipAll
			}
			name := d.Name()
			if d.IsDir() && name != "." && (ignoredDirs[name] || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			rel, relErr := filepath.Rel(root, p)
			if relErr != nil {
				rel = p
			}
			depth := strings.Count(rel, string(filepath.Separator))
			if rel == "." {
				depth = 0
				rel = filepath.Base(root)
			}
			b.WriteString(strings.Repeat("  ", depth))
			b.WriteString(rel)
			if d.IsDir() {
				b.WriteString("/")
			}
			b.WriteString("\n")
			lines++
			return nil
		})
		if err != nil {
			return "", err
		}
	}
	if lines >= maxLines {
		b.WriteString("... (truncated)\n")
	}
	return b.String(), nil
}
