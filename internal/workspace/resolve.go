package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolveInRoots resolves a (possibly relative) path against the declared
// workspace roots, returning an error if it escapes every one of them.
// Grounded directly on internal/tools/files/resolver.go's Resolver.Resolve,
// generalized from a single root to try-each-of-many.
func ResolveInRoots(roots []string, path string) (string, error) {
	clean := strings.TrimSpace(path)
	if clean == "" {
		return "", fmt.Errorf("path is required")
	}
	if filepath.IsAbs(clean) {
		abs := filepath.Clean(clean)
		for _, root := range roots {
			if within(root, abs) {
				return abs, nil
			}
		}
		return "", fmt.Errorf("path escapes workspace roots: %s", path)
	}

	for _, root := range roots {
		rootAbs, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		target := filepath.Join(rootAbs, clean)
		if within(rootAbs, target) {
			if _, err := os.Stat(target); err == nil {
				return target, nil
			}
		}
	}
	// No root has the file on disk yet (e.g. a new-file patch target);
	// still resolve against the first root so callers can create it.
	if len(roots) > 0 {
		rootAbs, err := filepath.Abs(roots[0])
		if err == nil {
			return filepath.Join(rootAbs, clean), nil
		}
	}
	return "", fmt.Errorf("no workspace root to resolve %q against", path)
}

func within(root, target string) bool {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	targetAbs, err := filepath.Abs(target)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(rootAbs, targetAbs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}

// FuzzyResolveFiles ranks every candidate workspace file against a
// possibly-misspelled or partial path the model supplied, the same
// correction refact-lsp's parameter_repair_candidates performs for @file
// and ticket filename_before fields. Exact-suffix matches (a full
// directory-boundary-respecting tail match) rank above a bare basename
// match; ties keep the walker's deterministic sort order.
func FuzzyResolveFiles(candidate string, files []string) []string {
	candidate = filepath.ToSlash(strings.TrimSpace(candidate))
	if candidate == "" {
		return nil
	}
	base := filepath.Base(candidate)

	var exact, suffixMatch, baseMatch []string
	for _, f := range files {
		slashF := filepath.ToSlash(f)
		switch {
		case slashF == candidate:
			exact = append(exact, f)
		case strings.HasSuffix(slashF, "/"+candidate):
			suffixMatch = append(suffixMatch, f)
		case filepath.Base(f) == base:
			baseMatch = append(baseMatch, f)
		}
	}

	if len(exact) > 0 {
		return exact
	}
	if len(suffixMatch) > 0 {
		return suffixMatch
	}
	return baseMatch
}
