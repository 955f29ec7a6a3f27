package patch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// maxSearchRadius is the last 0-based start line at which locateWindow
// still accepts a fuzzy (non-exact) match; exact matches are accepted
// anywhere in the file.
const maxSearchRadius = 200

// locateWindow finds the best line range in lines matching want, scoring
// every window of len(want) lines from the start of the file. An exact
// contiguous match is preferred; if none exists, the window with the fewest
// mismatched lines (at least half matching) is accepted, which is how a
// PARTIAL_EDIT ticket still applies after a few unrelated lines shifted
// since the model read the file.
func locateWindow(lines, want []string) (line1, line2 int, err error) {
	if len(want) == 0 {
		return 0, 0, fmt.Errorf("empty match window")
	}
	n := len(want)

	bestScore := -1
	bestStart := -1
	for start := 0; start+n <= len(lines); start++ {
		score := 0
		for i := 0; i < n; i++ {
			if strings.TrimRight(lines[start+i], " \t") == strings.TrimRight(want[i], " \t") {
				score++
			}
		}
		if score == n {
			return start + 1, start + n, nil
		}
		if score > bestScore {
			bestScore = score
			bestStart = start
		}
	}

	if bestStart < 0 {
		return 0, 0, fmt.Errorf("no candidate window of %d lines found", n)
	}
	if bestScore*2 < n {
		return 0, 0, fmt.Errorf("best fuzzy match only %d/%d lines, below half threshold", bestScore, n)
	}
	if bestStart > maxSearchRadius && bestScore != n {
		return 0, 0, fmt.Errorf("best fuzzy match found only beyond search radius %d", maxSearchRadius)
	}
	return bestStart + 1, bestStart + n, nil
}

// ApplyChunk applies one DiffChunk to content, returning the new content.
// It re-locates the chunk's original lines with locateWindow rather than
// trusting chunk.Line1/Line2 verbatim, so a chunk derived a few seconds ago
// against a slightly-stale read still lands correctly.
func ApplyChunk(content string, chunk chatmsg.DiffChunk) (string, error) {
	lines := splitLines(content)

	if len(chunk.LinesOrig) == 0 {
		// Pure insertion (NEW_FILE content, or an add-only chunk).
		if chunk.Line1 <= 1 {
			return joinLines(append(append([]string{}, chunk.LinesAdd...), lines...)), nil
		}
		idx := chunk.Line1 - 1
		if idx > len(lines) {
			idx = len(lines)
		}
		out := append([]string{}, lines[:idx]...)
		out = append(out, chunk.LinesAdd...)
		out = append(out, lines[idx:]...)
		return joinLines(out), nil
	}

	line1, line2, err := locateWindow(lines, chunk.LinesOrig)
	if err != nil {
		return "", fmt.Errorf("patch: applying chunk for %s: %w", chunk.FileName, err)
	}

	out := append([]string{}, lines[:line1-1]...)
	out = append(out, chunk.LinesAdd...)
	out = append(out, lines[line2:]...)
	return joinLines(out), nil
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// WriteAtomic applies chunk(s) to the file at path (relative to root) and
// writes the result with a temp-file-then-rename so a crash mid-write never
// leaves a half-written file behind.
func WriteAtomic(root, relPath string, chunks []chatmsg.DiffChunk, isDelete, isNewFile bool) error {
	fullPath := filepath.Join(root, relPath)
	if !strings.HasPrefix(fullPath, filepath.Clean(root)+string(filepath.Separator)) && fullPath != filepath.Clean(root) {
		return fmt.Errorf("patch: path %q escapes workspace root", relPath)
	}

	if isDelete {
		if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("patch: deleting %q: %w", relPath, err)
		}
		return nil
	}

	var content string
	if !isNewFile {
		data, err := os.ReadFile(fullPath)
		if err != nil {
			return fmt.Errorf("patch: reading %q: %w", relPath, err)
		}
		content = string(data)
	}

	for _, c := range chunks {
		updated, err := ApplyChunk(content, c)
		if err != nil {
			return err
		}
		content = updated
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("patch: creating parent dirs for %q: %w", relPath, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".patch-*.tmp")
	if err != nil {
		return fmt.Errorf("patch: creating temp file for %q: %w", relPath, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("patch: writing temp file for %q: %w", relPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("patch: closing temp file for %q: %w", relPath, err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("patch: renaming temp file into %q: %w", relPath, err)
	}
	return nil
}
