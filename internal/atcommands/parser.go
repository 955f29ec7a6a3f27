// Package atcommands implements parsing of `@command arg1 arg2 …` lines
// out of a user's chat message, resolving each against workspace/AST/
// vector capabilities in sharedstate.State, and producing the context_file
// messages plus non-aborting highlight spans the orchestrator prepends to
// a turn.
//
// Grounded on internal/commands/parser.go's regexp-based inline command
// detection (start/end position tracking for highlight spans), generalized
// from slash-prefixed chat commands to a `@`-prefixed, left-to-right,
// never-abort contract, and on the original refact-lsp at_commands/*
// family (at_file.rs, at_file_search.rs, at_ast_definition.rs, at_diff.rs)
// for each command's concrete semantics.
package atcommands

import (
	"regexp"
	"strconv"
	"strings"
)

// commandRe matches an `@name arg1 arg2` token at the start of a line or
// after whitespace; arguments run until the next whitespace run, following
// internal/commands/parser.go's inlineRe "command then space-separated
// args" shape. Each
// argument token is required to not itself start with '@', so a
// subsequent `@command` in the same message starts a new match instead of
// being swallowed as an argument of the first.
var commandRe = regexp.MustCompile(`(?:^|\s)@([a-zA-Z][a-zA-Z0-9_-]*)((?:\s+[^@\s]\S*)*)`)

// ParsedCommand is one `@cmd arg…` occurrence found in a message, with the
// byte offsets needed to render an editor highlight span over it.
type ParsedCommand struct {
	Name     string
	Args     []string
	StartPos int
	EndPos   int
}

// Parse finds every `@command` occurrence in text, left to right. Commands
// whose name isn't registered are still returned (the Processor reports an
// "unknown command" span for them) rather than silently dropped — the
// orchestrator never aborts a turn over one bad command.
func Parse(text string) []ParsedCommand {
	matches := commandRe.FindAllStringSubmatchIndex(text, -1)
	out := make([]ParsedCommand, 0, len(matches))
	for _, m := range matches {
		start := m[2] - 1 // include the '@'
		if start < 0 || text[start] != '@' {
			start = m[2]
		}
		name := text[m[2]:m[3]]
		argsText := strings.TrimSpace(text[m[4]:m[5]])
		var args []string
		if argsText != "" {
			args = strings.Fields(argsText)
		}
		out = append(out, ParsedCommand{
			Name:     name,
			Args:     args,
			StartPos: start,
			EndPos:   m[5],
		})
	}
	return out
}

// SplitFileArg splits an `@file path[:L1[-L2]]` argument into a path and
// an optional 1-based [line1, line2] range, mirroring at_file.rs's
// file_start_line/file_end_line parsing.
func SplitFileArg(arg string) (path string, line1, line2 int, hasRange bool) {
	idx := strings.LastIndex(arg, ":")
	if idx < 0 {
		return arg, 0, 0, false
	}
	rangePart := arg[idx+1:]
	path = arg[:idx]

	if dash := strings.Index(rangePart, "-"); dash >= 0 {
		l1, err1 := strconv.Atoi(rangePart[:dash])
		l2, err2 := strconv.Atoi(rangePart[dash+1:])
		if err1 == nil && err2 == nil {
			return path, l1, l2, true
		}
	} else if l1, err := strconv.Atoi(rangePart); err == nil {
		return path, l1, l1, true
	}
	// Not a valid range after all; the colon was part of the path (e.g. a
	// Windows drive letter or URL-like scheme some editors send).
	return arg, 0, 0, false
}
