package patch

import (
	"strings"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// VoteChunks picks the consensus DiffChunk out of several sub-chat
// candidates that each independently derived a chunk for the same ticket.
// Candidates are grouped by
// their rendered replacement text; the largest group wins, with its Votes
// field set to the group size. Ties are broken by the first candidate in
// the largest group, favoring whichever sub-chat answered first.
func VoteChunks(candidates []chatmsg.DiffChunk) chatmsg.DiffChunk {
	if len(candidates) == 1 {
		c := candidates[0]
		c.Votes = 1
		return c
	}

	type group struct {
		chunk chatmsg.DiffChunk
		count int
	}
	groups := make(map[string]*group)
	var order []string

	for _, c := range candidates {
		key := strings.Join(c.LinesAdd, "\n")
		g, ok := groups[key]
		if !ok {
			g = &group{chunk: c}
			groups[key] = g
			order = append(order, key)
		}
		g.count++
	}

	var best *group
	for _, key := range order {
		g := groups[key]
		if best == nil || g.count > best.count {
			best = g
		}
	}

	winner := best.chunk
	winner.Votes = best.count
	return winner
}
