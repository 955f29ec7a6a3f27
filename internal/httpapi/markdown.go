package httpapi

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

var markdownRenderer = goldmark.New()

// renderPatchSummaryMarkdown builds a one-line-per-chunk markdown bullet
// list naming the touched files and line ranges, then renders it to HTML
// so an editor's patch-review panel can show prose rather than raw JSON.
// Returns "" (not an HTML error fragment) if chunks is empty or rendering
// fails, since the summary is decorative — never load-bearing for the
// patch endpoint's own state/results/chunks contract.
func renderPatchSummaryMarkdown(chunks []chatmsg.DiffChunk) string {
	if len(chunks) == 0 {
		return ""
	}

	var md strings.Builder
	md.WriteString("### Patch summary\n\n")
	for _, c := range chunks {
		md.WriteString(fmt.Sprintf("- `%s` lines %d-%d", c.FileName, c.Line1, c.Line2))
		if c.Votes > 1 {
			md.WriteString(fmt.Sprintf(" (%d votes)", c.Votes))
		}
		md.WriteString("\n")
	}

	var html bytes.Buffer
	if err := markdownRenderer.Convert([]byte(md.String()), &html); err != nil {
		return ""
	}
	return html.String()
}
