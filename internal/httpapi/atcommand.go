package httpapi

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/nexuslang/nexus-lsp/internal/atcommands"
	"github.com/nexuslang/nexus-lsp/internal/workspace"
)

// knownCommandNames lists every @-command name the registry recognizes,
// the candidate set handleAtCommandCompletion offers once the cursor sits
// right after a bare '@'.
var knownCommandNames = []string{"file", "definition", "references", "search", "tree", "diff"}

type atCommandPreviewRequest struct {
	Text string `json:"text"`
}

type atCommandPreviewResponse struct {
	Spans []atCommandSpan `json:"spans"`
}

type atCommandSpan struct {
	Name  string `json:"name,omitempty"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// handleAtCommandPreview parses text for @-command occurrences and reports
// one highlight span per occurrence, without executing any command (a
// pure diagnostic, unlike the orchestrator's Process which runs every
// recognized command against live state). Every computed span is also
// pushed to subscribers of the /v1/at-command-preview/ws live channel, so
// an editor can keep its inline decoration in sync as the user types
// without round-tripping a new HTTP request per keystroke.
func (s *Server) handleAtCommandPreview(w http.ResponseWriter, r *http.Request) {
	var req atCommandPreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", "decoding request body: "+err.Error())
		return
	}

	known := make(map[string]bool, len(knownCommandNames))
	for _, name := range knownCommandNames {
		known[name] = true
	}

	parsed := atcommands.Parse(req.Text)
	resp := atCommandPreviewResponse{Spans: make([]atCommandSpan, 0, len(parsed))}
	for _, p := range parsed {
		span := atCommandSpan{Name: p.Name, Start: p.StartPos, End: p.EndPos, OK: known[p.Name]}
		if !span.OK {
			span.Error = "unknown command: @" + p.Name
		}
		resp.Spans = append(resp.Spans, span)
	}

	s.previewHub.broadcast(resp)
	writeJSON(w, http.StatusOK, resp)
}

// handleAtCommandPreviewWS upgrades to a websocket connection that
// receives every subsequent handleAtCommandPreview result, as the
// daemon's own control-plane websocket pushes live state to connected
// editors.
func (s *Server) handleAtCommandPreviewWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.previewHub.subscribe(r.Context(), conn)
}

type atCommandCompletionRequest struct {
	Text   string `json:"text"`
	Cursor int    `json:"cursor"`
}

type atCommandCompletionResponse struct {
	Completions []string `json:"completions"`
}

// handleAtCommandCompletion offers completion candidates for the
// @-command (or its last argument) the cursor currently sits inside: a
// command name when the cursor follows a bare '@', or a fuzzy-resolved
// workspace file path matching the last whitespace-separated field once a
// command name is complete.
func (s *Server) handleAtCommandCompletion(w http.ResponseWriter, r *http.Request) {
	var req atCommandCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", "decoding request body: "+err.Error())
		return
	}
	cursor := req.Cursor
	if cursor < 0 || cursor > len(req.Text) {
		cursor = len(req.Text)
	}
	prefix := req.Text[:cursor]

	at := strings.LastIndexByte(prefix, '@')
	if at < 0 {
		writeJSON(w, http.StatusOK, atCommandCompletionResponse{})
		return
	}
	token := prefix[at+1:]
	fields := strings.Fields(token)

	var completions []string
	switch {
	case len(fields) == 0:
		completions = append(completions, knownCommandNames...)
	case len(fields) == 1 && !strings.HasSuffix(token, " "):
		for _, name := range knownCommandNames {
			if strings.HasPrefix(name, fields[0]) {
				completions = append(completions, name)
			}
		}
	default:
		completions = s.completeFileArg(fields[len(fields)-1])
	}

	sort.Strings(completions)
	writeJSON(w, http.StatusOK, atCommandCompletionResponse{Completions: completions})
}

func (s *Server) completeFileArg(partial string) []string {
	files, err := workspace.ListFiles(s.state.WorkspaceRoots())
	if err != nil {
		return nil
	}
	return workspace.FuzzyResolveFiles(partial, files)
}
