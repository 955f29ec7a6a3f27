package httpapi

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/invopop/jsonschema"

	"github.com/nexuslang/nexus-lsp/internal/tools/policy"
	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

var (
	toolDescSchemaOnce sync.Once
	toolDescSchema     json.RawMessage
)

// toolDescJSONSchema reflects chatmsg.ToolDesc's own shape, the same
// invopop/jsonschema.Reflector pattern internal/config/schema.go uses for
// its Config type, so an editor can validate the /v1/tools response
// against a schema instead of a hand-maintained OpenAPI document.
func toolDescJSONSchema() json.RawMessage {
	toolDescSchemaOnce.Do(func() {
		r := &jsonschema.Reflector{FieldNameTag: "json"}
		schema := r.Reflect(&chatmsg.ToolDesc{})
		data, err := json.Marshal(schema)
		if err != nil {
			return
		}
		toolDescSchema = data
	})
	return toolDescSchema
}

// handleListTools responds with every registered tool's descriptor plus
// the JSON Schema describing that descriptor shape, in OpenAI-style
// function-calling form.
func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tools":  s.state.Tools.Descriptors(),
		"schema": json.RawMessage(toolDescJSONSchema()),
	})
}

type confirmationCheckRequest struct {
	ToolCalls []chatmsg.ToolCall `json:"tool_calls"`
}

type confirmationCheckResponse struct {
	Pause        bool     `json:"pause"`
	PauseReasons []string `json:"pause_reasons,omitempty"`
}

// handleCheckConfirmation runs every proposed tool call through the
// confirm/deny/ask_user gate without executing anything, so an editor can
// show a consent dialog before the orchestrator ever dispatches a call.
func (s *Server) handleCheckConfirmation(w http.ResponseWriter, r *http.Request) {
	var req confirmationCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", "decoding request body: "+err.Error())
		return
	}

	p := toolPolicyOrDefault(nil)
	resp := confirmationCheckResponse{}
	for _, call := range req.ToolCalls {
		decision := s.state.Tools.MatchAgainstConfirmDeny(p, call.Name)
		if decision.Verdict == policy.VerdictConfirmation || decision.Verdict == policy.VerdictDeny {
			resp.Pause = true
			resp.PauseReasons = append(resp.PauseReasons, decision.Reason)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
