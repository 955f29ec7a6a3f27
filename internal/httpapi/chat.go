package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nexuslang/nexus-lsp/internal/chatturn"
	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// chatPostRequest is the body of POST /v1/chat and
// POST /v1/chat/completions.
type chatPostRequest struct {
	Messages    []chatmsg.ChatMessage `json:"messages"`
	Model       string                `json:"model,omitempty"`
	ChatMode    string                `json:"chat_mode,omitempty"`
	ChatID      string                `json:"chat_id,omitempty"`
	TopN        int                   `json:"top_n,omitempty"`
	Stream      bool                  `json:"stream,omitempty"`
	ActiveFile  string                `json:"active_file,omitempty"`
	ProjectInfo string                `json:"project_info,omitempty"`
}

func (s *Server) parseChatRequest(w http.ResponseWriter, r *http.Request) (chatPostRequest, chatmsg.ChatMessage, []chatmsg.ChatMessage, chatturn.TurnOptions, bool) {
	var req chatPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", "decoding request body: "+err.Error())
		return req, chatmsg.ChatMessage{}, nil, chatturn.TurnOptions{}, false
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "BadRequest", "messages must be non-empty")
		return req, chatmsg.ChatMessage{}, nil, chatturn.TurnOptions{}, false
	}

	c := s.state.Caps()
	if c == nil {
		writeError(w, http.StatusInternalServerError, "CapsUnavailable", "model catalog not loaded")
		return req, chatmsg.ChatMessage{}, nil, chatturn.TurnOptions{}, false
	}

	model := resolveModel(c, req.Model)
	mode := chatturn.ModeAgent
	if req.ChatMode != "" {
		mode = chatturn.ChatMode(req.ChatMode)
	}

	userMsg := req.Messages[len(req.Messages)-1]
	history := req.Messages[:len(req.Messages)-1]

	opts := chatturn.TurnOptions{
		Model:       model,
		ChatMode:    mode,
		Workspace:   chatturn.WorkspaceInfo{Roots: s.state.WorkspaceRoots(), ActiveFile: req.ActiveFile},
		ProjectInfo: req.ProjectInfo,
		TopN:        req.TopN,
		ToolPolicy:  toolPolicyOrDefault(nil),
	}
	return req, userMsg, history, opts, true
}

// handleChat runs one turn to completion and returns the final assistant
// message as a single JSON body (the non-streaming counterpart of
// handleChatCompletions).
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	_, userMsg, history, opts, ok := s.parseChatRequest(w, r)
	if !ok {
		return
	}

	ctx, span := s.tracer.StartChatTurn(r.Context(), opts.Model)
	defer span.End()
	start := time.Now()

	events, err := s.orchestrator.RunTurn(ctx, history, userMsg, opts)
	if err != nil {
		s.tracer.RecordError(span, err)
		writeError(w, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}

	var final *chatmsg.ChatMessage
	var toolCalls int
	outcome := "error"
	for ev := range events {
		switch ev.Kind {
		case chatturn.EventToolResult:
			toolCalls++
		case chatturn.EventDone:
			final = ev.Message
			outcome = "done"
		case chatturn.EventPending:
			outcome = "pending"
			writeJSON(w, http.StatusOK, map[string]any{
				"pause":         true,
				"pause_reasons": []string{ev.Reason},
				"tool_call":     ev.ToolCall,
			})
			s.recordTurn(opts.Model, outcome, toolCalls, start)
			return
		case chatturn.EventError:
			s.tracer.RecordError(span, ev.Err)
			writeError(w, http.StatusInternalServerError, "ModelEndpointError", ev.Err.Error())
			s.recordTurn(opts.Model, outcome, toolCalls, start)
			return
		}
	}

	s.recordTurn(opts.Model, outcome, toolCalls, start)
	if final == nil {
		writeError(w, http.StatusInternalServerError, "ModelEndpointError", "turn ended without a final message")
		return
	}
	writeJSON(w, http.StatusOK, final)
}

// handleChatCompletions streams the turn as SSE, one `data:` line per
// Event, terminating with a `data: [DONE]` sentinel once the turn ends
// (EventDone, EventError or EventPending).
func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	_, userMsg, history, opts, ok := s.parseChatRequest(w, r)
	if !ok {
		return
	}

	flusher, canFlush := w.(http.Flusher)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx, span := s.tracer.StartChatTurn(r.Context(), opts.Model)
	defer span.End()
	start := time.Now()

	events, err := s.orchestrator.RunTurn(ctx, history, userMsg, opts)
	if err != nil {
		s.tracer.RecordError(span, err)
		writeSSEError(w, err)
		return
	}

	var toolCalls int
	outcome := "error"
	for ev := range events {
		switch ev.Kind {
		case chatturn.EventToolResult:
			toolCalls++
		case chatturn.EventDone:
			outcome = "done"
		case chatturn.EventPending:
			outcome = "pending"
		case chatturn.EventError:
			outcome = "error"
			s.tracer.RecordError(span, ev.Err)
		}
		writeSSEEvent(w, ev)
		if canFlush {
			flusher.Flush()
		}
		if ev.Kind == chatturn.EventDone || ev.Kind == chatturn.EventError || ev.Kind == chatturn.EventPending {
			break
		}
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
	if canFlush {
		flusher.Flush()
	}
	s.recordTurn(opts.Model, outcome, toolCalls, start)
}

func writeSSEEvent(w http.ResponseWriter, ev chatturn.Event) {
	payload := map[string]any{"kind": ev.Kind}
	if ev.Message != nil {
		payload["message"] = ev.Message
	}
	if ev.Delta != "" {
		payload["delta"] = ev.Delta
	}
	if ev.ToolCall != nil {
		payload["tool_call"] = ev.ToolCall
	}
	if ev.Reason != "" {
		payload["reason"] = ev.Reason
	}
	if ev.Err != nil {
		payload["error"] = ev.Err.Error()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

func writeSSEError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "text/event-stream")
	data, _ := json.Marshal(map[string]string{"kind": "error", "error": err.Error()})
	fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Server) recordTurn(model, outcome string, toolCalls int, start time.Time) {
	s.metrics.ChatTurnsTotal.WithLabelValues(model, outcome).Inc()
	s.metrics.ChatTurnDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())
	s.metrics.ChatTurnToolCalls.WithLabelValues(model).Observe(float64(toolCalls))
}
