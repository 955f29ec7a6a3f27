package httpapi

import "net/http"

// handleListChores returns every chore recorded for the thread named by
// the thread_id query parameter: read-only from the HTTP side, writes
// happen as a side effect of tool dispatch (a chore-creating tool is
// outside this daemon's current tool set).
func (s *Server) handleListChores(w http.ResponseWriter, r *http.Request) {
	threadID := r.URL.Query().Get("thread_id")
	if threadID == "" {
		writeError(w, http.StatusBadRequest, "BadRequest", "thread_id query parameter is required")
		return
	}

	chores, err := s.chores.ListByThread(r.Context(), threadID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "BadRequest", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"chores": chores})
}
