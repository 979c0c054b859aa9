package http

import (
	"net/http"
)

// handleDashboard returns the figures of ?month=YYYY-MM, the current month
// by default.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	month, err := s.deps.Dashboard.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		fail(w, r, badRequest{err.Error()})
		return
	}
	summary, err := s.deps.Dashboard.Summary(r.Context(), month)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}
