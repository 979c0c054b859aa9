package http

import (
	"net/http"

	"painel/internal/session"
)

// handleMe returns the signed-in client's record, loans and expanded loan.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p, _ := session.ProfileFrom(r.Context())
	data, err := s.deps.Clients.Me(r.Context(), p.ID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"cliente":     data.Client,
		"emprestimos": data.Loans,
		"expansion":   s.clientView(r).Loans.State(),
	})
}

func (s *Server) handleMeToggleLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	st, err := s.clientView(r).Loans.Toggle(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}
