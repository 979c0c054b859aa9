package http

import (
	"net/http"

	"painel/internal/core"
	"painel/internal/reconcile"
)

type detailResponse struct {
	reconcile.DetailState
	Client      *core.Client `json:"cliente,omitempty"`
	ClientLoans []core.Loan  `json:"emprestimos,omitempty"`
}

// detail attaches the open client and its loans to st.
func (s *Server) detail(r *http.Request, st reconcile.DetailState) (detailResponse, error) {
	resp := detailResponse{DetailState: st}
	if !st.Open {
		return resp, nil
	}
	c, err := s.deps.Clients.Find(r.Context(), st.ClientID)
	if err != nil {
		return resp, err
	}
	loans, err := s.deps.Loans.ForClient(r.Context(), st.ClientID)
	if err != nil {
		return resp, err
	}
	resp.Client = &c
	resp.ClientLoans = loans
	return resp, nil
}

func (s *Server) writeDetail(w http.ResponseWriter, r *http.Request, st reconcile.DetailState) {
	resp, err := s.detail(r, st)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	s.writeDetail(w, r, s.adminView(r).Detail.State())
}

func (s *Server) handleDetailSelect(w http.ResponseWriter, r *http.Request) {
	body, err := parseBody(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	id := core.ID(body.Get("id_cliente"))
	if id == "" {
		fail(w, r, badRequest{"id_cliente ausente"})
		return
	}
	s.writeDetail(w, r, s.adminView(r).Detail.Select(id))
}

func (s *Server) handleDetailTab(w http.ResponseWriter, r *http.Request) {
	body, err := parseBody(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	tab, err := reconcile.ParseTab(body.Get("tab"))
	if err != nil {
		fail(w, r, badRequest{err.Error()})
		return
	}
	st, err := s.adminView(r).Detail.SelectTab(tab)
	if err != nil {
		fail(w, r, err)
		return
	}
	s.writeDetail(w, r, st)
}

func (s *Server) handleDetailClose(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.adminView(r).Detail.Close())
}

func (s *Server) handleDetailToggleLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	st, err := s.adminView(r).Detail.ToggleLoan(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}
