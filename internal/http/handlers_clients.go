package http

import (
	"net/http"

	"painel/internal/reconcile"
)

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := reconcile.ParseClientFilter(q.Get("status"))
	if err != nil {
		fail(w, r, badRequest{err.Error()})
		return
	}
	clients, err := s.deps.Clients.List(r.Context(), q.Get("q"), filter)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, clients)
}

func (s *Server) handleRefreshClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.deps.Clients.Refresh(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, clients)
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	p, err := decodeClient(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	defer p.Close()

	created, err := s.deps.Clients.Create(r.Context(), p.Client, p.Uploads)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	p, err := decodeClient(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	defer p.Close()

	updated, err := s.deps.Clients.Update(r.Context(), id, p.Client)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, updated)
}

func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if !requireConfirm(w, r) {
		return
	}
	remaining, err := s.deps.Clients.Delete(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, remaining)
}

func (s *Server) handleSetDelinquent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	body, err := parseBody(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	on, err := body.Bool("red_cliente")
	if err != nil {
		fail(w, r, err)
		return
	}
	updated, err := s.deps.Clients.SetDelinquent(r.Context(), id, on)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, updated)
}
