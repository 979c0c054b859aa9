package http

import (
	"net/http"

	"painel/internal/session"
)

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	body, err := parseBody(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	token, err := s.deps.Auth.AdminLogin(r.Context(), body.Get("email"), body.Get("senha"))
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := s.deps.Sessions.SaveAdmin(r.Context(), w, r, token); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"success": true, "redirect": "/dashboard"})
}

func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Sessions.ClearAdmin(r.Context(), r); err != nil {
		fail(w, r, err)
		return
	}
	if sid := cookieSession(r); sid != "" {
		s.adminViews.Drop(sid)
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"success": true, "redirect": session.AdminLoginPath})
}

func (s *Server) handleClientLogin(w http.ResponseWriter, r *http.Request) {
	body, err := parseBody(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	login, err := s.deps.Auth.ClientLogin(r.Context(), body.Get("cpf"), body.Get("senha"))
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := s.deps.Sessions.SaveClient(r.Context(), w, r, login.Token, login.Profile); err != nil {
		writeError(w, r, http.StatusBadGateway, "resposta de login inválida")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"success": true, "usuario": login.Profile, "redirect": "/me"})
}

func (s *Server) handleClientLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Sessions.ClearClient(r.Context(), r); err != nil {
		fail(w, r, err)
		return
	}
	if sid := cookieSession(r); sid != "" {
		s.clientViews.Drop(sid)
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"success": true, "redirect": session.ClientLoginPath})
}

// handleRegister is the public self-registration form.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	p, err := decodeClient(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	defer p.Close()

	created, err := s.deps.Clients.Register(r.Context(), p.Client, p.Uploads)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, created)
}

func cookieSession(r *http.Request) string {
	c, err := r.Cookie(session.CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
