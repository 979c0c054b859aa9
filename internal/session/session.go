// Package session persists the admin token and the client session in the
// key-value store, one set of keys per browser cookie, and gates routes on
// their presence.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"painel/internal/core"
	"painel/internal/log"
	"painel/internal/storage"
)

// Keys of one browser session.
const (
	AdminTokenKey    = "@EvolutionCRM:token"
	ClientTokenKey   = "token"
	ClientProfileKey = "usuario"
)

const CookieName = "painel_sid"

// Redirect targets for unauthenticated requests.
const (
	AdminLoginPath  = "/admin"
	ClientLoginPath = "/"
)

var ErrNoSession = errors.New("no session")

// Profile is the user object returned by the client login.
type Profile struct {
	ID   core.ID `json:"id"`
	Name string  `json:"nome,omitempty"`
	CPF  string  `json:"cpf,omitempty"`
	Kind string  `json:"tipo,omitempty"`
}

// Manager stores admin and client sessions and sets their cookie.
type Manager struct {
	store  storage.Store
	secure bool
}

func NewManager(store storage.Store, secureCookies bool) *Manager {
	return &Manager{store: store, secure: secureCookies}
}

type ctxKey int

const (
	sidKey ctxKey = iota
	profileKey
)

// ID returns the session id stored in the request context by a gate.
func ID(ctx context.Context) string {
	s, _ := ctx.Value(sidKey).(string)
	return s
}

// ProfileFrom returns the client profile stored by RequireClient.
func ProfileFrom(ctx context.Context) (Profile, bool) {
	p, ok := ctx.Value(profileKey).(Profile)
	return p, ok
}

func key(sid, name string) string {
	return "session:" + sid + ":" + name
}

func (m *Manager) sessionID(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return "", false
	}
	return c.Value, true
}

func (m *Manager) ensureSessionID(w http.ResponseWriter, r *http.Request) string {
	if sid, ok := m.sessionID(r); ok {
		return sid
	}
	sid := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sid
}

func (m *Manager) SaveAdmin(ctx context.Context, w http.ResponseWriter, r *http.Request, token string) error {
	sid := m.ensureSessionID(w, r)
	if err := m.store.Set(ctx, key(sid, AdminTokenKey), token); err != nil {
		return fmt.Errorf("save admin token: %w", err)
	}
	return nil
}

// AdminToken returns the admin token of the request's session.
func (m *Manager) AdminToken(ctx context.Context, r *http.Request) (string, error) {
	sid, ok := m.sessionID(r)
	if !ok {
		return "", ErrNoSession
	}
	tok, ok, err := m.store.Get(ctx, key(sid, AdminTokenKey))
	if err != nil {
		return "", fmt.Errorf("read admin token: %w", err)
	}
	if !ok || tok == "" {
		return "", ErrNoSession
	}
	return tok, nil
}

func (m *Manager) ClearAdmin(ctx context.Context, r *http.Request) error {
	sid, ok := m.sessionID(r)
	if !ok {
		return nil
	}
	if err := m.store.Delete(ctx, key(sid, AdminTokenKey)); err != nil {
		return fmt.Errorf("clear admin token: %w", err)
	}
	return nil
}

// SaveClient stores the client token and the raw profile object.
func (m *Manager) SaveClient(ctx context.Context, w http.ResponseWriter, r *http.Request, token string, profile json.RawMessage) error {
	var p Profile
	if err := json.Unmarshal(profile, &p); err != nil {
		return fmt.Errorf("decode profile: %w", err)
	}
	sid := m.ensureSessionID(w, r)
	if err := m.store.Set(ctx, key(sid, ClientTokenKey), token); err != nil {
		return fmt.Errorf("save client token: %w", err)
	}
	if err := m.store.Set(ctx, key(sid, ClientProfileKey), string(profile)); err != nil {
		return fmt.Errorf("save client profile: %w", err)
	}
	return nil
}

// Client returns the client profile when both the token and the profile are
// present.
func (m *Manager) Client(ctx context.Context, r *http.Request) (Profile, error) {
	sid, ok := m.sessionID(r)
	if !ok {
		return Profile{}, ErrNoSession
	}
	tok, ok, err := m.store.Get(ctx, key(sid, ClientTokenKey))
	if err != nil {
		return Profile{}, fmt.Errorf("read client token: %w", err)
	}
	if !ok || tok == "" {
		return Profile{}, ErrNoSession
	}
	raw, ok, err := m.store.Get(ctx, key(sid, ClientProfileKey))
	if err != nil {
		return Profile{}, fmt.Errorf("read client profile: %w", err)
	}
	if !ok {
		return Profile{}, ErrNoSession
	}
	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Profile{}, ErrNoSession
	}
	return p, nil
}

func (m *Manager) ClearClient(ctx context.Context, r *http.Request) error {
	sid, ok := m.sessionID(r)
	if !ok {
		return nil
	}
	if err := m.store.Delete(ctx, key(sid, ClientTokenKey), key(sid, ClientProfileKey)); err != nil {
		return fmt.Errorf("clear client session: %w", err)
	}
	return nil
}

// RequireAdmin redirects to the admin login when the session has no admin
// token.
func (m *Manager) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := m.AdminToken(r.Context(), r); err != nil {
			m.deny(w, r, AdminLoginPath, err)
			return
		}
		sid, _ := m.sessionID(r)
		ctx := context.WithValue(r.Context(), sidKey, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireClient redirects to the client login when the token or the profile
// is missing.
func (m *Manager) RequireClient(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := m.Client(r.Context(), r)
		if err != nil {
			m.deny(w, r, ClientLoginPath, err)
			return
		}
		sid, _ := m.sessionID(r)
		ctx := context.WithValue(r.Context(), sidKey, sid)
		ctx = context.WithValue(ctx, profileKey, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Manager) deny(w http.ResponseWriter, r *http.Request, target string, err error) {
	if !errors.Is(err, ErrNoSession) {
		slog.ErrorContext(r.Context(), "Session lookup failed",
			log.FieldComponent, log.ComponentSession,
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
