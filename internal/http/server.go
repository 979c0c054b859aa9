// Package http serves the JSON back-end of the loan dashboard: admin and
// client sessions, clients, loans, the client detail panel and the
// dashboard figures.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"painel/internal/log"
	"painel/internal/middleware/ratelimit"
	"painel/internal/middleware/security"
	"painel/internal/middleware/trace"
	"painel/internal/reconcile"
	"painel/internal/services"
	"painel/internal/session"
)

// Deps are the services the handlers call.
type Deps struct {
	Clients   *services.ClientService
	Loans     *services.LoanService
	Dashboard *services.DashboardService
	Auth      *services.AuthService
	Sessions  *session.Manager

	// Ready, when set, is called by /readyz.
	Ready func(ctx context.Context) error
}

type Options struct {
	LoginRatePerMinute int
	Logger             *log.Logger
}

// Server serves the dashboard API and owns the per-session views.
type Server struct {
	http.Server
	deps Deps

	adminViews  *reconcile.Workspace
	clientViews *reconcile.Workspace

	limiter      *ratelimit.Limiter
	ipResolver   *security.IPResolver
	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, deps Deps, opts Options) *Server {
	s := &Server{
		deps:        deps,
		adminViews:  reconcile.NewWorkspace(deps.Loans),
		clientViews: reconcile.NewWorkspace(ownLoans{loans: deps.Loans}),
		limiter:     ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.LoginRatePerMinute}),
		ipResolver:  security.NewIPResolver(),
		started:     time.Now(),
	}

	mux := http.NewServeMux()
	limited := s.limiter.Middleware(s.ipResolver.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusTooManyRequests, "muitas tentativas, tente novamente em instantes")
	})
	admin := deps.Sessions.RequireAdmin
	client := deps.Sessions.RequireClient

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.Handle("POST /admin/login", limited(http.HandlerFunc(s.handleAdminLogin)))
	mux.HandleFunc("POST /admin/logout", s.handleAdminLogout)
	mux.Handle("POST /login", limited(http.HandlerFunc(s.handleClientLogin)))
	mux.HandleFunc("POST /logout", s.handleClientLogout)
	mux.Handle("POST /register", limited(http.HandlerFunc(s.handleRegister)))

	mux.Handle("GET /api/dashboard", admin(http.HandlerFunc(s.handleDashboard)))

	mux.Handle("GET /api/clients", admin(http.HandlerFunc(s.handleListClients)))
	mux.Handle("POST /api/clients/refresh", admin(http.HandlerFunc(s.handleRefreshClients)))
	mux.Handle("POST /api/clients", admin(http.HandlerFunc(s.handleCreateClient)))
	mux.Handle("PUT /api/clients/{id}", admin(http.HandlerFunc(s.handleUpdateClient)))
	mux.Handle("DELETE /api/clients/{id}", admin(http.HandlerFunc(s.handleDeleteClient)))
	mux.Handle("POST /api/clients/{id}/delinquent", admin(http.HandlerFunc(s.handleSetDelinquent)))

	mux.Handle("GET /api/loans", admin(http.HandlerFunc(s.handleListLoans)))
	mux.Handle("POST /api/loans", admin(http.HandlerFunc(s.handleCreateLoan)))
	mux.Handle("POST /api/loans/{id}/cancel", admin(http.HandlerFunc(s.handleCancelLoan)))
	mux.Handle("POST /api/loans/{id}/toggle", admin(http.HandlerFunc(s.handleToggleLoan)))

	mux.Handle("GET /api/detail", admin(http.HandlerFunc(s.handleDetail)))
	mux.Handle("POST /api/detail/select", admin(http.HandlerFunc(s.handleDetailSelect)))
	mux.Handle("POST /api/detail/tab", admin(http.HandlerFunc(s.handleDetailTab)))
	mux.Handle("POST /api/detail/close", admin(http.HandlerFunc(s.handleDetailClose)))
	mux.Handle("POST /api/detail/loans/{id}/toggle", admin(http.HandlerFunc(s.handleDetailToggleLoan)))

	mux.Handle("GET /api/me", client(http.HandlerFunc(s.handleMe)))
	mux.Handle("POST /api/me/loans/{id}/toggle", client(http.HandlerFunc(s.handleMeToggleLoan)))

	var handler http.Handler = mux
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = trace.NewMiddleware(s.ipResolver.ClientIP).Middleware(handler)
	if opts.Logger != nil {
		handler = log.Middleware(opts.Logger)(handler)
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]any{
		"rate_limiter": map[string]any{"active_clients": s.limiter.ActiveClients()},
	}
	if s.deps.Ready != nil {
		if err := s.deps.Ready(ctx); err != nil {
			checks["storage"] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["storage"] = "ok"
		}
	}

	writeJSON(w, r, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}
