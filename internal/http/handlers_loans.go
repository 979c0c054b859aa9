package http

import (
	"context"
	"net/http"
	"strconv"

	"painel/internal/core"
	"painel/internal/reconcile"
	"painel/internal/services"
	"painel/internal/session"
)

func (s *Server) handleListLoans(w http.ResponseWriter, r *http.Request) {
	filter, err := reconcile.ParseLoanFilter(r.URL.Query().Get("status"))
	if err != nil {
		fail(w, r, badRequest{err.Error()})
		return
	}
	rows, err := s.deps.Loans.List(r.Context(), filter)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"emprestimos": rows,
		"expansion":   s.adminView(r).Loans.State(),
	})
}

func (s *Server) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	body, err := parseBody(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	principal, err := strconv.ParseFloat(body.Get("valor_emprestimo"), 64)
	if err != nil {
		fail(w, r, badRequest{"valor_emprestimo inválido"})
		return
	}
	count, err := strconv.Atoi(body.Get("quantidade_parcelas"))
	if err != nil {
		fail(w, r, badRequest{"quantidade_parcelas inválida"})
		return
	}
	weekend, err := body.Bool("notification_fds")
	if err != nil {
		fail(w, r, err)
		return
	}

	loan, err := s.deps.Loans.Create(r.Context(), core.ID(body.Get("id_cliente")), principal, count, weekend)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, loan)
}

func (s *Server) handleCancelLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if !requireConfirm(w, r) {
		return
	}
	if err := s.deps.Loans.Cancel(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"success": true, "id_emprestimo": id})
}

// handleToggleLoan expands or collapses one loan on the loans screen.
func (s *Server) handleToggleLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	st, err := s.adminView(r).Loans.Toggle(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

func (s *Server) adminView(r *http.Request) *reconcile.View {
	return s.adminViews.For(session.ID(r.Context()))
}

func (s *Server) clientView(r *http.Request) *reconcile.View {
	return s.clientViews.For(session.ID(r.Context()))
}

// ownLoans fetches a loan only when it belongs to the signed-in client.
type ownLoans struct {
	loans *services.LoanService
}

func (o ownLoans) GetLoan(ctx context.Context, id core.ID) (core.Loan, error) {
	p, ok := session.ProfileFrom(ctx)
	if !ok {
		return core.Loan{}, errNotOwner
	}
	l, err := o.loans.Get(ctx, id)
	if err != nil {
		return core.Loan{}, err
	}
	if !l.ClientID.Same(p.ID) {
		return core.Loan{}, errNotOwner
	}
	return l, nil
}
