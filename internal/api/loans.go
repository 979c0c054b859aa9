package api

import (
	"context"
	"net/http"
	"net/url"

	"painel/internal/core"
)

// createLoanRequest is the create payload: no computed total, no status, and
// the interest rate the service expects.
type createLoanRequest struct {
	ClientID         core.ID `json:"id_cliente"`
	Principal        float64 `json:"valor_emprestimo"`
	InstallmentCount int     `json:"quantidade_parcelas"`
	InterestRate     float64 `json:"taxa_juros"`
	WeekendNotice    bool    `json:"notification_fds"`
}

// ListLoans returns every loan.
func (c *Client) ListLoans(ctx context.Context) ([]core.Loan, error) {
	var out []core.Loan
	if err := c.doJSON(ctx, http.MethodGet, "/emprestimos", nil, &out, EntityLoan, OpList); err != nil {
		return nil, err
	}
	if out == nil {
		out = []core.Loan{}
	}
	return out, nil
}

// GetLoan returns the loan with its installments attached.
func (c *Client) GetLoan(ctx context.Context, id core.ID) (core.Loan, error) {
	var out core.Loan
	err := c.doJSON(ctx, http.MethodGet, "/emprestimos/"+url.PathEscape(id.String()), nil, &out, EntityLoan, OpGet)
	return out, err
}

// CreateLoan ignores loan.InterestRate and sends the configured rate.
func (c *Client) CreateLoan(ctx context.Context, loan core.Loan) (core.Loan, error) {
	req := createLoanRequest{
		ClientID:         loan.ClientID,
		Principal:        loan.Principal,
		InstallmentCount: loan.InstallmentCount,
		InterestRate:     c.loanRate,
		WeekendNotice:    loan.WeekendNotice,
	}
	var out core.Loan
	err := c.doJSON(ctx, http.MethodPost, "/emprestimos", req, &out, EntityLoan, OpCreate)
	return out, err
}

func (c *Client) CancelLoan(ctx context.Context, id core.ID) error {
	return c.doJSON(ctx, http.MethodPost, "/emprestimos/"+url.PathEscape(id.String())+"/cancelar", nil, nil, EntityLoan, OpCancel)
}

// ListInstallments returns every installment of every loan, flat.
func (c *Client) ListInstallments(ctx context.Context) ([]core.Installment, error) {
	var out []core.Installment
	if err := c.doJSON(ctx, http.MethodGet, "/parcelas", nil, &out, EntityInstallment, OpList); err != nil {
		return nil, err
	}
	if out == nil {
		out = []core.Installment{}
	}
	return out, nil
}
