// Package services orchestrates remote mutations with the client cache and
// loan events, and assembles the dashboard.
package services

import (
	"context"

	"painel/internal/amqp"
	"painel/internal/api"
	"painel/internal/core"
)

// Remote operations, satisfied by *api.Client.
type (
	ClientAPI interface {
		ListClients(ctx context.Context) ([]core.Client, error)
		GetClient(ctx context.Context, id core.ID) (core.Client, error)
		CreateClient(ctx context.Context, c core.Client) (core.Client, error)
		CreateClientMultipart(ctx context.Context, c core.Client, files []api.Upload) (core.Client, error)
		UpdateClient(ctx context.Context, id core.ID, c core.Client) (core.Client, error)
		DeleteClient(ctx context.Context, id core.ID) error
	}

	LoanAPI interface {
		ListLoans(ctx context.Context) ([]core.Loan, error)
		GetLoan(ctx context.Context, id core.ID) (core.Loan, error)
		CreateLoan(ctx context.Context, l core.Loan) (core.Loan, error)
		CancelLoan(ctx context.Context, id core.ID) error
		ListInstallments(ctx context.Context) ([]core.Installment, error)
	}

	AuthAPI interface {
		AdminLogin(ctx context.Context, email, password string) (api.LoginResult, error)
		ClientLogin(ctx context.Context, cpf, password string) (api.LoginResult, error)
	}

	// EventPublisher is satisfied by *amqp.Client.
	EventPublisher interface {
		PublishLoanEvent(ctx context.Context, ev *amqp.LoanEvent) error
	}
)

var (
	_ ClientAPI      = (*api.Client)(nil)
	_ LoanAPI        = (*api.Client)(nil)
	_ AuthAPI        = (*api.Client)(nil)
	_ EventPublisher = (*amqp.Client)(nil)
)
