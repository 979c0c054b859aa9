package services

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"painel/internal/amqp"
	"painel/internal/api"
	"painel/internal/cache"
	"painel/internal/core"
	"painel/internal/log"
	"painel/internal/reconcile"
)

// LoanRow is a loan joined with the name of its client.
type LoanRow struct {
	core.Loan
	ClientName string `json:"nome_cliente"`
	TotalBRL   string `json:"valor_total_brl"`
}

// LoanService lists, creates and cancels loans. Successful mutations are
// announced to the export worker.
type LoanService struct {
	api       LoanAPI
	clients   *cache.ClientCache
	publisher EventPublisher
	rate      float64
}

// NewLoanService wires the loan operations. A nil publisher disables loan
// events.
func NewLoanService(loans LoanAPI, clients *cache.ClientCache, pub EventPublisher, rate float64) *LoanService {
	return &LoanService{api: loans, clients: clients, publisher: pub, rate: rate}
}

// List fetches loans and clients in parallel, filters loans by installment
// status and joins each with its client name.
func (s *LoanService) List(ctx context.Context, filter reconcile.LoanFilter) ([]LoanRow, error) {
	var (
		loans   []core.Loan
		clients []core.Client
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		loans, err = s.api.ListLoans(gctx)
		if err != nil {
			log.LogRemoteFailure(gctx, api.EntityLoan, api.OpList, err)
		}
		return err
	})
	g.Go(func() error {
		var err error
		clients, err = s.clients.Load(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	filtered := reconcile.FilterLoans(loans, filter)
	rows := make([]LoanRow, 0, len(filtered))
	for _, l := range filtered {
		row := LoanRow{Loan: l, TotalBRL: core.FormatBRL(total(l))}
		if c, ok := reconcile.ClientForLoan(l, clients); ok {
			row.ClientName = c.Name
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Get fetches one loan with its installments.
func (s *LoanService) Get(ctx context.Context, id core.ID) (core.Loan, error) {
	l, err := s.api.GetLoan(ctx, id)
	if err != nil {
		log.LogRemoteFailure(ctx, api.EntityLoan, api.OpGet, err)
		return core.Loan{}, err
	}
	l.Installments = core.SortInstallments(l.Installments)
	return l, nil
}

// ForClient lists the loans of one client.
func (s *LoanService) ForClient(ctx context.Context, clientID core.ID) ([]core.Loan, error) {
	loans, err := s.api.ListLoans(ctx)
	if err != nil {
		log.LogRemoteFailure(ctx, api.EntityLoan, api.OpList, err)
		return nil, err
	}
	out := reconcile.LoansForClient(loans, clientID)
	if out == nil {
		out = []core.Loan{}
	}
	return out, nil
}

// Create requests a new loan at the configured rate and announces it.
func (s *LoanService) Create(ctx context.Context, clientID core.ID, principal float64, installments int, weekendNotice bool) (core.Loan, error) {
	l := core.NewLoan(clientID, principal, installments, s.rate, weekendNotice)
	if err := l.Validate(); err != nil {
		return core.Loan{}, err
	}

	created, err := s.api.CreateLoan(ctx, l)
	if err != nil {
		log.LogRemoteFailure(ctx, api.EntityLoan, api.OpCreate, err)
		return core.Loan{}, err
	}
	if created.ClientID == "" {
		created.ClientID = clientID
	}

	slog.InfoContext(ctx, "Loan created",
		log.FieldComponent, log.ComponentApp,
		log.FieldLoanID, created.ID,
		log.FieldClientID, created.ClientID)

	if created.ID != "" {
		s.publish(ctx, amqp.NewLoanEvent(amqp.LoanCreated, created.ID, created.ClientID))
	}
	return created, nil
}

// Cancel cancels a loan remotely and announces it.
func (s *LoanService) Cancel(ctx context.Context, id core.ID) error {
	if err := s.api.CancelLoan(ctx, id); err != nil {
		log.LogRemoteFailure(ctx, api.EntityLoan, api.OpCancel, err)
		return err
	}
	slog.InfoContext(ctx, "Loan cancelled",
		log.FieldComponent, log.ComponentApp,
		log.FieldLoanID, id)
	s.publish(ctx, amqp.NewLoanEvent(amqp.LoanCancelled, id, ""))
	return nil
}

// publish never fails the mutation that triggered it.
func (s *LoanService) publish(ctx context.Context, ev *amqp.LoanEvent) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Loan events disabled, skipping publish",
			log.FieldComponent, log.ComponentAMQP,
			"kind", ev.Kind,
			log.FieldLoanID, ev.LoanID)
		return
	}
	if err := s.publisher.PublishLoanEvent(ctx, ev); err != nil {
		slog.WarnContext(ctx, "Failed to publish loan event",
			log.FieldComponent, log.ComponentAMQP,
			log.FieldError, err,
			"kind", ev.Kind,
			log.FieldLoanID, ev.LoanID)
	}
}

func total(l core.Loan) float64 {
	if l.TotalWithInterest > 0 {
		return l.TotalWithInterest
	}
	return core.TotalWithInterest(l.Principal, l.InterestRate)
}
