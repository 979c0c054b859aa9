package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"painel/internal/api"
	"painel/internal/cache"
	"painel/internal/core"
	"painel/internal/log"
	"painel/internal/metrics"
	"painel/internal/reconcile"
)

const monthLayout = "2006-01"

// DueItem is an installment due today with the client it belongs to.
type DueItem struct {
	Installment core.Installment `json:"parcela"`
	ClientName  string           `json:"nome_cliente"`
	AmountBRL   string           `json:"valor_brl"`
}

// Summary holds every dashboard figure for one month.
type Summary struct {
	Month            string          `json:"month"`
	ClientCount      int             `json:"total_clients"`
	DelinquentCount  int             `json:"delinquent_clients"`
	DueTodayCount    int             `json:"due_today_count"`
	DueToday         []DueItem       `json:"due_today"`
	Projected        float64         `json:"projected_revenue"`
	ProjectedBRL     string          `json:"projected_revenue_brl"`
	Realized         float64         `json:"realized_revenue"`
	RealizedBRL      string          `json:"realized_revenue_brl"`
	AverageTicket    float64         `json:"average_ticket"`
	AverageTicketBRL string          `json:"average_ticket_brl"`
	MonthlySeries    []metrics.Point `json:"monthly_revenue"`
}

// DashboardService computes the dashboard summary from the loan list and
// the cached clients.
type DashboardService struct {
	loans   LoanAPI
	clients *cache.ClientCache
	now     func() time.Time
}

// NewDashboardService returns a service reading loans and the cached
// client list.
func NewDashboardService(loans LoanAPI, clients *cache.ClientCache) *DashboardService {
	return &DashboardService{loans: loans, clients: clients, now: time.Now}
}

// WithClock replaces the clock used for "today" and the default month.
func (s *DashboardService) WithClock(now func() time.Time) *DashboardService {
	s.now = now
	return s
}

// ParseMonth reads "YYYY-MM". An empty string selects the current month.
func (s *DashboardService) ParseMonth(v string) (time.Time, error) {
	if v == "" {
		t := s.now()
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()), nil
	}
	t, err := time.ParseInLocation(monthLayout, v, s.now().Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: want YYYY-MM", v)
	}
	return t, nil
}

// Summary fetches clients, loans and installments concurrently and derives
// the figures of month. Any failed fetch fails the whole summary.
func (s *DashboardService) Summary(ctx context.Context, month time.Time) (Summary, error) {
	var (
		clients      []core.Client
		loans        []core.Loan
		installments []core.Installment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		clients, err = s.clients.Load(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		loans, err = s.loans.ListLoans(gctx)
		if err != nil {
			log.LogRemoteFailure(gctx, api.EntityLoan, api.OpList, err)
		}
		return err
	})
	g.Go(func() error {
		var err error
		installments, err = s.loans.ListInstallments(gctx)
		if err != nil {
			log.LogRemoteFailure(gctx, api.EntityInstallment, api.OpList, err)
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	due := metrics.DueToday(installments, s.now())
	items := make([]DueItem, 0, len(due))
	for _, p := range due {
		item := DueItem{Installment: p, AmountBRL: core.FormatBRL(p.Amount)}
		if c, ok := reconcile.ClientForInstallment(p, loans, clients); ok {
			item.ClientName = c.Name
		}
		items = append(items, item)
	}

	projected := metrics.ProjectedRevenue(installments, month.Month(), month.Year())
	realized := metrics.RealizedRevenue(installments, month.Month(), month.Year())
	ticket := metrics.AverageTicket(loans)

	return Summary{
		Month:            month.Format(monthLayout),
		ClientCount:      len(clients),
		DelinquentCount:  metrics.DelinquencyCount(clients),
		DueTodayCount:    len(due),
		DueToday:         items,
		Projected:        projected,
		ProjectedBRL:     core.FormatBRL(projected),
		Realized:         realized,
		RealizedBRL:      core.FormatBRL(realized),
		AverageTicket:    ticket,
		AverageTicketBRL: core.FormatBRL(ticket),
		MonthlySeries:    metrics.MonthlyRevenueSeries(loans),
	}, nil
}
