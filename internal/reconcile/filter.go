package reconcile

import (
	"fmt"
	"strings"

	"painel/internal/core"
)

// LoanFilter selects loans by the status of their installments. A loan
// matches a status when any installment carries it; loans without
// installments only match LoanFilterAll.
type LoanFilter string

const (
	LoanFilterAll       LoanFilter = "all"
	LoanFilterPaid      LoanFilter = LoanFilter(core.InstallmentPaid)
	LoanFilterScheduled LoanFilter = LoanFilter(core.InstallmentScheduled)
	LoanFilterPending   LoanFilter = LoanFilter(core.InstallmentPending)
	LoanFilterSent      LoanFilter = LoanFilter(core.InstallmentSent)
)

// ParseLoanFilter accepts English and Portuguese filter names. An empty
// string means LoanFilterAll.
func ParseLoanFilter(s string) (LoanFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "todos":
		return LoanFilterAll, nil
	case "paid", "paga", "pago":
		return LoanFilterPaid, nil
	case "scheduled", "agendada":
		return LoanFilterScheduled, nil
	case "pending", "pendente":
		return LoanFilterPending, nil
	case "sent", "enviado":
		return LoanFilterSent, nil
	}
	return "", fmt.Errorf("unknown loan filter %q", s)
}

// Match reports whether any installment of l has the filtered status.
func (f LoanFilter) Match(l core.Loan) bool {
	if f == LoanFilterAll || f == "" {
		return true
	}
	return l.HasInstallmentStatus(core.InstallmentStatus(f))
}

// FilterLoans returns the loans matching f, in their original order.
func FilterLoans(loans []core.Loan, f LoanFilter) []core.Loan {
	out := make([]core.Loan, 0, len(loans))
	for _, l := range loans {
		if f.Match(l) {
			out = append(out, l)
		}
	}
	return out
}

// ClientFilter selects clients by status. Inactive means anything not
// active; delinquent looks only at the delinquency flag.
type ClientFilter string

const (
	ClientFilterAll        ClientFilter = "all"
	ClientFilterActive     ClientFilter = "active"
	ClientFilterInactive   ClientFilter = "inactive"
	ClientFilterDelinquent ClientFilter = "delinquent"
)

// ParseClientFilter is the client counterpart of ParseLoanFilter.
func ParseClientFilter(s string) (ClientFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "todos":
		return ClientFilterAll, nil
	case "active", "ativo":
		return ClientFilterActive, nil
	case "inactive", "inativo":
		return ClientFilterInactive, nil
	case "delinquent", "inadimplente":
		return ClientFilterDelinquent, nil
	}
	return "", fmt.Errorf("unknown client filter %q", s)
}

func (f ClientFilter) Match(c core.Client) bool {
	switch f {
	case ClientFilterActive:
		return c.Status == core.ClientActive
	case ClientFilterInactive:
		return c.Status != core.ClientActive
	case ClientFilterDelinquent:
		return c.IsDelinquent()
	default:
		return true
	}
}

// FilterClients returns the clients matching f, in their original order.
func FilterClients(clients []core.Client, f ClientFilter) []core.Client {
	out := make([]core.Client, 0, len(clients))
	for _, c := range clients {
		if f.Match(c) {
			out = append(out, c)
		}
	}
	return out
}
