// Package memory is an in-process loan report, used when no spreadsheet is
// configured and in tests.
package memory

import (
	"context"
	"sync"

	"painel/internal/core"
	ports "painel/internal/sheets"
)

// Report is an in-memory loan report, used by tests and when no
// spreadsheet is configured.
type Report struct {
	mu   sync.Mutex
	rows []ports.Row
}

var (
	_ ports.LoanExporter   = (*Report)(nil)
	_ ports.ExportedLister = (*Report)(nil)
)

func New() *Report {
	return &Report{}
}

func (r *Report) ExportLoan(_ context.Context, loan core.Loan) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.LoanID == loan.ID.String() {
			return 0, nil
		}
	}
	rows := ports.RowsFor(loan)
	r.rows = append(r.rows, rows...)
	return len(rows), nil
}

func (r *Report) MarkCancelled(_ context.Context, loanID core.ID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for i := range r.rows {
		if r.rows[i].LoanID == loanID.String() {
			r.rows[i].Status = string(core.LoanInactive)
			n++
		}
	}
	return n, nil
}

func (r *Report) ExportedLoans(context.Context) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]bool)
	for _, row := range r.rows {
		out[row.LoanID] = true
	}
	return out, nil
}

// Rows returns a copy of the report.
func (r *Report) Rows() []ports.Row {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ports.Row(nil), r.rows...)
}
