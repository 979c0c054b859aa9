// Package sheets defines the loan report port and the row layout shared by
// its adapters.
package sheets

import (
	"context"

	"painel/internal/core"
)

// Ports for outbound adapters.
type (
	// LoanExporter writes installment schedules to the loan report.
	LoanExporter interface {
		// ExportLoan appends one row per installment. A loan already in
		// the report is left alone and reports zero rows.
		ExportLoan(ctx context.Context, loan core.Loan) (rows int, err error)
		// MarkCancelled sets the status of every row of loanID to inactive.
		MarkCancelled(ctx context.Context, loanID core.ID) (rows int, err error)
	}

	// ExportedLister reports which loans are already in the report.
	ExportedLister interface {
		ExportedLoans(ctx context.Context) (map[string]bool, error)
	}
)

// Header is the first row of the report.
var Header = []any{"id_emprestimo", "id_cliente", "parcela", "valor", "vencimento", "status"}

// StatusColumn is the report column holding the installment status.
const StatusColumn = "F"

// Row is one installment line of the report.
type Row struct {
	LoanID   string
	ClientID string
	Number   int
	Amount   float64
	DueDate  string
	Status   string
}

func (r Row) Values() []any {
	return []any{r.LoanID, r.ClientID, r.Number, r.Amount, r.DueDate, r.Status}
}

// RowsFor lays out a loan's installments ordered by number.
func RowsFor(loan core.Loan) []Row {
	inst := core.SortInstallments(loan.Installments)
	rows := make([]Row, 0, len(inst))
	for _, p := range inst {
		rows = append(rows, Row{
			LoanID:   loan.ID.String(),
			ClientID: loan.ClientID.String(),
			Number:   p.Number,
			Amount:   p.Amount,
			DueDate:  p.DueDate,
			Status:   string(p.Status.Canonical()),
		})
	}
	return rows
}
