package worker

import (
	"context"
	"errors"
	"testing"

	"painel/internal/amqp"
	"painel/internal/core"
	"painel/internal/sheets/memory"
)

type fakeLoans struct {
	loans   map[core.ID]core.Loan
	getErr  error
	getCall int
}

func (f *fakeLoans) GetLoan(_ context.Context, id core.ID) (core.Loan, error) {
	f.getCall++
	if f.getErr != nil {
		return core.Loan{}, f.getErr
	}
	l, ok := f.loans[id]
	if !ok {
		return core.Loan{}, errors.New("not found")
	}
	return l, nil
}

func (f *fakeLoans) ListLoans(context.Context) ([]core.Loan, error) {
	out := make([]core.Loan, 0, len(f.loans))
	for _, id := range []core.ID{"1", "2", "3"} {
		if l, ok := f.loans[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func loan(id core.ID, status core.LoanStatus, n int) core.Loan {
	l := core.Loan{ID: id, ClientID: "c" + id, Status: status}
	for i := 1; i <= n; i++ {
		l.Installments = append(l.Installments, core.Installment{Number: i, Status: core.InstallmentScheduled})
	}
	return l
}

func TestHandleLoanEvent(t *testing.T) {
	src := &fakeLoans{loans: map[core.ID]core.Loan{"1": loan("1", core.LoanActive, 3)}}
	report := memory.New()
	w := NewExportWorker(src, report, 0)
	ctx := context.Background()

	if err := w.HandleLoanEvent(ctx, amqp.NewLoanEvent(amqp.LoanCreated, "1", "c1")); err != nil {
		t.Fatalf("created: %v", err)
	}
	if got := len(report.Rows()); got != 3 {
		t.Fatalf("report rows = %d, want 3", got)
	}

	if err := w.HandleLoanEvent(ctx, amqp.NewLoanEvent(amqp.LoanCancelled, "1", "c1")); err != nil {
		t.Fatalf("cancelled: %v", err)
	}
	for _, r := range report.Rows() {
		if r.Status != string(core.LoanInactive) {
			t.Errorf("row not cancelled: %+v", r)
		}
	}

	// Unknown loans on cancel are not an error.
	if err := w.HandleLoanEvent(ctx, amqp.NewLoanEvent(amqp.LoanCancelled, "404", "")); err != nil {
		t.Errorf("cancel unknown: %v", err)
	}
}

func TestHandleLoanEventFetchFailure(t *testing.T) {
	src := &fakeLoans{getErr: errors.New("api down")}
	w := NewExportWorker(src, memory.New(), 0)
	err := w.HandleLoanEvent(context.Background(), amqp.NewLoanEvent(amqp.LoanCreated, "1", ""))
	if err == nil {
		t.Fatal("expected error so the event is requeued")
	}
	if err := w.HandleLoanEvent(context.Background(), &amqp.LoanEvent{Kind: "loan.paid", LoanID: "1"}); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestStartupExportCheck(t *testing.T) {
	src := &fakeLoans{loans: map[core.ID]core.Loan{
		"1": loan("1", core.LoanActive, 2),
		"2": loan("2", core.LoanInactive, 2),
		"3": loan("3", core.LoanPaid, 1),
	}}
	report := memory.New()
	ctx := context.Background()
	if _, err := report.ExportLoan(ctx, src.loans["3"]); err != nil {
		t.Fatal(err)
	}

	w := NewExportWorker(src, report, 10)
	if err := w.StartupExportCheck(ctx); err != nil {
		t.Fatalf("StartupExportCheck: %v", err)
	}
	exported, _ := report.ExportedLoans(ctx)
	if !exported["1"] || exported["2"] || !exported["3"] {
		t.Errorf("exported = %v", exported)
	}
	if src.getCall != 1 {
		t.Errorf("GetLoan calls = %d, want 1", src.getCall)
	}
}

func TestStartupExportCheckSkipsLoansWithoutInstallments(t *testing.T) {
	src := &fakeLoans{loans: map[core.ID]core.Loan{
		"1": loan("1", core.LoanActive, 0),
		"2": loan("2", core.LoanActive, 1),
		"3": loan("3", core.LoanActive, 1),
	}}
	report := memory.New()
	ctx := context.Background()
	w := NewExportWorker(src, report, 1)

	if err := w.StartupExportCheck(ctx); err != nil {
		t.Fatalf("StartupExportCheck: %v", err)
	}
	exported, _ := report.ExportedLoans(ctx)
	if !exported["2"] || exported["3"] {
		t.Errorf("first run exported = %v, want only loan 2", exported)
	}
	if src.getCall != 2 {
		t.Errorf("first run GetLoan calls = %d, want 2", src.getCall)
	}

	if err := w.StartupExportCheck(ctx); err != nil {
		t.Fatalf("StartupExportCheck: %v", err)
	}
	exported, _ = report.ExportedLoans(ctx)
	if !exported["3"] {
		t.Errorf("second run exported = %v, want loan 3", exported)
	}
	if src.getCall != 3 {
		t.Errorf("GetLoan calls = %d, empty loan fetched again", src.getCall)
	}
}
