// Package worker turns loan events into loan report updates.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"painel/internal/amqp"
	"painel/internal/core"
	"painel/internal/log"
	"painel/internal/sheets"
)

// LoanSource is the part of the remote client the worker reads.
type LoanSource interface {
	GetLoan(ctx context.Context, id core.ID) (core.Loan, error)
	ListLoans(ctx context.Context) ([]core.Loan, error)
}

// ExportWorker keeps the loan report in step with loan events.
type ExportWorker struct {
	loans     LoanSource
	report    sheets.LoanExporter
	batchSize int

	mu sync.Mutex
	// empty holds loans seen without installments. They export no rows, so
	// the report never lists them as exported.
	empty map[core.ID]bool
}

// NewExportWorker returns a worker exporting at most batchSize loans per
// startup check. A non-positive batchSize means 50.
func NewExportWorker(loans LoanSource, report sheets.LoanExporter, batchSize int) *ExportWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &ExportWorker{loans: loans, report: report, batchSize: batchSize, empty: make(map[core.ID]bool)}
}

// HandleLoanEvent exports created loans and marks cancelled ones. A returned
// error makes the consumer requeue the event.
func (w *ExportWorker) HandleLoanEvent(ctx context.Context, ev *amqp.LoanEvent) error {
	slog.InfoContext(ctx, "Processing loan event",
		log.FieldComponent, log.ComponentWorker,
		"kind", ev.Kind,
		log.FieldLoanID, ev.LoanID)

	switch ev.Kind {
	case amqp.LoanCreated:
		loan, err := w.loans.GetLoan(ctx, ev.LoanID)
		if err != nil {
			return fmt.Errorf("get loan %s: %w", ev.LoanID, err)
		}
		if _, err := w.report.ExportLoan(ctx, loan); err != nil {
			return fmt.Errorf("export loan %s: %w", ev.LoanID, err)
		}
	case amqp.LoanCancelled:
		n, err := w.report.MarkCancelled(ctx, ev.LoanID)
		if err != nil {
			return fmt.Errorf("mark loan %s cancelled: %w", ev.LoanID, err)
		}
		if n == 0 {
			slog.WarnContext(ctx, "Cancelled loan not found in report",
				log.FieldComponent, log.ComponentWorker,
				log.FieldLoanID, ev.LoanID)
		}
	default:
		return fmt.Errorf("unsupported event kind %q", ev.Kind)
	}
	return nil
}

// StartupExportCheck exports up to batchSize active loans that are missing
// from the report, covering events lost while the worker was down.
func (w *ExportWorker) StartupExportCheck(ctx context.Context) error {
	lister, ok := w.report.(sheets.ExportedLister)
	if !ok {
		return nil
	}
	exported, err := lister.ExportedLoans(ctx)
	if err != nil {
		return fmt.Errorf("read exported loans: %w", err)
	}
	loans, err := w.loans.ListLoans(ctx)
	if err != nil {
		return fmt.Errorf("list loans: %w", err)
	}

	success, failed, skipped := 0, 0, 0
	for _, l := range loans {
		if success+failed == w.batchSize {
			break
		}
		if l.Status == core.LoanInactive || exported[l.ID.String()] || w.knownEmpty(l.ID) {
			continue
		}

		loan, err := w.loans.GetLoan(ctx, l.ID)
		if err == nil && len(loan.Installments) == 0 {
			w.markEmpty(l.ID)
			skipped++
			slog.DebugContext(ctx, "Skipping loan without installments",
				log.FieldComponent, log.ComponentWorker,
				log.FieldLoanID, l.ID)
			continue
		}
		if err == nil {
			_, err = w.report.ExportLoan(ctx, loan)
		}
		if err != nil {
			failed++
			slog.ErrorContext(ctx, "Startup export failed",
				log.FieldComponent, log.ComponentWorker,
				log.FieldLoanID, l.ID,
				log.FieldError, err)
			continue
		}
		success++
	}
	if success+failed == 0 {
		slog.InfoContext(ctx, "Loan report up to date",
			log.FieldComponent, log.ComponentWorker,
			"skipped", skipped)
		return nil
	}

	slog.InfoContext(ctx, "Startup export check completed",
		log.FieldComponent, log.ComponentWorker,
		"exported", success,
		"failed", failed,
		"skipped", skipped)
	return nil
}

func (w *ExportWorker) knownEmpty(id core.ID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.empty[id]
}

func (w *ExportWorker) markEmpty(id core.ID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.empty[id] = true
}
