package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"painel/internal/core"
	"painel/internal/log"
	ports "painel/internal/sheets"
)

const DefaultSheetName = "Emprestimos"

const statusCancelled = string(core.LoanInactive)

// Exporter writes the loan report to one sheet of a spreadsheet.
type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
}

var (
	_ ports.LoanExporter   = (*Exporter)(nil)
	_ ports.ExportedLister = (*Exporter)(nil)
)

// NewExporter builds an exporter. Without opts it authenticates with the
// service account named by the environment.
func NewExporter(ctx context.Context, spreadsheetID, sheet string, opts ...goption.ClientOption) (*Exporter, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if strings.TrimSpace(sheet) == "" {
		sheet = DefaultSheetName
	}

	if len(opts) == 0 {
		creds, err := credentialsFromEnv(ctx)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Exporter{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet}, nil
}

// credentialsFromEnv reads service account credentials from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS, in that order.
func credentialsFromEnv(ctx context.Context) ([]byte, error) {
	inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline service account credentials",
			log.FieldComponent, log.ComponentSheets)
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.InfoContext(ctx, "Read service account credentials",
			log.FieldComponent, log.ComponentSheets,
			"path", file)
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func (e *Exporter) a1(rng string) string {
	return "'" + strings.ReplaceAll(e.sheet, "'", "''") + "'!" + rng
}

// loanColumn returns column A, header included.
func (e *Exporter) loanColumn(ctx context.Context) ([]string, error) {
	resp, err := e.svc.Spreadsheets.Values.Get(e.spreadsheetID, e.a1("A:A")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read loan column of %s: %w", e.sheet, err)
	}
	out := make([]string, len(resp.Values))
	for i, row := range resp.Values {
		if len(row) > 0 {
			out[i] = cellString(row[0])
		}
	}
	return out, nil
}

func (e *Exporter) ExportLoan(ctx context.Context, loan core.Loan) (int, error) {
	rows := ports.RowsFor(loan)
	if len(rows) == 0 {
		return 0, nil
	}

	col, err := e.loanColumn(ctx)
	if err != nil {
		return 0, err
	}
	for i, id := range col {
		if i > 0 && id == loan.ID.String() {
			slog.InfoContext(ctx, "Loan already exported",
				log.FieldComponent, log.ComponentSheets,
				log.FieldLoanID, loan.ID)
			return 0, nil
		}
	}

	values := make([][]any, 0, len(rows)+1)
	start := len(col) + 1
	if len(col) == 0 {
		values = append(values, ports.Header)
	}
	for _, r := range rows {
		values = append(values, r.Values())
	}
	end := start + len(values) - 1

	rng := e.a1(fmt.Sprintf("A%d:F%d", start, end))
	_, err = e.svc.Spreadsheets.Values.Update(e.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("write rows %s: %w", rng, err)
	}

	slog.InfoContext(ctx, "Exported loan schedule",
		log.FieldComponent, log.ComponentSheets,
		log.FieldLoanID, loan.ID,
		log.FieldCount, len(rows),
		"range", rng)
	return len(rows), nil
}

func (e *Exporter) MarkCancelled(ctx context.Context, loanID core.ID) (int, error) {
	col, err := e.loanColumn(ctx)
	if err != nil {
		return 0, err
	}

	var data []*gsheet.ValueRange
	for i, id := range col {
		if i == 0 || id != loanID.String() {
			continue
		}
		data = append(data, &gsheet.ValueRange{
			Range:  e.a1(fmt.Sprintf("%s%d", ports.StatusColumn, i+1)),
			Values: [][]any{{statusCancelled}},
		})
	}
	if len(data) == 0 {
		return 0, nil
	}

	req := &gsheet.BatchUpdateValuesRequest{ValueInputOption: "USER_ENTERED", Data: data}
	if _, err := e.svc.Spreadsheets.Values.BatchUpdate(e.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return 0, fmt.Errorf("mark loan %s cancelled: %w", loanID, err)
	}

	slog.InfoContext(ctx, "Marked loan cancelled in report",
		log.FieldComponent, log.ComponentSheets,
		log.FieldLoanID, loanID,
		log.FieldCount, len(data))
	return len(data), nil
}

func (e *Exporter) ExportedLoans(ctx context.Context) (map[string]bool, error) {
	col, err := e.loanColumn(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(col))
	for i, id := range col {
		if i > 0 && id != "" {
			out[id] = true
		}
	}
	return out, nil
}

// cellString renders a cell the way the sheet shows it; whole numbers lose
// their decimal part.
func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
