// Package sheets mirrors classified transactions into a Google
// Spreadsheet so owners can build their own dashboards on top. The export
// is strictly best effort; the worker stores its notification first and
// only then hands the transaction here.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"ledger/internal/core"
	"ledger/internal/log"
)

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

// New builds an exporter against an already constructed Sheets service.
func New(svc *gsheet.Service, spreadsheetID, sheetName string, logger *log.Logger) *Exporter {
	if sheetName == "" {
		sheetName = "Summaries"
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentExport)
	}
	return &Exporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger,
	}
}

// NewFromEnv creates an exporter using service account credentials.
// Required: SHEETS_SPREADSHEET_ID plus one of GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS.
// Optional: SHEETS_SHEET_NAME (default "Summaries").
func NewFromEnv(ctx context.Context, logger *log.Logger) (*Exporter, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("SHEETS_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing SHEETS_SPREADSHEET_ID")
	}

	credentialsJSON, err := resolveCredentials()
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return New(svc, spreadsheetID, strings.TrimSpace(os.Getenv("SHEETS_SHEET_NAME")), logger), nil
}

func resolveCredentials() ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
		return []byte(inline), nil
	}

	path := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	credentialsJSON, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return credentialsJSON, nil
}

// ExportTransaction appends one row per classified transaction:
// date, type, description, signed amount, advice class.
func (e *Exporter) ExportTransaction(ctx context.Context, t core.Transaction, class core.AdviceClass) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}

	vr := &gsheet.ValueRange{Values: [][]any{{
		t.Date.String(),
		string(t.Type),
		t.Description,
		t.Amount.Signed(t.Type),
		string(class),
	}}}

	rng := fmt.Sprintf("%s!A:E", e.sheetName)
	_, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", e.sheetName, err)
	}

	e.logger.InfoContext(ctx, "Exported transaction row",
		log.FieldTransactionID, t.ID,
		log.FieldAdviceClass, string(class),
		"sheet", e.sheetName)
	return nil
}

// ExportMonthlySummary appends an aggregate row for one month:
// month label, count, income, expense, balance.
func (e *Exporter) ExportMonthlySummary(ctx context.Context, month string, s core.Summary) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}

	vr := &gsheet.ValueRange{Values: [][]any{{
		month,
		s.TransactionCount,
		s.TotalIncome.String(),
		s.TotalExpense.String(),
		s.Balance.String(),
	}}}

	rng := fmt.Sprintf("%s!A:E", e.sheetName)
	_, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append summary to sheet %s: %w", e.sheetName, err)
	}

	e.logger.InfoContext(ctx, "Exported monthly summary",
		"month", month,
		log.FieldCount, s.TransactionCount)
	return nil
}
