package services

import (
	"context"
	"fmt"
	"sort"

	"ledger/internal/core"
	"ledger/internal/render"
)

const reportTitle = "Expense Tracker Report"

// ReportService assembles a transaction report and hands it to the
// renderer.
type ReportService struct {
	store    TransactionStore
	resolver core.CategoryNamer
	renderer render.Renderer
}

func NewReportService(store TransactionStore, resolver core.CategoryNamer, renderer render.Renderer) *ReportService {
	return &ReportService{
		store:    store,
		resolver: resolver,
		renderer: renderer,
	}
}

// Generate builds the owner's report for the optional date range and
// returns the rendered document bytes.
//
// An empty transaction set still produces a document: zero totals and a
// placeholder row. Unlike the summary path, a transaction whose category
// no longer resolves stays in the breakdown under a label derived from the
// raw id. Renderer failures propagate unchanged.
func (s *ReportService) Generate(ctx context.Context, ownerID, email string, start, end core.Date) ([]byte, error) {
	f := core.Filter{StartDate: start, EndDate: end}
	ts, err := s.store.ListTransactions(ctx, ownerID, f)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	summary := core.Summarize(ctx, ts, s.resolver)

	data := render.ReportData{
		Title:           reportTitle,
		UserEmail:       email,
		Period:          formatPeriod(start, end),
		TotalIncome:     summary.TotalIncome.String(),
		TotalExpense:    summary.TotalExpense.String(),
		Balance:         summary.Balance.String(),
		BalanceNegative: summary.Balance.IsNegative(),
		Categories:      s.breakdownRows(ctx, ts),
		Transactions:    transactionRows(ts),
		GeneratedAt:     core.Today().Display(),
	}

	return s.renderer.Render(ctx, data)
}

// breakdownRows accumulates every categorized transaction, falling back to
// a label built from the truncated category id when the category is gone.
func (s *ReportService) breakdownRows(ctx context.Context, ts []core.Transaction) []render.CategoryRow {
	sums := make(map[string]core.Money)
	for _, t := range ts {
		if t.CategoryID == "" {
			continue
		}
		label, ok := s.resolver.CategoryName(ctx, t.CategoryID)
		if !ok {
			label = fallbackLabel(t.CategoryID)
		}
		sums[label] = sums[label].Add(t.Amount)
	}

	labels := make([]string, 0, len(sums))
	for label := range sums {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	rows := make([]render.CategoryRow, len(labels))
	for i, label := range labels {
		rows[i] = render.CategoryRow{Label: label, Amount: sums[label].String()}
	}
	return rows
}

func transactionRows(ts []core.Transaction) []render.TransactionRow {
	rows := make([]render.TransactionRow, len(ts))
	for i, t := range ts {
		desc := t.Description
		if desc == "" {
			desc = "-"
		}
		rows[i] = render.TransactionRow{
			Date:        t.Date.Display(),
			Type:        string(t.Type),
			Description: desc,
			Amount:      t.Amount.Signed(t.Type),
		}
	}
	return rows
}

func fallbackLabel(categoryID string) string {
	if len(categoryID) > 8 {
		categoryID = categoryID[:8]
	}
	return "Category " + categoryID
}

func formatPeriod(start, end core.Date) string {
	if start.IsZero() && end.IsZero() {
		return "All Time"
	}
	from := "..."
	if !start.IsZero() {
		from = start.Display()
	}
	to := "..."
	if !end.IsZero() {
		to = end.Display()
	}
	return from + " - " + to
}
