package services

import (
	"context"
	"errors"
	"testing"

	"ledger/internal/core"
	"ledger/internal/render"
)

// capturingRenderer records the last ReportData instead of rendering it.
type capturingRenderer struct {
	last render.ReportData
	err  error
}

func (r *capturingRenderer) Render(_ context.Context, data render.ReportData) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.last = data
	return []byte("rendered"), nil
}

func TestReportServiceGenerate(t *testing.T) {
	store := newMemStore()
	seedCategory(t, store, "c-food", "Food", core.Expense)
	store.CreateTransaction(context.Background(), core.Transaction{
		ID: "t-1", OwnerID: owner, CategoryID: "c-food",
		Amount: core.MustMoney("2500"), Type: core.Expense,
		Description: "groceries", Date: core.NewDate(2024, 1, 5),
	})
	store.CreateTransaction(context.Background(), core.Transaction{
		ID: "t-2", OwnerID: owner,
		Amount: core.MustMoney("5000"), Type: core.Income,
		Date: core.NewDate(2024, 1, 1),
	})

	r := &capturingRenderer{}
	svc := NewReportService(store, store, r)

	out, err := svc.Generate(context.Background(), owner, "user@example.com", core.Date{}, core.Date{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if string(out) != "rendered" {
		t.Errorf("output = %q, want renderer bytes passed through", out)
	}

	if r.last.Period != "All Time" {
		t.Errorf("Period = %q, want All Time", r.last.Period)
	}
	if r.last.TotalIncome != "5000" || r.last.TotalExpense != "2500" || r.last.Balance != "2500" {
		t.Errorf("totals = %s/%s/%s, want 5000/2500/2500",
			r.last.TotalIncome, r.last.TotalExpense, r.last.Balance)
	}
	if len(r.last.Categories) != 1 || r.last.Categories[0].Label != "Food" {
		t.Errorf("categories = %+v, want one Food row", r.last.Categories)
	}
	if len(r.last.Transactions) != 2 {
		t.Fatalf("len(transactions) = %d, want 2", len(r.last.Transactions))
	}
	// The fake store lists by id; t-1 is the expense.
	if r.last.Transactions[0].Amount != "-2500" {
		t.Errorf("expense amount = %q, want -2500", r.last.Transactions[0].Amount)
	}
	if r.last.Transactions[1].Amount != "+5000" {
		t.Errorf("income amount = %q, want +5000", r.last.Transactions[1].Amount)
	}
	if r.last.Transactions[1].Description != "-" {
		t.Errorf("blank description should render as %q, got %q", "-", r.last.Transactions[1].Description)
	}
}

func TestReportServiceGenerateEmpty(t *testing.T) {
	store := newMemStore()
	r := &capturingRenderer{}
	svc := NewReportService(store, store, r)

	out, err := svc.Generate(context.Background(), owner, "user@example.com", core.Date{}, core.Date{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(out) == 0 {
		t.Error("empty period should still produce a document")
	}
	if r.last.TotalIncome != "0" || r.last.TotalExpense != "0" || r.last.Balance != "0" {
		t.Errorf("empty report totals = %s/%s/%s, want zeros",
			r.last.TotalIncome, r.last.TotalExpense, r.last.Balance)
	}
	if len(r.last.Transactions) != 0 {
		t.Errorf("empty report should carry no transaction rows, got %d", len(r.last.Transactions))
	}
}

func TestReportServiceUnresolvedCategoryFallback(t *testing.T) {
	store := newMemStore()
	store.CreateTransaction(context.Background(), core.Transaction{
		ID: "t-1", OwnerID: owner, CategoryID: "0f3a9c21-dead-beef-0000-000000000000",
		Amount: core.MustMoney("100"), Type: core.Expense,
		Date: core.NewDate(2024, 1, 1),
	})

	r := &capturingRenderer{}
	svc := NewReportService(store, store, r)

	if _, err := svc.Generate(context.Background(), owner, "u@example.com", core.Date{}, core.Date{}); err != nil {
		t.Fatalf("generate: %v", err)
	}

	if len(r.last.Categories) != 1 {
		t.Fatalf("categories = %+v, want one fallback row", r.last.Categories)
	}
	if got, want := r.last.Categories[0].Label, "Category 0f3a9c21"; got != want {
		t.Errorf("fallback label = %q, want %q", got, want)
	}

	// The summary path drops the same transaction from its breakdown.
	txSvc := NewTransactionService(store, store, nil, nil)
	s, err := txSvc.Summary(context.Background(), owner, core.Filter{})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(s.CategoryBreakdown) != 0 {
		t.Errorf("summary breakdown = %v, want empty for unresolved category", s.CategoryBreakdown)
	}
	if s.TotalExpense.String() != "100" {
		t.Errorf("summary total = %s, want 100", s.TotalExpense)
	}
}

func TestReportServicePeriodFormatting(t *testing.T) {
	store := newMemStore()
	r := &capturingRenderer{}
	svc := NewReportService(store, store, r)

	cases := []struct {
		name       string
		start, end core.Date
		want       string
	}{
		{"both bounds", core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 31), "Jan 01, 2024 - Jan 31, 2024"},
		{"open end", core.NewDate(2024, 1, 1), core.Date{}, "Jan 01, 2024 - ..."},
		{"open start", core.Date{}, core.NewDate(2024, 1, 31), "... - Jan 31, 2024"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Generate(context.Background(), owner, "u@example.com", tc.start, tc.end); err != nil {
				t.Fatalf("generate: %v", err)
			}
			if r.last.Period != tc.want {
				t.Errorf("Period = %q, want %q", r.last.Period, tc.want)
			}
		})
	}
}

func TestReportServiceRendererError(t *testing.T) {
	store := newMemStore()
	rendererErr := errors.New("template blew up")
	svc := NewReportService(store, store, &capturingRenderer{err: rendererErr})

	_, err := svc.Generate(context.Background(), owner, "u@example.com", core.Date{}, core.Date{})
	if !errors.Is(err, rendererErr) {
		t.Errorf("renderer error should propagate unchanged, got %v", err)
	}
}
