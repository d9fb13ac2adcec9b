package render

import (
	"context"
	"strings"
	"testing"
)

func TestHTMLRendererRender(t *testing.T) {
	r, err := NewHTMLRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	data := ReportData{
		Title:        "Expense Tracker Report",
		UserEmail:    "u@example.com",
		Period:       "Jan 01, 2024 - Jan 31, 2024",
		TotalIncome:  "5000",
		TotalExpense: "2500",
		Balance:      "2500",
		Categories: []CategoryRow{
			{Label: "Food", Amount: "2500"},
		},
		Transactions: []TransactionRow{
			{Date: "Jan 05, 2024", Type: "EXPENSE", Description: "groceries", Amount: "-2000"},
		},
		GeneratedAt: "Feb 01, 2024",
	}

	out, err := r.Render(context.Background(), data)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	html := string(out)
	for _, want := range []string{
		"Expense Tracker Report",
		"u@example.com",
		"Jan 01, 2024 - Jan 31, 2024",
		"Food",
		"groceries",
		"-2000",
		"Generated on Feb 01, 2024",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered document missing %q", want)
		}
	}
}

func TestHTMLRendererEmptyReport(t *testing.T) {
	r, err := NewHTMLRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	out, err := r.Render(context.Background(), ReportData{
		Title:        "Expense Tracker Report",
		UserEmail:    "u@example.com",
		Period:       "All Time",
		TotalIncome:  "0",
		TotalExpense: "0",
		Balance:      "0",
	})
	if err != nil {
		t.Fatalf("render of empty report should succeed: %v", err)
	}
	if !strings.Contains(string(out), "No transactions found for this period.") {
		t.Error("empty report missing placeholder row")
	}
}

func TestHTMLRendererEscapesDescriptions(t *testing.T) {
	r, err := NewHTMLRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	out, err := r.Render(context.Background(), ReportData{
		Transactions: []TransactionRow{
			{Date: "Jan 01, 2024", Type: "EXPENSE", Description: "<script>alert(1)</script>", Amount: "-1"},
		},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(string(out), "<script>alert(1)</script>") {
		t.Error("description not escaped")
	}
}
