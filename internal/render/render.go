// Package render turns an assembled report payload into document bytes.
// The rest of the application is agnostic to the document format.
package render

import "context"

// CategoryRow is one line of the category breakdown table.
type CategoryRow struct {
	Label  string
	Amount string
}

// TransactionRow is one formatted transaction line.
type TransactionRow struct {
	Date        string
	Type        string
	Description string
	Amount      string // signed: "+" income, "-" expense
}

// ReportData is the structured payload handed to a Renderer. All money
// fields are already decimal-formatted strings.
type ReportData struct {
	Title           string
	UserEmail       string
	Period          string
	TotalIncome     string
	TotalExpense    string
	Balance         string
	BalanceNegative bool
	Categories      []CategoryRow
	Transactions    []TransactionRow
	GeneratedAt     string
}

// Renderer lays out a report document. Implementations decide the format;
// errors propagate to the caller unchanged.
type Renderer interface {
	Render(ctx context.Context, data ReportData) ([]byte, error)
}
