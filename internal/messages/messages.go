// Package messages composes the user-facing strings returned after
// transaction operations. Callers supply raw values and a classification;
// the templates own the prose.
package messages

import (
	"fmt"
	"strings"
	"text/template"

	"ledger/internal/core"
)

var (
	transactionSuccessTmpl = template.Must(template.New("transaction-success").Parse(
		`{{.Type}} of {{.Amount}} recorded{{if .Description}} for "{{.Description}}"{{end}}.`))

	transactionUpdateTmpl = template.Must(template.New("transaction-update").Parse(
		`{{.Type}} updated to {{.Amount}}.`))

	adviceNormalTmpl = template.Must(template.New("advice-normal").Parse(
		`This {{.TypeLower}} of {{.Amount}} is within your normal range.`))

	adviceHighTmpl = template.Must(template.New("advice-high").Parse(
		`Heads up: this {{.TypeLower}} of {{.Amount}} is a high-value transaction{{if .IsExpense}}; consider reviewing your budget{{end}}.`))

	monthlyDigestTmpl = template.Must(template.New("monthly-digest").Parse(
		`Your {{.Month}} {{.Year}} summary: {{.Count}} transactions, income {{.TotalIncome}}, expenses {{.TotalExpense}}, balance {{.Balance}}.{{if .Tip}} {{.Tip}}{{end}}`))
)

const transactionDeleted = "Transaction deleted."

// TransactionSuccess is the confirmation shown after a create.
func TransactionSuccess(typ core.TransactionType, amount, description string) (string, error) {
	return render(transactionSuccessTmpl, map[string]any{
		"Type":        titleCase(typ),
		"Amount":      amount,
		"Description": description,
	})
}

// TransactionUpdated is the confirmation shown after an update.
func TransactionUpdated(typ core.TransactionType, amount string) (string, error) {
	return render(transactionUpdateTmpl, map[string]any{
		"Type":   titleCase(typ),
		"Amount": amount,
	})
}

// TransactionDeleted is the confirmation shown after a delete.
func TransactionDeleted() string {
	return transactionDeleted
}

// Advice maps an advice classification plus raw values to its message.
func Advice(class core.AdviceClass, typ core.TransactionType, amount string) (string, error) {
	data := map[string]any{
		"TypeLower": strings.ToLower(string(typ)),
		"Amount":    amount,
		"IsExpense": typ != core.Income,
	}
	if class == core.AdviceHighValue {
		return render(adviceHighTmpl, data)
	}
	return render(adviceNormalTmpl, data)
}

// MonthlyDigest summarizes a month for the notification feed.
func MonthlyDigest(month string, year int, s core.Summary) (string, error) {
	tip := ""
	if s.Balance.IsNegative() {
		tip = "Consider reviewing your expenses to improve your balance."
	} else if !s.Balance.IsZero() {
		tip = "Great job! You have a positive balance this month."
	}
	return render(monthlyDigestTmpl, map[string]any{
		"Month":        month,
		"Year":         year,
		"Count":        s.TransactionCount,
		"TotalIncome":  s.TotalIncome.String(),
		"TotalExpense": s.TotalExpense.String(),
		"Balance":      s.Balance.String(),
		"Tip":          tip,
	})
}

func render(tmpl *template.Template, data any) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", tmpl.Name(), err)
	}
	return sb.String(), nil
}

func titleCase(t core.TransactionType) string {
	s := strings.ToLower(string(t))
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
