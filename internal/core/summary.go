package core

import "context"

// CategoryNamer resolves a category id to its display name. The second
// return value is false when the category does not exist (e.g. deleted
// after the transaction was tagged with it); resolution must never fail
// harder than that on the aggregation path.
type CategoryNamer interface {
	CategoryName(ctx context.Context, categoryID string) (string, bool)
}

// Summary is the derived view of a transaction set. It is computed, never
// stored.
type Summary struct {
	TotalIncome       Money            `json:"totalIncome"`
	TotalExpense      Money            `json:"totalExpense"`
	Balance           Money            `json:"balance"`
	CategoryBreakdown map[string]Money `json:"categoryBreakdown"`
	TransactionCount  int              `json:"transactionCount"`
}

// Summarize aggregates an already-filtered, owner-scoped transaction set in
// a single pass.
//
// Income amounts accumulate into TotalIncome, everything else into
// TotalExpense. Transactions carrying a category id contribute to the
// breakdown under the resolved category name; when the id no longer
// resolves the transaction stays in the totals and the count but is dropped
// from the breakdown. All sums are exact, so the result does not depend on
// input order. Name lookups are memoized for the duration of the pass.
func Summarize(ctx context.Context, ts []Transaction, names CategoryNamer) Summary {
	s := Summary{
		CategoryBreakdown: make(map[string]Money),
		TransactionCount:  len(ts),
	}

	resolved := make(map[string]string)
	missing := make(map[string]struct{})

	for _, t := range ts {
		if t.Type == Income {
			s.TotalIncome = s.TotalIncome.Add(t.Amount)
		} else {
			s.TotalExpense = s.TotalExpense.Add(t.Amount)
		}

		if t.CategoryID == "" {
			continue
		}
		name, ok := resolved[t.CategoryID]
		if !ok {
			if _, miss := missing[t.CategoryID]; miss {
				continue
			}
			name, ok = names.CategoryName(ctx, t.CategoryID)
			if !ok {
				missing[t.CategoryID] = struct{}{}
				continue
			}
			resolved[t.CategoryID] = name
		}
		s.CategoryBreakdown[name] = s.CategoryBreakdown[name].Add(t.Amount)
	}

	s.Balance = s.TotalIncome.Sub(s.TotalExpense)
	return s
}
