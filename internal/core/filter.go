package core

// Filter selects a subset of one owner's transactions. A zero field means
// "any"; all set fields must match. The date range is inclusive on both
// ends, and either bound may be open. An inverted range (start after end)
// simply matches nothing.
type Filter struct {
	Type       TransactionType
	CategoryID string
	StartDate  Date
	EndDate    Date
}

// IsEmpty reports whether no field is set, i.e. the filter matches the
// owner's entire transaction set.
func (f Filter) IsEmpty() bool {
	return f.Type == "" && f.CategoryID == "" && f.StartDate.IsZero() && f.EndDate.IsZero()
}

// Matches reports whether t passes every set field of the filter.
func (f Filter) Matches(t Transaction) bool {
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.CategoryID != "" && t.CategoryID != f.CategoryID {
		return false
	}
	if !f.StartDate.IsZero() && t.Date.Before(f.StartDate.Time) {
		return false
	}
	if !f.EndDate.IsZero() && t.Date.After(f.EndDate.Time) {
		return false
	}
	return true
}

// Apply returns the transactions that match the filter, preserving input
// order. The input slice is never mutated. Applying the same filter twice
// yields the same set.
func (f Filter) Apply(ts []Transaction) []Transaction {
	if f.IsEmpty() {
		out := make([]Transaction, len(ts))
		copy(out, ts)
		return out
	}
	out := make([]Transaction, 0, len(ts))
	for _, t := range ts {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}
