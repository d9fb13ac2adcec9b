package core

import "github.com/shopspring/decimal"

// AdviceClass tags a single transaction's amount relative to the fixed
// threshold. It picks which message template the user sees after a create
// or update; it never looks at aggregates.
type AdviceClass string

const (
	AdviceNormal    AdviceClass = "within-normal-range"
	AdviceHighValue AdviceClass = "high-value"
)

// adviceThreshold separates normal from high-value amounts, in the same
// currency unit as transaction amounts. Exactly the threshold counts as
// high.
var adviceThreshold = decimal.NewFromInt(10000)

// ClassifyAdvice maps an amount to its advice class.
func ClassifyAdvice(amount Money) AdviceClass {
	if amount.d.Cmp(adviceThreshold) >= 0 {
		return AdviceHighValue
	}
	return AdviceNormal
}
