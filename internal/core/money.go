// Package core holds the domain model and the aggregation logic shared by
// the HTTP server, the services and the worker.
//
// Amounts are exact decimals end to end. Binary floating point never appears
// in a money path; rounding happens only when a value is formatted for
// display.
package core

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount in the single currency unit used by the
// whole tracker. The zero value is a valid zero amount.
type Money struct {
	d decimal.Decimal
}

// ZeroMoney returns a zero amount.
func ZeroMoney() Money {
	return Money{}
}

// NewMoney builds a Money from an integer number of currency units.
func NewMoney(units int64) Money {
	return Money{d: decimal.NewFromInt(units)}
}

// ParseMoney parses a decimal string such as "12.34" into a Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Negative amounts are rejected: transaction amounts are non-negative by
// convention, the sign is carried by the transaction type.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.IsNegative() {
		return Money{}, ErrInvalidAmount
	}
	return Money{d: d}, nil
}

// MustMoney parses a decimal string and panics on failure. Test helper.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(fmt.Sprintf("core: bad money literal %q: %v", s, err))
	}
	return m
}

// Add returns m + o exactly.
func (m Money) Add(o Money) Money {
	return Money{d: m.d.Add(o.d)}
}

// Sub returns m - o exactly. The result may be negative (balances are).
func (m Money) Sub(o Money) Money {
	return Money{d: m.d.Sub(o.d)}
}

// Cmp compares two amounts: -1 if m < o, 0 if equal, 1 if m > o.
func (m Money) Cmp(o Money) int {
	return m.d.Cmp(o.d)
}

// Equal reports whether two amounts are numerically equal.
func (m Money) Equal(o Money) bool {
	return m.d.Equal(o.d)
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.d.IsZero()
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.d.IsNegative()
}

// String renders the exact decimal value, e.g. "2500" or "12.34".
func (m Money) String() string {
	return m.d.String()
}

// Signed renders the amount prefixed with "+" for income and "-" for
// expense, the way report rows show it.
func (m Money) Signed(t TransactionType) string {
	if t == Income {
		return "+" + m.d.String()
	}
	return "-" + m.d.String()
}

// MarshalJSON encodes the amount as a JSON string to keep it exact on the
// wire.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.d.String() + `"`), nil
}

// UnmarshalJSON accepts both a JSON string and a bare JSON number.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("unmarshal money: %w", err)
	}
	m.d = d
	return nil
}

// Value stores the amount as TEXT so SQLite never treats it as a float.
func (m Money) Value() (driver.Value, error) {
	return m.d.String(), nil
}

// Scan reads an amount back from its TEXT column.
func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("scan money %q: %w", v, err)
		}
		m.d = d
		return nil
	case []byte:
		return m.Scan(string(v))
	case int64:
		m.d = decimal.NewFromInt(v)
		return nil
	default:
		return fmt.Errorf("scan money: unsupported type %T", src)
	}
}
