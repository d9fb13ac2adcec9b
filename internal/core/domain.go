package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

type (
	// TransactionType is either Income or Expense. There are exactly two
	// types; anything that is not Income is treated as Expense.
	TransactionType string

	// Date is a calendar date without a time component, always UTC.
	Date struct {
		time.Time
	}

	// Transaction is a single money movement owned by exactly one user.
	Transaction struct {
		ID          string          `json:"id"`
		OwnerID     string          `json:"-"`
		CategoryID  string          `json:"categoryId,omitempty"`
		Amount      Money           `json:"amount"`
		Type        TransactionType `json:"type"`
		Description string          `json:"description,omitempty"`
		Date        Date            `json:"date"`
	}

	// Category is a user-defined grouping label. Name is unique per
	// owner+type pair.
	Category struct {
		ID      string          `json:"id"`
		OwnerID string          `json:"-"`
		Name    string          `json:"name"`
		Type    TransactionType `json:"type"`
	}
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidType    = errors.New("invalid transaction type")
	ErrInvalidDate    = errors.New("invalid date")
	ErrEmptyName      = errors.New("empty category name")
	ErrDuplicateName  = errors.New("category name already exists for this type")
	ErrEmptyOwner     = errors.New("empty owner id")
)

// ParseTransactionType normalizes a type string, accepting any casing.
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(Income):
		return Income, nil
	case string(Expense):
		return Expense, nil
	default:
		return "", ErrInvalidType
	}
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Today returns the current calendar date in UTC.
func Today() Date {
	y, m, d := time.Now().UTC().Date()
	return NewDate(y, int(m), d)
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// Display renders the date the way report rows show it, e.g. "Jan 05, 2024".
func (d Date) Display() string {
	return d.Format("Jan 02, 2006")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	parsed, err := ParseDate(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if t.Type != Income && t.Type != Expense {
		return ErrInvalidType
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(t.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return errors.New("category name too long (max 100 characters)")
	}
	if c.Type != Income && c.Type != Expense {
		return ErrInvalidType
	}
	return nil
}
