package transaction

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidTransaction  = errors.New("invalid transaction")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrCategoryNotFound    = errors.New("category not found")
)

const (
	MaxDescriptionLength = 255
	MaxNotesLength       = 2000
)

type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

func ParseType(s string) (Type, error) {
	switch Type(s) {
	case "":
		return "", nil
	case TypeIncome, TypeExpense:
		return Type(s), nil
	}
	return "", fmt.Errorf("%w: type must be %q or %q", ErrInvalidTransaction, TypeIncome, TypeExpense)
}

// Transaction is a signed money movement. Positive amounts are income, negative are expenses.
type Transaction struct {
	Id          int
	Description string
	Amount      decimal.Decimal
	CategoryId  *int
	Date        time.Time
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (t Transaction) Type() Type {
	if t.Amount.IsNegative() {
		return TypeExpense
	}
	return TypeIncome
}

type NewTransaction struct {
	Description string
	Amount      decimal.Decimal
	CategoryId  *int
	// Date defaults to the write time when nil.
	Date  *time.Time
	Notes string
}

// TransactionPatch holds the fields of an update. Nil fields are left unchanged;
// ClearCategory detaches the transaction from its category.
type TransactionPatch struct {
	Description   *string
	Amount        *decimal.Decimal
	CategoryId    *int
	ClearCategory bool
	Date          *time.Time
	Notes         *string
}

// Filter narrows a listing. From is inclusive and To exclusive.
type Filter struct {
	From       *time.Time
	To         *time.Time
	CategoryId *int
	Type       Type
}

func (f Filter) Matches(t Transaction) bool {
	if f.From != nil && t.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && !t.Date.Before(*f.To) {
		return false
	}
	if f.CategoryId != nil && (t.CategoryId == nil || *t.CategoryId != *f.CategoryId) {
		return false
	}
	if f.Type != "" && t.Type() != f.Type {
		return false
	}
	return true
}
