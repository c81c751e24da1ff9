package category

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCategory   = errors.New("invalid category")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrCategoryInUse     = errors.New("category is referenced by transactions")
	ErrInsufficientFunds = errors.New("insufficient funds in category")
	ErrDuplicateName     = fmt.Errorf("%w: category name already exists", ErrInvalidCategory)
)

const MaxNameLength = 100

// Category is a named budget bucket. Remaining is the envelope balance consumed by deductions.
type Category struct {
	Id        int
	Name      string
	Budget    decimal.Decimal
	Remaining decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CategoryPatch holds the fields of an update. Nil fields are left unchanged.
type CategoryPatch struct {
	Name   *string
	Budget *decimal.Decimal
}
