package accounting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var ErrBudgetExceeded = errors.New("budget exceeded")

// maxMoney is the first value that does not fit NUMERIC(14,2).
var maxMoney = decimal.New(1, 12)

// BudgetExceededError carries the figures behind a rejected expense.
type BudgetExceededError struct {
	CategoryId   int
	CategoryName string
	Budget       decimal.Decimal
	AlreadySpent decimal.Decimal
	WouldBecome  decimal.Decimal
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("budget exceeded for category %q: budget %s, already spent %s, would become %s",
		e.CategoryName, e.Budget.StringFixed(2), e.AlreadySpent.StringFixed(2), e.WouldBecome.StringFixed(2))
}

func (e *BudgetExceededError) Is(target error) bool {
	return target == ErrBudgetExceeded
}

// CategoryBudget is the part of a category the guard needs.
type CategoryBudget struct {
	Id     int
	Name   string
	Budget decimal.Decimal
}

type CategoryReader interface {
	CategoryBudget(ctx context.Context, userId int, categoryId int) (CategoryBudget, error)
}

type SpendReader interface {
	// SumExpenses returns the sum of absolute values of negative amounts in [from, to),
	// optionally ignoring one transaction.
	SumExpenses(ctx context.Context, userId int, categoryId int, from, to time.Time, excludeId *int) (decimal.Decimal, error)
}

// IsMoney reports whether d has at most two decimal places and fits the storage range.
func IsMoney(d decimal.Decimal) bool {
	return d.Equal(d.Round(2)) && d.Abs().LessThan(maxMoney)
}

// MonthWindow returns the UTC calendar month containing t as [start, nextStart).
func MonthWindow(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// PercentOfMonthElapsed returns day-of-month / days-in-month * 100 for the calendar date of t
// in its own location.
func PercentOfMonthElapsed(t time.Time) decimal.Decimal {
	daysInMonth := time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
	return decimal.NewFromInt(int64(t.Day())).
		Div(decimal.NewFromInt(int64(daysInMonth))).
		Mul(decimal.NewFromInt(100))
}
