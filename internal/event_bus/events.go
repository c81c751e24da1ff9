package event_bus

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TransactionCreated EventType = "transaction.created"
	TransactionUpdated EventType = "transaction.updated"
	TransactionDeleted EventType = "transaction.deleted"
	BudgetExceeded     EventType = "budget.exceeded"
)

// TransactionChanged describes a committed transaction write.
type TransactionChanged struct {
	UserId        int
	TransactionId int
	CategoryId    *int
	Amount        decimal.Decimal
	Date          time.Time
	// Budget is set only when the write was checked against a category budget.
	Budget *BudgetFigures
}

// BudgetFigures are the month figures computed by the budget guard for one category.
type BudgetFigures struct {
	CategoryId   int
	CategoryName string
	Budget       decimal.Decimal
	// Spent is the category spend for the month including the written transaction.
	Spent decimal.Decimal
}

// BudgetExceededAttempt describes a transaction write rejected by the budget guard.
type BudgetExceededAttempt struct {
	UserId       int
	CategoryId   int
	CategoryName string
	Budget       decimal.Decimal
	AlreadySpent decimal.Decimal
	WouldBecome  decimal.Decimal
}
