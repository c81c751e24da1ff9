package report

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusNoBudget Status = "no budget"
	StatusOver     Status = "over"
	StatusOnTrack  Status = "on track"
)

type Totals struct {
	Income   decimal.Decimal
	Expenses decimal.Decimal
	Balance  decimal.Decimal
}

// CategoryReport is the all-time spend of one category against its budget.
type CategoryReport struct {
	CategoryId int
	Name       string
	Budget     decimal.Decimal
	Spent      decimal.Decimal
	Remaining  decimal.Decimal
	// PercentSpent is nil for categories without a budget.
	PercentSpent *decimal.Decimal
	Status       Status
}

type CategorySummary struct {
	GeneratedAt           time.Time
	PercentOfMonthElapsed decimal.Decimal
	Categories            []CategoryReport
	TotalBudget           decimal.Decimal
	TotalSpent            decimal.Decimal
	TotalRemaining        decimal.Decimal
}
