package accounting

import (
	"context"
	"fmt"
	"time"

	"github.com/budgetmate/budgetmate/internal/config"
	"github.com/budgetmate/budgetmate/internal/utils"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Verdict is the outcome of a budget check. Guarded is false when no check applied.
type Verdict struct {
	Guarded      bool
	Exceeded     bool
	CategoryId   int
	CategoryName string
	Budget       decimal.Decimal
	AlreadySpent decimal.Decimal
	WouldBecome  decimal.Decimal
}

// Err returns a *BudgetExceededError for an exceeded verdict and nil otherwise.
func (v Verdict) Err() error {
	if !v.Exceeded {
		return nil
	}
	return &BudgetExceededError{
		CategoryId:   v.CategoryId,
		CategoryName: v.CategoryName,
		Budget:       v.Budget,
		AlreadySpent: v.AlreadySpent,
		WouldBecome:  v.WouldBecome,
	}
}

type Guard struct {
	categories CategoryReader
	spend      SpendReader
	clock      utils.Clock
	enabled    bool
	window     config.GuardWindow
}

func NewGuard(categories CategoryReader, spend SpendReader, clock utils.Clock, cfg config.Accounting) *Guard {
	window := cfg.GuardWindow
	if window == "" {
		window = config.GuardWindowTransaction
	}
	return &Guard{
		categories: categories,
		spend:      spend,
		clock:      clock,
		enabled:    cfg.GuardEnabled,
		window:     window,
	}
}

// WillExceedBudget checks whether writing an expense of newAmount dated at into the category
// would push its month spend over budget. excludeId removes the edited transaction's own
// contribution. It never writes.
func (g *Guard) WillExceedBudget(
	ctx context.Context,
	userId int,
	categoryId *int,
	newAmount decimal.Decimal,
	at time.Time,
	excludeId *int,
) (Verdict, error) {
	if !g.enabled || categoryId == nil || !newAmount.IsNegative() {
		return Verdict{}, nil
	}

	category, err := g.categories.CategoryBudget(ctx, userId, *categoryId)
	if err != nil {
		return Verdict{}, err
	}
	if !category.Budget.IsPositive() {
		return Verdict{}, nil
	}

	from, to := MonthWindow(g.anchor(at))
	alreadySpent, err := g.spend.SumExpenses(ctx, userId, category.Id, from, to, excludeId)
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to compute month spend: %w", err)
	}

	wouldBecome := alreadySpent.Add(newAmount.Abs())
	verdict := Verdict{
		Guarded:      true,
		Exceeded:     wouldBecome.GreaterThan(category.Budget),
		CategoryId:   category.Id,
		CategoryName: category.Name,
		Budget:       category.Budget,
		AlreadySpent: alreadySpent,
		WouldBecome:  wouldBecome,
	}
	if verdict.Exceeded {
		log.Debugf("expense of %s would exceed budget %s of category %d (spent %s)",
			newAmount.Abs(), category.Budget, category.Id, alreadySpent)
	}
	return verdict, nil
}

func (g *Guard) anchor(at time.Time) time.Time {
	if g.window == config.GuardWindowNow || at.IsZero() {
		return g.clock.Now()
	}
	return at
}
