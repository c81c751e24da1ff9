package report

import (
	"time"

	"github.com/budgetmate/budgetmate/pkg/accounting"
	"github.com/budgetmate/budgetmate/pkg/category"
	"github.com/budgetmate/budgetmate/pkg/transaction"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

func computeTotals(transactions []transaction.Transaction) Totals {
	totals := Totals{Income: decimal.Zero, Expenses: decimal.Zero}
	for _, t := range transactions {
		if t.Amount.IsPositive() {
			totals.Income = totals.Income.Add(t.Amount)
		} else {
			totals.Expenses = totals.Expenses.Add(t.Amount.Abs())
		}
	}
	totals.Balance = totals.Income.Sub(totals.Expenses)
	return totals
}

// computeCategorySummary compares each category's all-time spend with its budget and with how
// much of the month has passed at now.
func computeCategorySummary(categories []category.Category, transactions []transaction.Transaction, now time.Time) CategorySummary {
	spent := make(map[int]decimal.Decimal, len(categories))
	for _, t := range transactions {
		if t.CategoryId == nil || !t.Amount.IsNegative() {
			continue
		}
		spent[*t.CategoryId] = spent[*t.CategoryId].Add(t.Amount.Abs())
	}

	elapsed := accounting.PercentOfMonthElapsed(now)
	summary := CategorySummary{
		GeneratedAt:           now,
		PercentOfMonthElapsed: elapsed.Round(2),
		Categories:            make([]CategoryReport, 0, len(categories)),
		TotalBudget:           decimal.Zero,
		TotalSpent:            decimal.Zero,
		TotalRemaining:        decimal.Zero,
	}
	for _, c := range categories {
		report := CategoryReport{
			CategoryId: c.Id,
			Name:       c.Name,
			Budget:     c.Budget,
			Spent:      spent[c.Id],
			Status:     StatusNoBudget,
		}
		report.Remaining = c.Budget.Sub(report.Spent)
		if c.Budget.IsPositive() {
			percent := report.Spent.Div(c.Budget).Mul(hundred)
			rounded := percent.Round(2)
			report.PercentSpent = &rounded
			if percent.GreaterThan(elapsed) {
				report.Status = StatusOver
			} else {
				report.Status = StatusOnTrack
			}
		}

		summary.Categories = append(summary.Categories, report)
		summary.TotalBudget = summary.TotalBudget.Add(report.Budget)
		summary.TotalSpent = summary.TotalSpent.Add(report.Spent)
		summary.TotalRemaining = summary.TotalRemaining.Add(report.Remaining)
	}
	return summary
}
