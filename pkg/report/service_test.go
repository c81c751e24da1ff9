package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/budgetmate/budgetmate/internal/database"
	"github.com/budgetmate/budgetmate/internal/utils"
	"github.com/budgetmate/budgetmate/pkg/category"
	"github.com/budgetmate/budgetmate/pkg/transaction"
	"github.com/budgetmate/budgetmate/pkg/user"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner        = user.User{Id: 1, Username: "owner", Settings: user.Settings{Timezone: "UTC"}}
	ctx          = user.WithUser(context.Background(), owner)
	midMonth     = time.Date(2026, time.April, 15, 12, 0, 0, 0, time.UTC)
	clock        = &utils.MockClock{FixedNow: midMonth}
	categoryStub = category.NewStubRepository()
	txStub       = transaction.NewStubRepository()
	service      = NewService(categoryStub, txStub, clock)
)

func setup(t *testing.T) func() {
	return func() {
		categoryStub.Reset()
		txStub.Reset()
		clock.SetNow(midMonth)
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func addCategory(t *testing.T, name, budget string) int {
	c, err := categoryStub.CreateCategory(context.Background(), owner.Id, category.Category{Name: name, Budget: dec(budget), Remaining: dec(budget)})
	require.NoError(t, err)
	return c.Id
}

func addTransaction(t *testing.T, userId int, amount string, categoryId *int) {
	_, err := txStub.CreateTransaction(context.Background(), userId, transaction.Transaction{
		Description: "t",
		Amount:      dec(amount),
		CategoryId:  categoryId,
		Date:        midMonth,
	})
	require.NoError(t, err)
}

func TestServiceImpl_GetTotals(t *testing.T) {
	t.Run("should sum income and expenses", func(t *testing.T) {
		defer setup(t)()
		food := addCategory(t, "Food", "0")
		transport := addCategory(t, "Transport", "0")
		addTransaction(t, owner.Id, "1200", nil)
		addTransaction(t, owner.Id, "-50", &food)
		addTransaction(t, owner.Id, "-15", &transport)
		addTransaction(t, 2, "-999", nil)

		// when
		totals, err := service.GetTotals(ctx)

		// then
		require.NoError(t, err)
		assert.True(t, totals.Income.Equal(dec("1200")))
		assert.True(t, totals.Expenses.Equal(dec("65")))
		assert.True(t, totals.Balance.Equal(dec("1135")))
	})

	t.Run("should return zeros without transactions", func(t *testing.T) {
		defer setup(t)()

		totals, err := service.GetTotals(ctx)

		require.NoError(t, err)
		assert.True(t, totals.Balance.IsZero())
	})
}

func TestServiceImpl_GetCategoryReport(t *testing.T) {
	t.Run("should report spend and remaining", func(t *testing.T) {
		defer setup(t)()
		food := addCategory(t, "Food", "100")
		addTransaction(t, owner.Id, "-40", &food)
		addTransaction(t, owner.Id, "-30", &food)
		addTransaction(t, owner.Id, "25", &food)

		// when
		summary, err := service.GetCategoryReport(ctx)

		// then
		require.NoError(t, err)
		require.Len(t, summary.Categories, 1)
		report := summary.Categories[0]
		assert.True(t, report.Spent.Equal(dec("70")))
		assert.True(t, report.Remaining.Equal(dec("30")))
		assert.True(t, report.PercentSpent.Equal(dec("70")))
		// 15 of 30 April days elapsed
		assert.True(t, summary.PercentOfMonthElapsed.Equal(dec("50")))
		assert.Equal(t, StatusOver, report.Status)
	})

	t.Run("should be on track when spend follows the month", func(t *testing.T) {
		defer setup(t)()
		food := addCategory(t, "Food", "100")
		addTransaction(t, owner.Id, "-40", &food)
		clock.SetNow(time.Date(2026, time.April, 30, 12, 0, 0, 0, time.UTC))

		summary, err := service.GetCategoryReport(ctx)

		require.NoError(t, err)
		assert.Equal(t, StatusOnTrack, summary.Categories[0].Status)
	})

	t.Run("should not compute ratio for categories without budget", func(t *testing.T) {
		defer setup(t)()
		misc := addCategory(t, "Misc", "0")
		addTransaction(t, owner.Id, "-10", &misc)
		addCategory(t, "Empty", "50")

		summary, err := service.GetCategoryReport(ctx)

		require.NoError(t, err)
		require.Len(t, summary.Categories, 2)
		assert.Equal(t, StatusNoBudget, summary.Categories[0].Status)
		assert.Nil(t, summary.Categories[0].PercentSpent)
		assert.True(t, summary.Categories[0].Remaining.Equal(dec("-10")))
		assert.True(t, summary.Categories[1].Spent.IsZero())
		assert.Equal(t, StatusOnTrack, summary.Categories[1].Status)
		assert.True(t, summary.TotalSpent.Equal(dec("10")))
	})

	t.Run("should use the user's calendar date", func(t *testing.T) {
		defer setup(t)()
		addCategory(t, "Food", "100")
		// 23:30 UTC on April 30 is already May 1 in Warsaw
		clock.SetNow(time.Date(2026, time.April, 30, 23, 30, 0, 0, time.UTC))
		warsawCtx := user.WithUser(context.Background(), user.User{Id: owner.Id, Settings: user.Settings{Timezone: "Europe/Warsaw"}})

		summary, err := service.GetCategoryReport(warsawCtx)

		require.NoError(t, err)
		assert.True(t, summary.PercentOfMonthElapsed.Equal(dec("3.23")), summary.PercentOfMonthElapsed.String())
	})

	t.Run("should fail when a store is unavailable", func(t *testing.T) {
		defer setup(t)()
		txStub.Err = database.ErrStorageUnavailable

		_, err := service.GetCategoryReport(ctx)

		assert.True(t, errors.Is(err, database.ErrStorageUnavailable))
	})
}
