package category

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/budgetmate/budgetmate/internal/database"
	"github.com/budgetmate/budgetmate/pkg/accounting"
	"github.com/budgetmate/budgetmate/pkg/user"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type usageStub struct {
	used map[int]bool
}

func (u *usageStub) HasTransactions(ctx context.Context, userId int, categoryId int) (bool, error) {
	return u.used[categoryId], nil
}

var (
	ctx       = user.WithUser(context.Background(), user.User{Id: 1, Username: "owner"})
	otherCtx  = user.WithUser(context.Background(), user.User{Id: 2, Username: "stranger"})
	repoStub  = NewStubRepository()
	usage     = &usageStub{used: map[int]bool{}}
	service   = NewService(repoStub, usage, accounting.NewLocks())
	amount100 = decimal.NewFromInt(100)
)

func setup(t *testing.T) func() {
	return func() {
		repoStub.Reset()
		usage.used = map[int]bool{}
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestServiceImpl_CreateCategory(t *testing.T) {
	t.Run("should start with remaining equal to budget", func(t *testing.T) {
		defer setup(t)()

		// when
		c, err := service.CreateCategory(ctx, "  Food ", dec("250.50"))

		// then
		require.NoError(t, err)
		assert.Equal(t, "Food", c.Name)
		assert.True(t, c.Remaining.Equal(dec("250.50")))
		assert.True(t, c.Budget.Equal(c.Remaining))
	})

	t.Run("should reject invalid input", func(t *testing.T) {
		defer setup(t)()

		cases := map[string]struct {
			name   string
			budget decimal.Decimal
		}{
			"empty name":      {"   ", amount100},
			"long name":       {strings.Repeat("x", MaxNameLength+1), amount100},
			"negative budget": {"Food", dec("-1")},
			"fraction cents":  {"Food", dec("1.001")},
		}
		for name, c := range cases {
			_, err := service.CreateCategory(ctx, c.name, c.budget)
			assert.ErrorIs(t, err, ErrInvalidCategory, name)
		}
		categories, _ := service.ListCategories(ctx)
		assert.Empty(t, categories)
	})

	t.Run("should reject duplicate names ignoring case", func(t *testing.T) {
		defer setup(t)()
		_, err := service.CreateCategory(ctx, "Food", amount100)
		require.NoError(t, err)

		_, err = service.CreateCategory(ctx, "FOOD", amount100)
		assert.ErrorIs(t, err, ErrDuplicateName)
		assert.ErrorIs(t, err, ErrInvalidCategory)

		_, err = service.CreateCategory(otherCtx, "Food", amount100)
		assert.NoError(t, err)
	})

	t.Run("should require user in context", func(t *testing.T) {
		_, err := service.CreateCategory(context.Background(), "Food", amount100)
		assert.ErrorIs(t, err, user.ErrNoUser)
	})
}

func TestServiceImpl_UpdateCategory(t *testing.T) {
	t.Run("should move remaining by budget delta", func(t *testing.T) {
		defer setup(t)()
		c, _ := service.CreateCategory(ctx, "Food", amount100)
		_, err := service.DeductFromCategory(ctx, c.Id, dec("30"))
		require.NoError(t, err)

		// when
		newBudget := dec("150")
		updated, err := service.UpdateCategory(ctx, c.Id, CategoryPatch{Budget: &newBudget})

		// then
		require.NoError(t, err)
		assert.True(t, updated.Budget.Equal(dec("150")))
		assert.True(t, updated.Remaining.Equal(dec("120")))
		assert.Equal(t, "Food", updated.Name)
	})

	t.Run("should clamp remaining at zero when budget drops below spent", func(t *testing.T) {
		defer setup(t)()
		c, _ := service.CreateCategory(ctx, "Food", amount100)
		_, err := service.DeductFromCategory(ctx, c.Id, dec("80"))
		require.NoError(t, err)

		// when
		newBudget := dec("50")
		updated, err := service.UpdateCategory(ctx, c.Id, CategoryPatch{Budget: &newBudget})

		// then
		require.NoError(t, err)
		assert.True(t, updated.Remaining.IsZero(), "remaining %s", updated.Remaining)
	})

	t.Run("should rename without touching money", func(t *testing.T) {
		defer setup(t)()
		c, _ := service.CreateCategory(ctx, "Food", amount100)

		name := " Groceries "
		updated, err := service.UpdateCategory(ctx, c.Id, CategoryPatch{Name: &name})

		require.NoError(t, err)
		assert.Equal(t, "Groceries", updated.Name)
		assert.True(t, updated.Remaining.Equal(amount100))
	})

	t.Run("should not find category of another owner", func(t *testing.T) {
		defer setup(t)()
		c, _ := service.CreateCategory(ctx, "Food", amount100)

		name := "Mine"
		_, err := service.UpdateCategory(otherCtx, c.Id, CategoryPatch{Name: &name})

		assert.ErrorIs(t, err, ErrCategoryNotFound)
	})
}

func TestServiceImpl_DeleteCategory(t *testing.T) {
	t.Run("should delete unused category", func(t *testing.T) {
		defer setup(t)()
		c, _ := service.CreateCategory(ctx, "Food", amount100)

		err := service.DeleteCategory(ctx, c.Id)

		require.NoError(t, err)
		_, err = service.GetCategory(ctx, c.Id)
		assert.ErrorIs(t, err, ErrCategoryNotFound)
	})

	t.Run("should refuse to delete category in use", func(t *testing.T) {
		defer setup(t)()
		c, _ := service.CreateCategory(ctx, "Food", amount100)
		usage.used[c.Id] = true

		err := service.DeleteCategory(ctx, c.Id)

		assert.ErrorIs(t, err, ErrCategoryInUse)
		_, err = service.GetCategory(ctx, c.Id)
		assert.NoError(t, err)
	})

	t.Run("should report missing category", func(t *testing.T) {
		defer setup(t)()

		assert.ErrorIs(t, service.DeleteCategory(ctx, 42), ErrCategoryNotFound)
	})
}

func TestServiceImpl_DeductFromCategory(t *testing.T) {
	t.Run("should leave budget minus deductions", func(t *testing.T) {
		defer setup(t)()
		c, _ := service.CreateCategory(ctx, "Food", amount100)

		for _, a := range []string{"10", "20.25", "30"} {
			_, err := service.DeductFromCategory(ctx, c.Id, dec(a))
			require.NoError(t, err)
		}

		got, _ := service.GetCategory(ctx, c.Id)
		assert.True(t, got.Remaining.Equal(dec("39.75")))
	})

	t.Run("should reject deduction above remaining and keep state", func(t *testing.T) {
		defer setup(t)()
		c, _ := service.CreateCategory(ctx, "Food", amount100)
		_, _ = service.DeductFromCategory(ctx, c.Id, dec("60"))

		_, err := service.DeductFromCategory(ctx, c.Id, dec("40.01"))

		assert.ErrorIs(t, err, ErrInsufficientFunds)
		got, _ := service.GetCategory(ctx, c.Id)
		assert.True(t, got.Remaining.Equal(dec("40")))
	})

	t.Run("should reject non positive amounts", func(t *testing.T) {
		defer setup(t)()
		c, _ := service.CreateCategory(ctx, "Food", amount100)

		_, err := service.DeductFromCategory(ctx, c.Id, decimal.Zero)
		assert.ErrorIs(t, err, ErrInvalidCategory)
		_, err = service.DeductFromCategory(ctx, c.Id, dec("-5"))
		assert.ErrorIs(t, err, ErrInvalidCategory)
	})

	t.Run("should not let concurrent deductions overdraw", func(t *testing.T) {
		defer setup(t)()
		c, _ := service.CreateCategory(ctx, "Food", amount100)

		var wg sync.WaitGroup
		var mu sync.Mutex
		succeeded := 0
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := service.DeductFromCategory(ctx, c.Id, dec("30")); err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 3, succeeded)
		got, _ := service.GetCategory(ctx, c.Id)
		assert.True(t, got.Remaining.Equal(dec("10")))
	})

	t.Run("should surface storage failures", func(t *testing.T) {
		defer setup(t)()
		repoStub.Err = database.ErrStorageUnavailable

		_, err := service.DeductFromCategory(ctx, 1, dec("1"))

		assert.ErrorIs(t, err, database.ErrStorageUnavailable)
	})
}
