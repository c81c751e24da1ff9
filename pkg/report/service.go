package report

import (
	"context"
	"fmt"

	"github.com/budgetmate/budgetmate/internal/utils"
	"github.com/budgetmate/budgetmate/pkg/category"
	"github.com/budgetmate/budgetmate/pkg/transaction"
	"github.com/budgetmate/budgetmate/pkg/user"
	"golang.org/x/sync/errgroup"
)

type CategoryLister interface {
	ListCategories(ctx context.Context, userId int) ([]category.Category, error)
}

type TransactionLister interface {
	ListTransactions(ctx context.Context, userId int, filter transaction.Filter) ([]transaction.Transaction, error)
}

type Service interface {
	GetTotals(ctx context.Context) (Totals, error)
	GetCategoryReport(ctx context.Context) (CategorySummary, error)
}

// ServiceImpl derives reports from stored data. It never writes.
type ServiceImpl struct {
	categories   CategoryLister
	transactions TransactionLister
	clock        utils.Clock
}

func NewService(categories CategoryLister, transactions TransactionLister, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{categories: categories, transactions: transactions, clock: clock}
}

func (s *ServiceImpl) GetTotals(ctx context.Context) (Totals, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Totals{}, fmt.Errorf("failed to get current user: %w", err)
	}

	transactions, err := s.transactions.ListTransactions(ctx, userId, transaction.Filter{})
	if err != nil {
		return Totals{}, err
	}
	return computeTotals(transactions), nil
}

func (s *ServiceImpl) GetCategoryReport(ctx context.Context) (CategorySummary, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return CategorySummary{}, fmt.Errorf("failed to get current user: %w", err)
	}

	var (
		categories   []category.Category
		transactions []transaction.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		categories, err = s.categories.ListCategories(gctx, currentUser.Id)
		return err
	})
	g.Go(func() error {
		var err error
		transactions, err = s.transactions.ListTransactions(gctx, currentUser.Id, transaction.Filter{Type: transaction.TypeExpense})
		return err
	})
	if err := g.Wait(); err != nil {
		return CategorySummary{}, err
	}

	now := s.clock.Now().In(currentUser.Settings.Location())
	return computeCategorySummary(categories, transactions, now), nil
}
