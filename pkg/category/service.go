package category

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/budgetmate/budgetmate/pkg/accounting"
	"github.com/budgetmate/budgetmate/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// UsageChecker tells whether any transaction references a category.
type UsageChecker interface {
	HasTransactions(ctx context.Context, userId int, categoryId int) (bool, error)
}

type Service interface {
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, categoryId int) (Category, error)
	CreateCategory(ctx context.Context, name string, budget decimal.Decimal) (Category, error)
	UpdateCategory(ctx context.Context, categoryId int, patch CategoryPatch) (Category, error)
	DeleteCategory(ctx context.Context, categoryId int) error
	DeductFromCategory(ctx context.Context, categoryId int, amount decimal.Decimal) (Category, error)
}

type ServiceImpl struct {
	repo  Repository
	usage UsageChecker
	locks *accounting.Locks
}

func NewService(repo Repository, usage UsageChecker, locks *accounting.Locks) *ServiceImpl {
	return &ServiceImpl{repo: repo, usage: usage, locks: locks}
}

func (s *ServiceImpl) ListCategories(ctx context.Context) ([]Category, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.ListCategories(ctx, userId)
}

func (s *ServiceImpl) GetCategory(ctx context.Context, categoryId int) (Category, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Category{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.GetCategory(ctx, userId, categoryId)
}

// CreateCategory stores a new category whose envelope starts full.
func (s *ServiceImpl) CreateCategory(ctx context.Context, name string, budget decimal.Decimal) (Category, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Category{}, fmt.Errorf("failed to get current user: %w", err)
	}

	name, err = validateName(name)
	if err != nil {
		return Category{}, err
	}
	if err := validateBudget(budget); err != nil {
		return Category{}, err
	}

	return s.repo.CreateCategory(ctx, userId, Category{Name: name, Budget: budget, Remaining: budget})
}

// UpdateCategory renames and/or rebudgets a category. A budget change moves remaining by the
// same delta; a remaining that would go negative is clamped to zero.
func (s *ServiceImpl) UpdateCategory(ctx context.Context, categoryId int, patch CategoryPatch) (Category, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Category{}, fmt.Errorf("failed to get current user: %w", err)
	}

	if patch.Name != nil {
		name, err := validateName(*patch.Name)
		if err != nil {
			return Category{}, err
		}
		patch.Name = &name
	}
	if patch.Budget != nil {
		if err := validateBudget(*patch.Budget); err != nil {
			return Category{}, err
		}
	}

	unlock := s.locks.Lock(userId, categoryId)
	defer unlock()

	return s.repo.UpdateCategory(ctx, userId, categoryId, patch)
}

// DeleteCategory removes a category no transaction references.
func (s *ServiceImpl) DeleteCategory(ctx context.Context, categoryId int) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}

	unlock := s.locks.Lock(userId, categoryId)
	defer unlock()

	if _, err := s.repo.GetCategory(ctx, userId, categoryId); err != nil {
		return err
	}
	inUse, err := s.usage.HasTransactions(ctx, userId, categoryId)
	if err != nil {
		return fmt.Errorf("failed to check category usage: %w", err)
	}
	if inUse {
		log.Debugf("refusing to delete category %d referenced by transactions", categoryId)
		return ErrCategoryInUse
	}
	return s.repo.DeleteCategory(ctx, userId, categoryId)
}

// DeductFromCategory consumes amount from the category envelope.
func (s *ServiceImpl) DeductFromCategory(ctx context.Context, categoryId int, amount decimal.Decimal) (Category, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Category{}, fmt.Errorf("failed to get current user: %w", err)
	}

	if !amount.IsPositive() || !accounting.IsMoney(amount) {
		return Category{}, fmt.Errorf("%w: amount must be a positive value with at most two decimal places", ErrInvalidCategory)
	}

	unlock := s.locks.Lock(userId, categoryId)
	defer unlock()

	return s.repo.Deduct(ctx, userId, categoryId, amount)
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalidCategory)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", fmt.Errorf("%w: name must be at most %d characters", ErrInvalidCategory, MaxNameLength)
	}
	return name, nil
}

func validateBudget(budget decimal.Decimal) error {
	if budget.IsNegative() {
		return fmt.Errorf("%w: budget must not be negative", ErrInvalidCategory)
	}
	if !accounting.IsMoney(budget) {
		return fmt.Errorf("%w: budget must have at most two decimal places", ErrInvalidCategory)
	}
	return nil
}
