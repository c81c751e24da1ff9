package transaction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/budgetmate/budgetmate/internal/config"
	"github.com/budgetmate/budgetmate/internal/event_bus"
	"github.com/budgetmate/budgetmate/internal/utils"
	"github.com/budgetmate/budgetmate/pkg/accounting"
	"github.com/budgetmate/budgetmate/pkg/category"
	"github.com/budgetmate/budgetmate/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type CategoryReader interface {
	GetCategory(ctx context.Context, userId int, categoryId int) (category.Category, error)
}

type BudgetGuard interface {
	WillExceedBudget(ctx context.Context, userId int, categoryId *int, newAmount decimal.Decimal, at time.Time, excludeId *int) (accounting.Verdict, error)
}

type Service interface {
	ListTransactions(ctx context.Context, filter Filter) ([]Transaction, error)
	GetTransaction(ctx context.Context, transactionId int) (Transaction, error)
	CreateTransaction(ctx context.Context, newTransaction NewTransaction) (Transaction, error)
	UpdateTransaction(ctx context.Context, transactionId int, patch TransactionPatch) (Transaction, error)
	DeleteTransaction(ctx context.Context, transactionId int) error
}

type ServiceImpl struct {
	repo                   Repository
	categories             CategoryReader
	guard                  BudgetGuard
	locks                  *accounting.Locks
	eventBus               *event_bus.EventBus
	clock                  utils.Clock
	requireExpenseCategory bool
}

func NewService(
	repo Repository,
	categories CategoryReader,
	guard BudgetGuard,
	locks *accounting.Locks,
	eventBus *event_bus.EventBus,
	clock utils.Clock,
	cfg config.Accounting,
) *ServiceImpl {
	return &ServiceImpl{
		repo:                   repo,
		categories:             categories,
		guard:                  guard,
		locks:                  locks,
		eventBus:               eventBus,
		clock:                  clock,
		requireExpenseCategory: cfg.RequireExpenseCategory,
	}
}

func (s *ServiceImpl) ListTransactions(ctx context.Context, filter Filter) ([]Transaction, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, fmt.Errorf("%w: from must be before to", ErrInvalidTransaction)
	}
	return s.repo.ListTransactions(ctx, userId, filter)
}

func (s *ServiceImpl) GetTransaction(ctx context.Context, transactionId int) (Transaction, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.GetTransaction(ctx, userId, transactionId)
}

// CreateTransaction validates and stores a transaction. Expenses in a budgeted category are
// checked against the month budget first; a rejected write stores nothing.
func (s *ServiceImpl) CreateTransaction(ctx context.Context, newTransaction NewTransaction) (Transaction, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to get current user: %w", err)
	}

	t := Transaction{
		Description: newTransaction.Description,
		Amount:      newTransaction.Amount,
		CategoryId:  newTransaction.CategoryId,
		Notes:       newTransaction.Notes,
	}
	if newTransaction.Date != nil {
		t.Date = *newTransaction.Date
	} else {
		t.Date = s.clock.Now()
	}
	if t, err = s.validate(t); err != nil {
		return Transaction{}, err
	}

	unlock := s.locks.LockOptional(userId, t.CategoryId)
	created, verdict, err := s.guardedWrite(ctx, userId, t, nil, func() (Transaction, error) {
		return s.repo.CreateTransaction(ctx, userId, t)
	})
	unlock()
	if verdict.Exceeded {
		s.publishExceeded(ctx, userId, verdict)
	}
	if err != nil {
		return Transaction{}, err
	}

	s.publish(ctx, event_bus.TransactionCreated, userId, created, verdict)
	return created, nil
}

// UpdateTransaction merges the patch into the stored transaction and re-runs the budget check
// without counting the transaction's previous amount.
func (s *ServiceImpl) UpdateTransaction(ctx context.Context, transactionId int, patch TransactionPatch) (Transaction, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to get current user: %w", err)
	}

	for attempt := 1; ; attempt++ {
		existing, err := s.repo.GetTransaction(ctx, userId, transactionId)
		if err != nil {
			return Transaction{}, err
		}
		t, err := s.validate(applyPatch(existing, patch))
		if err != nil {
			return Transaction{}, err
		}

		unlock := s.locks.LockPair(userId, existing.CategoryId, t.CategoryId)
		current, err := s.repo.GetTransaction(ctx, userId, transactionId)
		if err != nil {
			unlock()
			return Transaction{}, err
		}
		if !sameCategory(current.CategoryId, existing.CategoryId) {
			// moved by another writer after the first read; the held locks are for the wrong pair
			unlock()
			if attempt == maxUpdateAttempts {
				return Transaction{}, fmt.Errorf("transaction %d kept moving between categories", transactionId)
			}
			continue
		}
		if t, err = s.validate(applyPatch(current, patch)); err != nil {
			unlock()
			return Transaction{}, err
		}

		updated, verdict, err := s.guardedWrite(ctx, userId, t, &transactionId, func() (Transaction, error) {
			return s.repo.UpdateTransaction(ctx, userId, t)
		})
		unlock()
		if verdict.Exceeded {
			s.publishExceeded(ctx, userId, verdict)
		}
		if err != nil {
			return Transaction{}, err
		}

		s.publish(ctx, event_bus.TransactionUpdated, userId, updated, verdict)
		return updated, nil
	}
}

const maxUpdateAttempts = 3

func applyPatch(t Transaction, patch TransactionPatch) Transaction {
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Amount != nil {
		t.Amount = *patch.Amount
	}
	if patch.ClearCategory {
		t.CategoryId = nil
	} else if patch.CategoryId != nil {
		t.CategoryId = patch.CategoryId
	}
	if patch.Date != nil {
		t.Date = *patch.Date
	}
	if patch.Notes != nil {
		t.Notes = *patch.Notes
	}
	return t
}

func sameCategory(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *ServiceImpl) DeleteTransaction(ctx context.Context, transactionId int) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}

	existing, err := s.repo.GetTransaction(ctx, userId, transactionId)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteTransaction(ctx, userId, transactionId); err != nil {
		return err
	}

	s.publish(ctx, event_bus.TransactionDeleted, userId, existing, accounting.Verdict{})
	return nil
}

// guardedWrite resolves the category, runs the budget check and performs write when it passes.
// The caller holds the category lock.
func (s *ServiceImpl) guardedWrite(
	ctx context.Context,
	userId int,
	t Transaction,
	excludeId *int,
	write func() (Transaction, error),
) (Transaction, accounting.Verdict, error) {
	if t.CategoryId != nil {
		if _, err := s.categories.GetCategory(ctx, userId, *t.CategoryId); err != nil {
			if errors.Is(err, category.ErrCategoryNotFound) {
				return Transaction{}, accounting.Verdict{}, fmt.Errorf("%w: %d", ErrCategoryNotFound, *t.CategoryId)
			}
			return Transaction{}, accounting.Verdict{}, err
		}
	}

	verdict, err := s.guard.WillExceedBudget(ctx, userId, t.CategoryId, t.Amount, t.Date, excludeId)
	if err != nil {
		return Transaction{}, accounting.Verdict{}, err
	}
	if verdict.Exceeded {
		log.Warnf("rejecting expense of %s for user %d: %v", t.Amount.Abs(), userId, verdict.Err())
		return Transaction{}, verdict, verdict.Err()
	}

	written, err := write()
	if err != nil {
		return Transaction{}, accounting.Verdict{}, err
	}
	return written, verdict, nil
}

func (s *ServiceImpl) validate(t Transaction) (Transaction, error) {
	t.Description = strings.TrimSpace(t.Description)
	t.Notes = strings.TrimSpace(t.Notes)
	switch {
	case t.Description == "":
		return t, fmt.Errorf("%w: description is required", ErrInvalidTransaction)
	case utf8.RuneCountInString(t.Description) > MaxDescriptionLength:
		return t, fmt.Errorf("%w: description must be at most %d characters", ErrInvalidTransaction, MaxDescriptionLength)
	case utf8.RuneCountInString(t.Notes) > MaxNotesLength:
		return t, fmt.Errorf("%w: notes must be at most %d characters", ErrInvalidTransaction, MaxNotesLength)
	case t.Amount.IsZero():
		return t, fmt.Errorf("%w: amount must not be zero", ErrInvalidTransaction)
	case !accounting.IsMoney(t.Amount):
		return t, fmt.Errorf("%w: amount must have at most two decimal places", ErrInvalidTransaction)
	case t.Date.IsZero():
		return t, fmt.Errorf("%w: date is required", ErrInvalidTransaction)
	case t.CategoryId != nil && *t.CategoryId <= 0:
		return t, fmt.Errorf("%w: invalid category id", ErrInvalidTransaction)
	case s.requireExpenseCategory && t.Type() == TypeExpense && t.CategoryId == nil:
		return t, fmt.Errorf("%w: expenses require a category", ErrInvalidTransaction)
	}
	t.Amount = t.Amount.Round(2)
	return t, nil
}

func (s *ServiceImpl) publish(ctx context.Context, eventType event_bus.EventType, userId int, t Transaction, verdict accounting.Verdict) {
	payload := event_bus.TransactionChanged{
		UserId:        userId,
		TransactionId: t.Id,
		CategoryId:    t.CategoryId,
		Amount:        t.Amount,
		Date:          t.Date,
	}
	if verdict.Guarded {
		payload.Budget = &event_bus.BudgetFigures{
			CategoryId:   verdict.CategoryId,
			CategoryName: verdict.CategoryName,
			Budget:       verdict.Budget,
			Spent:        verdict.WouldBecome,
		}
	}
	if err := s.eventBus.Publish(event_bus.NewEvent(ctx, eventType, payload)); err != nil {
		log.Warnf("failed to publish %s for transaction %d: %v", eventType, t.Id, err)
	}
}

func (s *ServiceImpl) publishExceeded(ctx context.Context, userId int, verdict accounting.Verdict) {
	payload := event_bus.BudgetExceededAttempt{
		UserId:       userId,
		CategoryId:   verdict.CategoryId,
		CategoryName: verdict.CategoryName,
		Budget:       verdict.Budget,
		AlreadySpent: verdict.AlreadySpent,
		WouldBecome:  verdict.WouldBecome,
	}
	if err := s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.BudgetExceeded, payload)); err != nil {
		log.Warnf("failed to publish %s for category %d: %v", event_bus.BudgetExceeded, verdict.CategoryId, err)
	}
}
