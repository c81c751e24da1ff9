package transaction

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type StubRepository struct {
	mu     sync.Mutex
	nextId int
	data   map[int]map[int]Transaction
	// Err, when set, is returned by every call.
	Err error
}

func NewStubRepository() *StubRepository {
	return &StubRepository{nextId: 1, data: map[int]map[int]Transaction{}}
}

func (s *StubRepository) ListTransactions(ctx context.Context, userId int, filter Filter) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	result := make([]Transaction, 0)
	for _, t := range s.data[userId] {
		if filter.Matches(t) {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].Id > result[j].Id
	})
	return result, nil
}

func (s *StubRepository) GetTransaction(ctx context.Context, userId int, transactionId int) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return Transaction{}, s.Err
	}
	t, ok := s.data[userId][transactionId]
	if !ok {
		return Transaction{}, ErrTransactionNotFound
	}
	return t, nil
}

func (s *StubRepository) CreateTransaction(ctx context.Context, userId int, transaction Transaction) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return Transaction{}, s.Err
	}
	transaction.Id = s.nextId
	s.nextId++
	transaction.CreatedAt = time.Now()
	transaction.UpdatedAt = transaction.CreatedAt
	if s.data[userId] == nil {
		s.data[userId] = map[int]Transaction{}
	}
	s.data[userId][transaction.Id] = transaction
	return transaction, nil
}

func (s *StubRepository) UpdateTransaction(ctx context.Context, userId int, transaction Transaction) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return Transaction{}, s.Err
	}
	existing, ok := s.data[userId][transaction.Id]
	if !ok {
		return Transaction{}, ErrTransactionNotFound
	}
	transaction.CreatedAt = existing.CreatedAt
	transaction.UpdatedAt = time.Now()
	s.data[userId][transaction.Id] = transaction
	return transaction, nil
}

func (s *StubRepository) DeleteTransaction(ctx context.Context, userId int, transactionId int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.data[userId][transactionId]; !ok {
		return ErrTransactionNotFound
	}
	delete(s.data[userId], transactionId)
	return nil
}

func (s *StubRepository) SumExpenses(ctx context.Context, userId int, categoryId int, from, to time.Time, excludeId *int) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return decimal.Zero, s.Err
	}
	sum := decimal.Zero
	filter := Filter{From: &from, To: &to, CategoryId: &categoryId, Type: TypeExpense}
	for id, t := range s.data[userId] {
		if excludeId != nil && id == *excludeId {
			continue
		}
		if filter.Matches(t) {
			sum = sum.Add(t.Amount.Abs())
		}
	}
	return sum, nil
}

func (s *StubRepository) HasTransactions(ctx context.Context, userId int, categoryId int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	for _, t := range s.data[userId] {
		if t.CategoryId != nil && *t.CategoryId == categoryId {
			return true, nil
		}
	}
	return false, nil
}

func (s *StubRepository) Count(userId int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data[userId])
}

func (s *StubRepository) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextId = 1
	s.data = map[int]map[int]Transaction{}
	s.Err = nil
}
