package category

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type StubRepository struct {
	mu     sync.Mutex
	nextId int
	data   map[int]map[int]Category
	// Err, when set, is returned by every call.
	Err error
}

func NewStubRepository() *StubRepository {
	return &StubRepository{nextId: 1, data: map[int]map[int]Category{}}
}

func (s *StubRepository) ListCategories(ctx context.Context, userId int) ([]Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	categories := make([]Category, 0)
	for id := 1; id < s.nextId; id++ {
		if c, ok := s.data[userId][id]; ok {
			categories = append(categories, c)
		}
	}
	return categories, nil
}

func (s *StubRepository) GetCategory(ctx context.Context, userId int, categoryId int) (Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return Category{}, s.Err
	}
	c, ok := s.data[userId][categoryId]
	if !ok {
		return Category{}, ErrCategoryNotFound
	}
	return c, nil
}

func (s *StubRepository) CreateCategory(ctx context.Context, userId int, category Category) (Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return Category{}, s.Err
	}
	if s.nameTaken(userId, category.Name, 0) {
		return Category{}, ErrDuplicateName
	}
	category.Id = s.nextId
	category.CreatedAt = time.Now()
	category.UpdatedAt = category.CreatedAt
	s.nextId++
	if s.data[userId] == nil {
		s.data[userId] = map[int]Category{}
	}
	s.data[userId][category.Id] = category
	return category, nil
}

func (s *StubRepository) UpdateCategory(ctx context.Context, userId int, categoryId int, patch CategoryPatch) (Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return Category{}, s.Err
	}
	c, ok := s.data[userId][categoryId]
	if !ok {
		return Category{}, ErrCategoryNotFound
	}
	if patch.Name != nil {
		if s.nameTaken(userId, *patch.Name, categoryId) {
			return Category{}, ErrDuplicateName
		}
		c.Name = *patch.Name
	}
	if patch.Budget != nil {
		c.Remaining = decimal.Max(c.Remaining.Add(patch.Budget.Sub(c.Budget)), decimal.Zero)
		c.Budget = *patch.Budget
	}
	c.UpdatedAt = time.Now()
	s.data[userId][categoryId] = c
	return c, nil
}

func (s *StubRepository) DeleteCategory(ctx context.Context, userId int, categoryId int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.data[userId][categoryId]; !ok {
		return ErrCategoryNotFound
	}
	delete(s.data[userId], categoryId)
	return nil
}

func (s *StubRepository) Deduct(ctx context.Context, userId int, categoryId int, amount decimal.Decimal) (Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return Category{}, s.Err
	}
	c, ok := s.data[userId][categoryId]
	if !ok {
		return Category{}, ErrCategoryNotFound
	}
	if amount.GreaterThan(c.Remaining) {
		return Category{}, ErrInsufficientFunds
	}
	c.Remaining = c.Remaining.Sub(amount)
	s.data[userId][categoryId] = c
	return c, nil
}

func (s *StubRepository) nameTaken(userId int, name string, exceptId int) bool {
	for id, c := range s.data[userId] {
		if id != exceptId && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func (s *StubRepository) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextId = 1
	s.data = map[int]map[int]Category{}
	s.Err = nil
}
