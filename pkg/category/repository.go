package category

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/budgetmate/budgetmate/internal/database"
	"github.com/budgetmate/budgetmate/pkg/accounting"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const foreignKeyViolation = "23503"

type Repository interface {
	ListCategories(ctx context.Context, userId int) ([]Category, error)
	GetCategory(ctx context.Context, userId int, categoryId int) (Category, error)
	CreateCategory(ctx context.Context, userId int, category Category) (Category, error)
	// UpdateCategory applies the patch and shifts remaining by the budget delta, clamped at zero.
	UpdateCategory(ctx context.Context, userId int, categoryId int, patch CategoryPatch) (Category, error)
	DeleteCategory(ctx context.Context, userId int, categoryId int) error
	// Deduct lowers remaining by amount only while remaining covers it.
	Deduct(ctx context.Context, userId int, categoryId int, amount decimal.Decimal) (Category, error)
}

type RepositoryImpl struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewRepository(db *pgxpool.Pool, timeout time.Duration) *RepositoryImpl {
	return &RepositoryImpl{db: db, timeout: timeout}
}

const categoryColumns = `id, name, budget, remaining, created, updated`

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.Id, &c.Name, &c.Budget, &c.Remaining, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *RepositoryImpl) ListCategories(ctx context.Context, userId int) ([]Category, error) {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = $1 ORDER BY lower(name), id`
	rows, err := r.db.Query(ctx, query, userId)
	if err != nil {
		log.Errorf("could not query categories: %v", err)
		return nil, database.Classify(err)
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			log.Errorf("error scanning category row: %v", err)
			return nil, database.Classify(err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		log.Errorf("error iterating over category rows: %v", err)
		return nil, database.Classify(err)
	}
	return categories, nil
}

func (r *RepositoryImpl) GetCategory(ctx context.Context, userId int, categoryId int) (Category, error) {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = $1 AND id = $2`
	c, err := scanCategory(r.db.QueryRow(ctx, query, userId, categoryId))
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, ErrCategoryNotFound
	}
	if err != nil {
		log.Errorf("could not get category %d: %v", categoryId, err)
		return Category{}, database.Classify(err)
	}
	return c, nil
}

func (r *RepositoryImpl) CreateCategory(ctx context.Context, userId int, category Category) (Category, error) {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `INSERT INTO categories (user_id, name, budget, remaining)
			  VALUES ($1, $2, $3, $4)
			  RETURNING ` + categoryColumns
	created, err := scanCategory(r.db.QueryRow(ctx, query, userId, category.Name, category.Budget, category.Remaining))
	if err != nil {
		if database.IsUniqueViolation(err, "categories_user_name_key") {
			return Category{}, ErrDuplicateName
		}
		log.Errorf("could not create category: %v", err)
		return Category{}, database.Classify(err)
	}
	return created, nil
}

func (r *RepositoryImpl) UpdateCategory(ctx context.Context, userId int, categoryId int, patch CategoryPatch) (Category, error) {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	// SET expressions see the row as it was before the update.
	query := `UPDATE categories
			  SET name      = COALESCE($3, name),
			      budget    = COALESCE($4, budget),
			      remaining = GREATEST(remaining + (COALESCE($4, budget) - budget), 0),
			      updated   = now()
			  WHERE user_id = $1 AND id = $2
			  RETURNING ` + categoryColumns
	updated, err := scanCategory(r.db.QueryRow(ctx, query, userId, categoryId, patch.Name, patch.Budget))
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, ErrCategoryNotFound
	}
	if err != nil {
		if database.IsUniqueViolation(err, "categories_user_name_key") {
			return Category{}, ErrDuplicateName
		}
		log.Errorf("could not update category %d: %v", categoryId, err)
		return Category{}, database.Classify(err)
	}
	return updated, nil
}

func (r *RepositoryImpl) DeleteCategory(ctx context.Context, userId int, categoryId int) error {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.db.Exec(ctx, `DELETE FROM categories WHERE user_id = $1 AND id = $2`, userId, categoryId)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return ErrCategoryInUse
		}
		log.Errorf("could not delete category %d: %v", categoryId, err)
		return database.Classify(err)
	}
	if result.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (r *RepositoryImpl) Deduct(ctx context.Context, userId int, categoryId int, amount decimal.Decimal) (Category, error) {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `UPDATE categories
			  SET remaining = remaining - $3, updated = now()
			  WHERE user_id = $1 AND id = $2 AND remaining >= $3
			  RETURNING ` + categoryColumns
	updated, err := scanCategory(r.db.QueryRow(ctx, query, userId, categoryId, amount))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetCategory(ctx, userId, categoryId); getErr != nil {
			return Category{}, getErr
		}
		return Category{}, ErrInsufficientFunds
	}
	if err != nil {
		log.Errorf("could not deduct from category %d: %v", categoryId, err)
		return Category{}, database.Classify(err)
	}
	return updated, nil
}

// BudgetSource exposes category budgets to the accounting guard.
type BudgetSource struct {
	repo Repository
}

func NewBudgetSource(repo Repository) *BudgetSource {
	return &BudgetSource{repo: repo}
}

func (s *BudgetSource) CategoryBudget(ctx context.Context, userId int, categoryId int) (accounting.CategoryBudget, error) {
	c, err := s.repo.GetCategory(ctx, userId, categoryId)
	if err != nil {
		return accounting.CategoryBudget{}, fmt.Errorf("failed to read category budget: %w", err)
	}
	return accounting.CategoryBudget{Id: c.Id, Name: c.Name, Budget: c.Budget}, nil
}
