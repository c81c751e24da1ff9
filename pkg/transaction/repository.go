package transaction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/budgetmate/budgetmate/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const foreignKeyViolation = "23503"

type Repository interface {
	ListTransactions(ctx context.Context, userId int, filter Filter) ([]Transaction, error)
	GetTransaction(ctx context.Context, userId int, transactionId int) (Transaction, error)
	CreateTransaction(ctx context.Context, userId int, transaction Transaction) (Transaction, error)
	UpdateTransaction(ctx context.Context, userId int, transaction Transaction) (Transaction, error)
	DeleteTransaction(ctx context.Context, userId int, transactionId int) error
	SumExpenses(ctx context.Context, userId int, categoryId int, from, to time.Time, excludeId *int) (decimal.Decimal, error)
	HasTransactions(ctx context.Context, userId int, categoryId int) (bool, error)
}

type RepositoryImpl struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewRepository(db *pgxpool.Pool, timeout time.Duration) *RepositoryImpl {
	return &RepositoryImpl{db: db, timeout: timeout}
}

const transactionColumns = `id, description, amount, category_id, date, notes, created, updated`

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.Id, &t.Description, &t.Amount, &t.CategoryId, &t.Date, &t.Notes, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *RepositoryImpl) ListTransactions(ctx context.Context, userId int, filter Filter) ([]Transaction, error) {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	conditions := []string{"user_id = $1"}
	args := []any{userId}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("date < $%d", len(args)))
	}
	if filter.CategoryId != nil {
		args = append(args, *filter.CategoryId)
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", len(args)))
	}
	switch filter.Type {
	case TypeIncome:
		conditions = append(conditions, "amount > 0")
	case TypeExpense:
		conditions = append(conditions, "amount < 0")
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY date DESC, id DESC`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		log.Errorf("could not query transactions: %v", err)
		return nil, database.Classify(err)
	}
	defer rows.Close()

	transactions := make([]Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			log.Errorf("error scanning transaction row: %v", err)
			return nil, database.Classify(err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		log.Errorf("error iterating over transaction rows: %v", err)
		return nil, database.Classify(err)
	}
	return transactions, nil
}

func (r *RepositoryImpl) GetTransaction(ctx context.Context, userId int, transactionId int) (Transaction, error) {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1 AND id = $2`
	t, err := scanTransaction(r.db.QueryRow(ctx, query, userId, transactionId))
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrTransactionNotFound
	}
	if err != nil {
		log.Errorf("could not get transaction %d: %v", transactionId, err)
		return Transaction{}, database.Classify(err)
	}
	return t, nil
}

func (r *RepositoryImpl) CreateTransaction(ctx context.Context, userId int, transaction Transaction) (Transaction, error) {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `INSERT INTO transactions (user_id, description, amount, category_id, date, notes)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING ` + transactionColumns
	created, err := scanTransaction(r.db.QueryRow(ctx, query,
		userId,
		transaction.Description,
		transaction.Amount,
		transaction.CategoryId,
		transaction.Date,
		transaction.Notes,
	))
	if err != nil {
		if isForeignKeyViolation(err) {
			return Transaction{}, ErrCategoryNotFound
		}
		log.Errorf("could not create transaction: %v", err)
		return Transaction{}, database.Classify(err)
	}
	return created, nil
}

func (r *RepositoryImpl) UpdateTransaction(ctx context.Context, userId int, transaction Transaction) (Transaction, error) {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `UPDATE transactions
			  SET description = $3, amount = $4, category_id = $5, date = $6, notes = $7, updated = now()
			  WHERE user_id = $1 AND id = $2
			  RETURNING ` + transactionColumns
	updated, err := scanTransaction(r.db.QueryRow(ctx, query,
		userId,
		transaction.Id,
		transaction.Description,
		transaction.Amount,
		transaction.CategoryId,
		transaction.Date,
		transaction.Notes,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrTransactionNotFound
	}
	if err != nil {
		if isForeignKeyViolation(err) {
			return Transaction{}, ErrCategoryNotFound
		}
		log.Errorf("could not update transaction %d: %v", transaction.Id, err)
		return Transaction{}, database.Classify(err)
	}
	return updated, nil
}

func (r *RepositoryImpl) DeleteTransaction(ctx context.Context, userId int, transactionId int) error {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.db.Exec(ctx, `DELETE FROM transactions WHERE user_id = $1 AND id = $2`, userId, transactionId)
	if err != nil {
		log.Errorf("could not delete transaction %d: %v", transactionId, err)
		return database.Classify(err)
	}
	if result.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (r *RepositoryImpl) SumExpenses(ctx context.Context, userId int, categoryId int, from, to time.Time, excludeId *int) (decimal.Decimal, error) {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT COALESCE(SUM(-amount), 0)
			  FROM transactions
			  WHERE user_id = $1 AND category_id = $2 AND amount < 0
			    AND date >= $3 AND date < $4
			    AND ($5::integer IS NULL OR id <> $5)`
	var sum decimal.Decimal
	if err := r.db.QueryRow(ctx, query, userId, categoryId, from, to, excludeId).Scan(&sum); err != nil {
		log.Errorf("could not sum expenses of category %d: %v", categoryId, err)
		return decimal.Zero, database.Classify(err)
	}
	return sum, nil
}

func (r *RepositoryImpl) HasTransactions(ctx context.Context, userId int, categoryId int) (bool, error) {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM transactions WHERE user_id = $1 AND category_id = $2)`
	if err := r.db.QueryRow(ctx, query, userId, categoryId).Scan(&exists); err != nil {
		log.Errorf("could not check usage of category %d: %v", categoryId, err)
		return false, database.Classify(err)
	}
	return exists, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}
