package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/budgetmate/budgetmate/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrUsernameTaken = fmt.Errorf("%w: username already taken", ErrUserDataInvalid)

type Repo interface {
	CreateUser(ctx context.Context, user User) (int, error)
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
}

type UserRepoImpl struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewUserRepo(db *pgxpool.Pool, timeout time.Duration) *UserRepoImpl {
	return &UserRepoImpl{db: db, timeout: timeout}
}

func (u *UserRepoImpl) CreateUser(ctx context.Context, user User) (int, error) {
	ctx, cancel := database.WithTimeout(ctx, u.timeout)
	defer cancel()

	timezone := user.Settings.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	query := `INSERT INTO users (uid, username, display_name, timezone) VALUES ($1, $2, $3, $4) RETURNING id`
	var id int
	err := u.db.QueryRow(ctx, query, user.Uid, user.Username, user.DisplayName, timezone).Scan(&id)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return 0, ErrUsernameTaken
		}
		log.Errorf("failed to create user: %v", err)
		return 0, database.Classify(err)
	}
	return id, nil
}

func (u *UserRepoImpl) GetUser(ctx context.Context, id int) (User, error) {
	return u.getUserBy(ctx, "id", id)
}

func (u *UserRepoImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	return u.getUserBy(ctx, "uid", uid)
}

func (u *UserRepoImpl) getUserBy(ctx context.Context, column string, value any) (User, error) {
	ctx, cancel := database.WithTimeout(ctx, u.timeout)
	defer cancel()

	query := `SELECT id, uid, username, display_name, timezone FROM users WHERE ` + column + ` = $1`
	var user User
	err := u.db.QueryRow(ctx, query, value).
		Scan(&user.Id, &user.Uid, &user.Username, &user.DisplayName, &user.Settings.Timezone)
	if errors.Is(err, pgx.ErrNoRows) {
		log.Debugf("user with %s %v not found", column, value)
		return User{}, ErrUserNotFound
	} else if err != nil {
		log.Errorf("failed to get user: %v", err)
		return User{}, database.Classify(err)
	}
	return user, nil
}
