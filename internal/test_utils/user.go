package test_utils

import (
	"context"
	"testing"

	"github.com/budgetmate/budgetmate/pkg/user"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TestUser is the identity used by service and handler tests that do not touch the database.
var TestUser = user.User{
	Id:          123,
	Uid:         "6f1c1f4e-5d1a-4c47-9a4b-3d2f0c6d7e11",
	Username:    "test_user",
	DisplayName: "Test User",
	Settings: user.Settings{
		Timezone: "Europe/Warsaw",
	},
}

// ContextWithUser returns a background context carrying the given user id.
func ContextWithUser(userId int) context.Context {
	u := TestUser
	u.Id = userId
	return user.WithUser(context.Background(), u)
}

// CreateUser inserts a user row and returns a context carrying it.
func CreateUser(t *testing.T, db *pgxpool.Pool, username string) (context.Context, user.User) {
	t.Helper()
	u := user.User{
		Uid:         uuid.NewString(),
		Username:    username,
		DisplayName: username,
		Settings:    user.Settings{Timezone: "UTC"},
	}
	id, err := user.NewUserRepo(db, 0).CreateUser(context.Background(), u)
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	u.Id = id
	return user.WithUser(context.Background(), u), u
}
