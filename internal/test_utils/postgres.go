package test_utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/budgetmate/budgetmate/internal/config"
	"github.com/budgetmate/budgetmate/internal/database"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	dbName     = "budgetmate"
	dbUser     = "test_budgetmate"
	dbPassword = "test_budgetmate"
)

var (
	containerOnce sync.Once
	sharedPool    *pgxpool.Pool
	sharedConfig  config.Database
	containerErr  error
)

func preparePostgresContainer(ctx context.Context) (*postgres.PostgresContainer, error) {
	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %v", err)
	}

	pgContainer, err := postgres.Run(
		ctx, "postgres:18.1-alpine",
		postgres.WithInitScripts(filepath.Join(projectRoot, "dev", "init.sql")),
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Printf("failed to start container: %s", err)
		return nil, err
	}
	return pgContainer, nil
}

// TestWithDB returns a connection pool to a migrated Postgres instance shared by the whole test
// binary. Tables are truncated before returning. The test is skipped when Docker is unavailable.
func TestWithDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	containerOnce.Do(func() {
		ctx := context.Background()
		container, err := preparePostgresContainer(ctx)
		if err != nil {
			containerErr = err
			return
		}

		host, _ := container.Host(ctx)
		port, _ := container.MappedPort(ctx, "5432/tcp")
		log.Infof("Postgres container started at %s:%d", host, port.Int())

		sharedConfig = config.Database{
			Host:         host,
			Port:         port.Int(),
			User:         dbUser,
			Pass:         dbPassword,
			Name:         dbName,
			Schema:       "budgetmate",
			MaxConns:     10,
			QueryTimeout: 5 * time.Second,
		}

		if err := database.Migrate(sharedConfig); err != nil {
			containerErr = fmt.Errorf("failed to apply migrations: %w", err)
			return
		}
		sharedPool, containerErr = database.Open(ctx, sharedConfig)
	})
	if containerErr != nil {
		t.Fatalf("postgres test container unavailable: %v", containerErr)
	}

	_, err := sharedPool.Exec(context.Background(), `TRUNCATE transactions, categories, users RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("failed to clean database: %v", err)
	}
	return sharedPool
}

// findProjectRoot attempts to locate the project root directory
// It looks for .git directory or go.mod file
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if fileExists(filepath.Join(dir, ".git")) || fileExists(filepath.Join(dir, "go.mod")) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find project root")
		}
		dir = parent
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
