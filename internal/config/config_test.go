package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("should use defaults when the file does not exist", func(t *testing.T) {
		// when
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		// then
		require.NoError(t, err)
		assert.Equal(t, ":8181", cfg.Server.Addr)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, 5*time.Second, cfg.Database.QueryTimeout)
		assert.True(t, cfg.Accounting.GuardEnabled)
		assert.Equal(t, GuardWindowTransaction, cfg.Accounting.GuardWindow)
		assert.Equal(t, 80, cfg.Notify.Threshold)
		assert.False(t, cfg.Notify.Amqp.Enabled)
	})

	t.Run("should override defaults with the yaml file", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "application.yaml")
		content := `
db:
  host: db.internal
  name: budgets
accounting:
  guardwindow: now
  requireexpensecategory: false
notify:
  threshold: 90
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		// when
		cfg, err := Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, "budgets", cfg.Database.Name)
		assert.Equal(t, "budgetmate", cfg.Database.User)
		assert.Equal(t, GuardWindowNow, cfg.Accounting.GuardWindow)
		assert.False(t, cfg.Accounting.RequireExpenseCategory)
		assert.Equal(t, 90, cfg.Notify.Threshold)
	})

	t.Run("should override the file with environment variables", func(t *testing.T) {
		// given
		t.Setenv("BUDGETMATE_DB_HOST", "env-host")
		t.Setenv("BUDGETMATE_SERVER_ADDR", ":9000")

		// when
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		// then
		require.NoError(t, err)
		assert.Equal(t, "env-host", cfg.Database.Host)
		assert.Equal(t, ":9000", cfg.Server.Addr)
	})

	t.Run("should reject an unknown guard window", func(t *testing.T) {
		// given
		t.Setenv("BUDGETMATE_ACCOUNTING_GUARDWINDOW", "yesterday")

		// when
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		// then
		assert.ErrorContains(t, err, "invalid accounting.guardwindow")
	})
}
