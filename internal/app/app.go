package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/budgetmate/budgetmate/internal/config"
	"github.com/budgetmate/budgetmate/internal/database"
	"github.com/budgetmate/budgetmate/internal/notify"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// Application wires configuration, database, router, and server lifecycle.
type Application struct {
	cfg       config.Application
	db        *pgxpool.Pool
	publisher notify.Publisher
	deps      *Dependencies
	srv       *http.Server
}

// NewApplication constructs the full HTTP application, ready to Run().
func NewApplication(ctx context.Context, cfg config.Application) (*Application, error) {
	if err := database.Migrate(cfg.Database); err != nil {
		return nil, err
	}
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	publisher, err := newPublisher(cfg.Notify)
	if err != nil {
		db.Close()
		return nil, err
	}

	deps := BuildDependencies(db, publisher, cfg)
	r := NewRouter(deps)

	srv := &http.Server{
		Handler:      r,
		Addr:         cfg.Server.Addr,
		WriteTimeout: cfg.Server.WriteTimeout,
		ReadTimeout:  cfg.Server.ReadTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Application{cfg: cfg, db: db, publisher: publisher, deps: deps, srv: srv}, nil
}

// NewRouter builds the HTTP handler with middleware and all API routes.
func NewRouter(deps *Dependencies) *mux.Router {
	r := mux.NewRouter()
	SetupMiddleware(r, deps)
	RegisterRoutes(r, deps)
	return r
}

func newPublisher(cfg config.Notify) (notify.Publisher, error) {
	if !cfg.Amqp.Enabled {
		log.Info("AMQP disabled, budget alerts go to the log")
		return notify.NewLogPublisher(), nil
	}
	publisher, err := notify.NewAmqpPublisher(cfg.Amqp)
	if err != nil {
		return nil, fmt.Errorf("failed to connect alert publisher: %w", err)
	}
	return publisher, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully and releases resources.
func (a *Application) Run(ctx context.Context) error {
	defer a.close()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", a.srv.Addr)
		errCh <- a.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func (a *Application) close() {
	a.deps.Unsubscribe()
	if err := a.publisher.Close(); err != nil {
		log.Warnf("failed to close alert publisher: %v", err)
	}
	a.db.Close()
}
