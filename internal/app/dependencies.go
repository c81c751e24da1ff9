package app

import (
	"github.com/budgetmate/budgetmate/internal/config"
	"github.com/budgetmate/budgetmate/internal/event_bus"
	"github.com/budgetmate/budgetmate/internal/notify"
	"github.com/budgetmate/budgetmate/internal/utils"
	"github.com/budgetmate/budgetmate/pkg/accounting"
	"github.com/budgetmate/budgetmate/pkg/category"
	"github.com/budgetmate/budgetmate/pkg/report"
	"github.com/budgetmate/budgetmate/pkg/transaction"
	"github.com/budgetmate/budgetmate/pkg/user"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock    utils.Clock
	EventBus *event_bus.EventBus
	Locks    *accounting.Locks
	Notifier *notify.Notifier

	UserRepo    user.Repo
	UserService user.Service
	UserHandler *user.Handler

	CategoryRepo    category.Repository
	CategoryService category.Service
	CategoryHandler *category.Handler

	TransactionRepo    transaction.Repository
	TransactionService transaction.Service
	TransactionHandler *transaction.Handler

	Guard *accounting.Guard

	ReportService report.Service
	CsvRenderer   report.Renderer
	ReportHandler *report.Handler

	Unsubscribe func()

	DocsPath string
}

// Repositories groups the storage implementations so tests can swap in stubs.
type Repositories struct {
	Users        user.Repo
	Categories   category.Repository
	Transactions transaction.Repository
}

// BuildDependencies initializes and wires all application services and handlers on Postgres.
func BuildDependencies(db *pgxpool.Pool, publisher notify.Publisher, cfg config.Application) *Dependencies {
	timeout := cfg.Database.QueryTimeout
	return WireDependencies(Repositories{
		Users:        user.NewUserRepo(db, timeout),
		Categories:   category.NewRepository(db, timeout),
		Transactions: transaction.NewRepository(db, timeout),
	}, publisher, &utils.SystemClock{}, cfg)
}

func WireDependencies(repos Repositories, publisher notify.Publisher, clock utils.Clock, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.Clock = clock
	deps.DocsPath = cfg.Server.DocsPath
	deps.EventBus = event_bus.NewEventBus()
	deps.Locks = accounting.NewLocks()

	deps.UserRepo = repos.Users
	deps.UserService = user.NewUserService(deps.UserRepo)
	deps.UserHandler = user.NewHandler(deps.UserService)

	deps.CategoryRepo = repos.Categories
	deps.TransactionRepo = repos.Transactions

	deps.CategoryService = category.NewService(deps.CategoryRepo, deps.TransactionRepo, deps.Locks)
	deps.CategoryHandler = category.NewHandler(deps.CategoryService)

	deps.Guard = accounting.NewGuard(category.NewBudgetSource(deps.CategoryRepo), deps.TransactionRepo, deps.Clock, cfg.Accounting)
	deps.TransactionService = transaction.NewService(
		deps.TransactionRepo,
		deps.CategoryRepo,
		deps.Guard,
		deps.Locks,
		deps.EventBus,
		deps.Clock,
		cfg.Accounting,
	)
	deps.TransactionHandler = transaction.NewHandler(deps.TransactionService)

	deps.ReportService = report.NewService(deps.CategoryRepo, deps.TransactionRepo, deps.Clock)
	deps.CsvRenderer = report.NewCsvRenderer()
	deps.ReportHandler = report.NewHandler(deps.ReportService, deps.CsvRenderer)

	deps.Notifier = notify.NewNotifier(publisher, cfg.Notify.Threshold, deps.Clock)
	deps.Unsubscribe = deps.Notifier.Subscribe(deps.EventBus)

	return deps
}
