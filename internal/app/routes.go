package app

import (
	"net/http"

	"github.com/budgetmate/budgetmate/internal/rest"
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Health
	r.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		rest.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	// API docs
	registerDocs(r, deps.DocsPath)

	// User management
	r.HandleFunc("/api/user/current", deps.UserHandler.CurrentUser).Methods("GET")
	r.HandleFunc("/api/user", deps.UserHandler.CreateUser).Methods("POST")

	// Categories
	r.HandleFunc("/api/category", deps.CategoryHandler.ListCategories).Methods("GET")
	r.HandleFunc("/api/category", deps.CategoryHandler.CreateCategory).Methods("POST")
	r.HandleFunc("/api/category/{categoryId}", deps.CategoryHandler.GetCategory).Methods("GET")
	r.HandleFunc("/api/category/{categoryId}", deps.CategoryHandler.UpdateCategory).Methods("PUT")
	r.HandleFunc("/api/category/{categoryId}", deps.CategoryHandler.DeleteCategory).Methods("DELETE")
	r.HandleFunc("/api/category/{categoryId}/deduct", deps.CategoryHandler.DeductFromCategory).Methods("POST")

	// Transactions
	r.HandleFunc("/api/transaction", deps.TransactionHandler.ListTransactions).Methods("GET")
	r.HandleFunc("/api/transaction", deps.TransactionHandler.CreateTransaction).Methods("POST")
	r.HandleFunc("/api/transaction/{transactionId}", deps.TransactionHandler.GetTransaction).Methods("GET")
	r.HandleFunc("/api/transaction/{transactionId}", deps.TransactionHandler.UpdateTransaction).Methods("PUT")
	r.HandleFunc("/api/transaction/{transactionId}", deps.TransactionHandler.DeleteTransaction).Methods("DELETE")

	// Reports
	r.HandleFunc("/api/report/totals", deps.ReportHandler.GetTotals).Methods("GET")
	r.HandleFunc("/api/report/categories", deps.ReportHandler.GetCategoryReport).Methods("GET")
}
