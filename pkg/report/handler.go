package report

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/budgetmate/budgetmate/internal/database"
	"github.com/budgetmate/budgetmate/internal/rest"
	"github.com/budgetmate/budgetmate/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type TotalsDTO struct {
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Balance  decimal.Decimal `json:"balance"`
}

type CategoryReportDTO struct {
	CategoryId   int              `json:"categoryId"`
	Name         string           `json:"name"`
	Budget       decimal.Decimal  `json:"budget"`
	Spent        decimal.Decimal  `json:"spent"`
	Remaining    decimal.Decimal  `json:"remaining"`
	PercentSpent *decimal.Decimal `json:"percentSpent,omitempty"`
	Status       Status           `json:"status"`
}

type CategorySummaryDTO struct {
	GeneratedAt           time.Time           `json:"generatedAt"`
	PercentOfMonthElapsed decimal.Decimal     `json:"percentOfMonthElapsed"`
	Categories            []CategoryReportDTO `json:"categories"`
	TotalBudget           decimal.Decimal     `json:"totalBudget"`
	TotalSpent            decimal.Decimal     `json:"totalSpent"`
	TotalRemaining        decimal.Decimal     `json:"totalRemaining"`
}

type Handler struct {
	service     Service
	csvRenderer Renderer
}

func NewHandler(service Service, csvRenderer Renderer) *Handler {
	return &Handler{service: service, csvRenderer: csvRenderer}
}

// GetTotals godoc
// @Summary Income, expenses and balance
// @Tags Report
// @Produce json
// @Success 200 {object} TotalsDTO
// @Failure 403 {string} string "User not found"
// @Router /api/report/totals [get]
// @Security XUserId
func (h *Handler) GetTotals(w http.ResponseWriter, r *http.Request) {
	log.Debug("Getting totals report")
	totals, err := h.service.GetTotals(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, TotalsDTO{
		Income:   totals.Income,
		Expenses: totals.Expenses,
		Balance:  totals.Balance,
	})
}

// GetCategoryReport godoc
// @Summary Spend per category
// @Description All-time spend per category with burn-rate status. Send Accept: text/csv for a CSV rendering.
// @Tags Report
// @Produce json
// @Produce text/csv
// @Success 200 {object} CategorySummaryDTO
// @Failure 403 {string} string "User not found"
// @Router /api/report/categories [get]
// @Security XUserId
func (h *Handler) GetCategoryReport(w http.ResponseWriter, r *http.Request) {
	log.Debug("Getting category report")
	summary, err := h.service.GetCategoryReport(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "text/csv") {
		csv, err := h.csvRenderer.RenderCategoryReport(summary)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="category-report.csv"`)
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(csv)); err != nil {
			log.Errorf("failed to write csv report: %v", err)
		}
		return
	}

	rest.WriteJSON(w, http.StatusOK, summaryToDTO(summary))
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNoUser):
		rest.WriteError(w, http.StatusForbidden, "User not found", "")
	case errors.Is(err, database.ErrStorageUnavailable):
		rest.WriteError(w, http.StatusServiceUnavailable, "Storage unavailable", "")
	default:
		log.Errorf("unexpected report error: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func summaryToDTO(summary CategorySummary) CategorySummaryDTO {
	categories := make([]CategoryReportDTO, 0, len(summary.Categories))
	for _, c := range summary.Categories {
		categories = append(categories, CategoryReportDTO{
			CategoryId:   c.CategoryId,
			Name:         c.Name,
			Budget:       c.Budget,
			Spent:        c.Spent,
			Remaining:    c.Remaining,
			PercentSpent: c.PercentSpent,
			Status:       c.Status,
		})
	}
	return CategorySummaryDTO{
		GeneratedAt:           summary.GeneratedAt,
		PercentOfMonthElapsed: summary.PercentOfMonthElapsed,
		Categories:            categories,
		TotalBudget:           summary.TotalBudget,
		TotalSpent:            summary.TotalSpent,
		TotalRemaining:        summary.TotalRemaining,
	}
}
