package category

import (
	"errors"
	"net/http"
	"time"

	"github.com/budgetmate/budgetmate/internal/database"
	"github.com/budgetmate/budgetmate/internal/rest"
	"github.com/budgetmate/budgetmate/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type CategoryDTO struct {
	Id        int             `json:"id"`
	Name      string          `json:"name"`
	Budget    decimal.Decimal `json:"budget"`
	Remaining decimal.Decimal `json:"remaining"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type CreateCategoryRequest struct {
	Name   string           `json:"name"`
	Budget *decimal.Decimal `json:"budget,omitempty"`
}

type UpdateCategoryRequest struct {
	Name   *string          `json:"name,omitempty"`
	Budget *decimal.Decimal `json:"budget,omitempty"`
}

type DeductRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListCategories godoc
// @Summary List categories
// @Description Get all budget categories of the current user
// @Tags Category
// @Produce json
// @Success 200 {array} CategoryDTO
// @Failure 403 {string} string "User not found"
// @Router /api/category [get]
// @Security XUserId
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	log.Debug("Listing categories")
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	dtos := make([]CategoryDTO, 0, len(categories))
	for _, c := range categories {
		dtos = append(dtos, categoryToDTO(c))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// GetCategory godoc
// @Summary Get category
// @Tags Category
// @Produce json
// @Param categoryId path int true "Category ID"
// @Success 200 {object} CategoryDTO
// @Failure 404 {object} rest.ErrorResponse "Category not found"
// @Router /api/category/{categoryId} [get]
// @Security XUserId
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	categoryId, err := rest.PathId(r, "categoryId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid category id", err.Error())
		return
	}
	log.Debugf("Getting category %d", categoryId)

	c, err := h.service.GetCategory(r.Context(), categoryId)
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, categoryToDTO(c))
}

// CreateCategory godoc
// @Summary Create category
// @Description Create a budget category; its remaining balance starts equal to the budget
// @Tags Category
// @Accept json
// @Produce json
// @Param category body CreateCategoryRequest true "Category"
// @Success 201 {object} CategoryDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Router /api/category [post]
// @Security XUserId
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating category")
	var req CreateCategoryRequest
	if err := rest.DecodeJSON(r, &req); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}

	budget := decimal.Zero
	if req.Budget != nil {
		budget = *req.Budget
	}
	c, err := h.service.CreateCategory(r.Context(), req.Name, budget)
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, categoryToDTO(c))
}

// UpdateCategory godoc
// @Summary Update category
// @Description Rename a category and/or change its budget. Absent fields are left unchanged.
// @Tags Category
// @Accept json
// @Produce json
// @Param categoryId path int true "Category ID"
// @Param category body UpdateCategoryRequest true "Changes"
// @Success 200 {object} CategoryDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 404 {object} rest.ErrorResponse "Category not found"
// @Router /api/category/{categoryId} [put]
// @Security XUserId
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	categoryId, err := rest.PathId(r, "categoryId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid category id", err.Error())
		return
	}
	log.Debugf("Updating category %d", categoryId)

	var req UpdateCategoryRequest
	if err := rest.DecodeJSON(r, &req); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}

	c, err := h.service.UpdateCategory(r.Context(), categoryId, CategoryPatch{Name: req.Name, Budget: req.Budget})
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, categoryToDTO(c))
}

// DeleteCategory godoc
// @Summary Delete category
// @Description Delete a category that no transaction references
// @Tags Category
// @Param categoryId path int true "Category ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse "Category not found"
// @Failure 409 {object} rest.ErrorResponse "Category in use"
// @Router /api/category/{categoryId} [delete]
// @Security XUserId
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	categoryId, err := rest.PathId(r, "categoryId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid category id", err.Error())
		return
	}
	log.Debugf("Deleting category %d", categoryId)

	if err := h.service.DeleteCategory(r.Context(), categoryId); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeductFromCategory godoc
// @Summary Deduct from category
// @Description Consume an amount from the category's remaining balance
// @Tags Category
// @Accept json
// @Produce json
// @Param categoryId path int true "Category ID"
// @Param deduction body DeductRequest true "Amount"
// @Success 200 {object} CategoryDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid amount"
// @Failure 404 {object} rest.ErrorResponse "Category not found"
// @Failure 409 {object} rest.ErrorResponse "Insufficient funds"
// @Router /api/category/{categoryId}/deduct [post]
// @Security XUserId
func (h *Handler) DeductFromCategory(w http.ResponseWriter, r *http.Request) {
	categoryId, err := rest.PathId(r, "categoryId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid category id", err.Error())
		return
	}

	var req DeductRequest
	if err := rest.DecodeJSON(r, &req); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	log.Debugf("Deducting %s from category %d", req.Amount, categoryId)

	c, err := h.service.DeductFromCategory(r.Context(), categoryId, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, categoryToDTO(c))
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidCategory):
		rest.WriteError(w, http.StatusBadRequest, "Invalid category", err.Error())
	case errors.Is(err, ErrCategoryNotFound):
		rest.WriteError(w, http.StatusNotFound, "Category not found", "")
	case errors.Is(err, ErrCategoryInUse):
		rest.WriteError(w, http.StatusConflict, "Category in use", "Reassign or delete its transactions first")
	case errors.Is(err, ErrInsufficientFunds):
		rest.WriteError(w, http.StatusConflict, "Insufficient funds", err.Error())
	case errors.Is(err, user.ErrNoUser):
		rest.WriteError(w, http.StatusForbidden, "User not found", "")
	case errors.Is(err, database.ErrStorageUnavailable):
		rest.WriteError(w, http.StatusServiceUnavailable, "Storage unavailable", "")
	default:
		log.Errorf("unexpected category error: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func categoryToDTO(c Category) CategoryDTO {
	return CategoryDTO{
		Id:        c.Id,
		Name:      c.Name,
		Budget:    c.Budget,
		Remaining: c.Remaining,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
