package transaction

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/budgetmate/budgetmate/internal/database"
	"github.com/budgetmate/budgetmate/internal/rest"
	"github.com/budgetmate/budgetmate/pkg/accounting"
	"github.com/budgetmate/budgetmate/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

type TransactionDTO struct {
	Id          int             `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        Type            `json:"type"`
	CategoryId  *int            `json:"categoryId"`
	Date        time.Time       `json:"date"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type CreateTransactionRequest struct {
	Description string           `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	CategoryId  *int             `json:"categoryId,omitempty"`
	Date        *RequestDate     `json:"date,omitempty"`
	Notes       string           `json:"notes,omitempty"`
}

type UpdateTransactionRequest struct {
	Description *string          `json:"description,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	CategoryId  OptionalId       `json:"categoryId"`
	Date        *RequestDate     `json:"date,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
}

// RequestDate accepts an RFC3339 timestamp or a plain YYYY-MM-DD date, read as midnight UTC.
type RequestDate struct {
	time.Time
}

func (d *RequestDate) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	t, _, err := parseTime(value)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d *RequestDate) timePtr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

// OptionalId tells an absent field apart from an explicit null.
type OptionalId struct {
	Set bool
	Id  *int
}

func (o *OptionalId) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Id = nil
		return nil
	}
	var id int
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	o.Id = &id
	return nil
}

type BudgetExceededResponse struct {
	rest.ErrorResponse
	CategoryId   int             `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	Budget       decimal.Decimal `json:"budget"`
	AlreadySpent decimal.Decimal `json:"alreadySpent"`
	WouldBecome  decimal.Decimal `json:"wouldBecome"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListTransactions godoc
// @Summary List transactions
// @Description List the current user's transactions, newest first
// @Tags Transaction
// @Produce json
// @Param from query string false "Inclusive start, RFC3339 or YYYY-MM-DD"
// @Param to query string false "End, RFC3339 (exclusive) or YYYY-MM-DD (inclusive)"
// @Param categoryId query int false "Category ID"
// @Param type query string false "income or expense"
// @Success 200 {array} TransactionDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid filter"
// @Router /api/transaction [get]
// @Security XUserId
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	log.Debug("Listing transactions")
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid filter", err.Error())
		return
	}

	transactions, err := h.service.ListTransactions(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	dtos := make([]TransactionDTO, 0, len(transactions))
	for _, t := range transactions {
		dtos = append(dtos, transactionToDTO(t))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// GetTransaction godoc
// @Summary Get transaction
// @Tags Transaction
// @Produce json
// @Param transactionId path int true "Transaction ID"
// @Success 200 {object} TransactionDTO
// @Failure 404 {object} rest.ErrorResponse "Transaction not found"
// @Router /api/transaction/{transactionId} [get]
// @Security XUserId
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	transactionId, err := rest.PathId(r, "transactionId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid transaction id", err.Error())
		return
	}

	t, err := h.service.GetTransaction(r.Context(), transactionId)
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, transactionToDTO(t))
}

// CreateTransaction godoc
// @Summary Create transaction
// @Description Record income (positive amount) or an expense (negative amount)
// @Tags Transaction
// @Accept json
// @Produce json
// @Param transaction body CreateTransactionRequest true "Transaction"
// @Success 201 {object} TransactionDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid transaction or unknown category"
// @Failure 422 {object} BudgetExceededResponse "Budget exceeded"
// @Router /api/transaction [post]
// @Security XUserId
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating transaction")
	var req CreateTransactionRequest
	if err := rest.DecodeJSON(r, &req); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	if req.Amount == nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid transaction", "amount is required")
		return
	}

	t, err := h.service.CreateTransaction(r.Context(), NewTransaction{
		Description: req.Description,
		Amount:      *req.Amount,
		CategoryId:  req.CategoryId,
		Date:        req.Date.timePtr(),
		Notes:       req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, transactionToDTO(t))
}

// UpdateTransaction godoc
// @Summary Update transaction
// @Description Change any field of a transaction. Absent fields are kept; "categoryId": null detaches the category.
// @Tags Transaction
// @Accept json
// @Produce json
// @Param transactionId path int true "Transaction ID"
// @Param transaction body UpdateTransactionRequest true "Changes"
// @Success 200 {object} TransactionDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid transaction or unknown category"
// @Failure 404 {object} rest.ErrorResponse "Transaction not found"
// @Failure 422 {object} BudgetExceededResponse "Budget exceeded"
// @Router /api/transaction/{transactionId} [put]
// @Security XUserId
func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	transactionId, err := rest.PathId(r, "transactionId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid transaction id", err.Error())
		return
	}
	log.Debugf("Updating transaction %d", transactionId)

	var req UpdateTransactionRequest
	if err := rest.DecodeJSON(r, &req); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}

	patch := TransactionPatch{
		Description: req.Description,
		Amount:      req.Amount,
		Date:        req.Date.timePtr(),
		Notes:       req.Notes,
	}
	if req.CategoryId.Set {
		patch.CategoryId = req.CategoryId.Id
		patch.ClearCategory = req.CategoryId.Id == nil
	}

	t, err := h.service.UpdateTransaction(r.Context(), transactionId, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, transactionToDTO(t))
}

// DeleteTransaction godoc
// @Summary Delete transaction
// @Tags Transaction
// @Param transactionId path int true "Transaction ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse "Transaction not found"
// @Router /api/transaction/{transactionId} [delete]
// @Security XUserId
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	transactionId, err := rest.PathId(r, "transactionId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid transaction id", err.Error())
		return
	}
	log.Debugf("Deleting transaction %d", transactionId)

	if err := h.service.DeleteTransaction(r.Context(), transactionId); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseFilter(query url.Values) (Filter, error) {
	var filter Filter
	if v := query.Get("from"); v != "" {
		from, _, err := parseTime(v)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid from: %w", err)
		}
		filter.From = &from
	}
	if v := query.Get("to"); v != "" {
		to, dateOnly, err := parseTime(v)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid to: %w", err)
		}
		if dateOnly {
			to = to.AddDate(0, 0, 1)
		}
		filter.To = &to
	}
	if v := query.Get("categoryId"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || id <= 0 {
			return Filter{}, fmt.Errorf("invalid categoryId %q", v)
		}
		filter.CategoryId = &id
	}
	t, err := ParseType(query.Get("type"))
	if err != nil {
		return Filter{}, err
	}
	filter.Type = t
	return filter, nil
}

func parseTime(value string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, false, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("expected RFC3339 or %s, got %q", dateLayout, value)
	}
	return t, true, nil
}

func writeError(w http.ResponseWriter, err error) {
	var exceeded *accounting.BudgetExceededError
	switch {
	case errors.As(err, &exceeded):
		rest.WriteJSON(w, http.StatusUnprocessableEntity, BudgetExceededResponse{
			ErrorResponse: rest.ErrorResponse{Error: "Budget exceeded", Details: exceeded.Error()},
			CategoryId:    exceeded.CategoryId,
			CategoryName:  exceeded.CategoryName,
			Budget:        exceeded.Budget,
			AlreadySpent:  exceeded.AlreadySpent,
			WouldBecome:   exceeded.WouldBecome,
		})
	case errors.Is(err, ErrInvalidTransaction):
		rest.WriteError(w, http.StatusBadRequest, "Invalid transaction", err.Error())
	case errors.Is(err, ErrCategoryNotFound):
		rest.WriteError(w, http.StatusBadRequest, "Category not found", err.Error())
	case errors.Is(err, ErrTransactionNotFound):
		rest.WriteError(w, http.StatusNotFound, "Transaction not found", "")
	case errors.Is(err, user.ErrNoUser):
		rest.WriteError(w, http.StatusForbidden, "User not found", "")
	case errors.Is(err, database.ErrStorageUnavailable):
		rest.WriteError(w, http.StatusServiceUnavailable, "Storage unavailable", "")
	default:
		log.Errorf("unexpected transaction error: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func transactionToDTO(t Transaction) TransactionDTO {
	return TransactionDTO{
		Id:          t.Id,
		Description: t.Description,
		Amount:      t.Amount,
		Type:        t.Type(),
		CategoryId:  t.CategoryId,
		Date:        t.Date,
		Notes:       t.Notes,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
