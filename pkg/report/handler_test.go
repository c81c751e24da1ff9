package report

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_GetTotals(t *testing.T) {
	defer setup(t)()
	addTransaction(t, owner.Id, "1200", nil)
	addTransaction(t, owner.Id, "-200.50", nil)
	handler := NewHandler(service, NewCsvRenderer())

	req := httptest.NewRequest(http.MethodGet, "/api/report/totals", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	handler.GetTotals(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var dto TotalsDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&dto))
	assert.True(t, dto.Balance.Equal(dec("999.5")))
}

func TestHandler_GetCategoryReport(t *testing.T) {
	defer setup(t)()
	food := addCategory(t, "Food", "100")
	addTransaction(t, owner.Id, "-40", &food)
	handler := NewHandler(service, NewCsvRenderer())

	t.Run("should render json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/report/categories", nil).WithContext(ctx)
		w := httptest.NewRecorder()

		handler.GetCategoryReport(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var dto CategorySummaryDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&dto))
		require.Len(t, dto.Categories, 1)
		assert.Equal(t, StatusOnTrack, dto.Categories[0].Status)
	})

	t.Run("should render csv on request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/report/categories", nil).WithContext(ctx)
		req.Header.Set("Accept", "text/csv")
		w := httptest.NewRecorder()

		handler.GetCategoryReport(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
		lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
		assert.Len(t, lines, 3)
	})

	t.Run("should reject requests without user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/report/categories", nil)
		w := httptest.NewRecorder()

		handler.GetCategoryReport(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
