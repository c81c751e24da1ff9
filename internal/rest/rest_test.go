package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Name string `json:"name"`
	}

	t.Run("should decode a known shape", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Food"}`))
		var b body
		require.NoError(t, DecodeJSON(req, &b))
		assert.Equal(t, "Food", b.Name)
	})

	t.Run("should reject unknown fields", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Food","color":"red"}`))
		var b body
		assert.Error(t, DecodeJSON(req, &b))
	})

	t.Run("should reject trailing data", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Food"}{"name":"Rent"}`))
		var b body
		assert.Error(t, DecodeJSON(req, &b))
	})
}

func TestPathId(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/category/12", nil)
	req = mux.SetURLVars(req, map[string]string{"categoryId": "12"})
	id, err := PathId(req, "categoryId")
	require.NoError(t, err)
	assert.Equal(t, 12, id)

	req = mux.SetURLVars(req, map[string]string{"categoryId": "abc"})
	_, err = PathId(req, "categoryId")
	assert.Error(t, err)

	req = mux.SetURLVars(req, map[string]string{"categoryId": "-1"})
	_, err = PathId(req, "categoryId")
	assert.Error(t, err)
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, http.StatusBadRequest, "Invalid request", "name is required")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Invalid request", resp.Error)
	assert.Equal(t, "name is required", resp.Details)
}
