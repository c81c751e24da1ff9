package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_CreateUser(t *testing.T) {
	handler := NewHandler(NewUserService(NewStubUserRepository()))

	t.Run("should create user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/user",
			strings.NewReader(`{"username":"frank","displayName":"Frank","settings":{"timezone":"UTC"}}`))
		w := httptest.NewRecorder()

		handler.CreateUser(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		var dto UserDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&dto))
		assert.Equal(t, "frank", dto.Username)
		assert.NotEmpty(t, dto.Uid)
	})

	t.Run("should reject missing display name", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/user", strings.NewReader(`{"username":"gina"}`))
		w := httptest.NewRecorder()

		handler.CreateUser(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should reject unknown fields", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/user",
			strings.NewReader(`{"username":"hank","displayName":"Hank","photo":"x"}`))
		w := httptest.NewRecorder()

		handler.CreateUser(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_CurrentUser(t *testing.T) {
	service := NewUserService(NewStubUserRepository())
	handler := NewHandler(service)
	created, err := service.CreateUser(context.Background(), User{Username: "ivy", DisplayName: "Ivy"})
	require.NoError(t, err)

	t.Run("should return current user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/user/current", nil)
		req = req.WithContext(WithUser(context.Background(), created))
		w := httptest.NewRecorder()

		handler.CurrentUser(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var dto UserDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&dto))
		assert.Equal(t, created.Uid, dto.Uid)
	})

	t.Run("should return 404 for unknown user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/user/current", nil)
		req = req.WithContext(WithUser(context.Background(), User{Id: 99}))
		w := httptest.NewRecorder()

		handler.CurrentUser(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("should return 403 without a user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/user/current", nil)
		w := httptest.NewRecorder()

		handler.CurrentUser(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
