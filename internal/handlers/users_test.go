package handlers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"linkvault/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserHandlers(t *testing.T) {
	env := setupTestHandler(t)
	admin := env.seedUser("Admin", "admin@example.com", "adminpw", models.RoleAdmin)
	plain := env.seedUser("Plain", "plain@example.com", "plainpw", models.RoleUser)
	adminToken := env.tokenFor(admin)

	var alice models.User

	t.Run("Create Alice", func(t *testing.T) {
		w := env.do(http.MethodPost, "/users", adminToken, map[string]string{
			"name": "Alice", "email": "a@x.com", "password": "p", "role": "user",
		})
		require.Equal(t, http.StatusCreated, w.Code)
		assert.NotContains(t, w.Body.String(), "password")
		decode(t, w, &alice)
		assert.Equal(t, "Alice", alice.Name)
		assert.Equal(t, "a@x.com", alice.Email)
		assert.NotZero(t, alice.ID)

		assert.Eventually(t, func() bool {
			return env.auditCount("create_user") == 1
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("Duplicate email", func(t *testing.T) {
		w := env.do(http.MethodPost, "/users", adminToken, map[string]string{
			"name": "Alice", "email": "a@x.com", "password": "p", "role": "user",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"Email must be unique"}`, w.Body.String())
	})

	t.Run("Validation", func(t *testing.T) {
		w := env.do(http.MethodPost, "/users", adminToken, map[string]string{"name": "Bob", "role": "owner"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Name, email, password and role required")
		assert.Contains(t, w.Body.String(), `"field":"email"`)
		assert.Contains(t, w.Body.String(), `"rule":"oneof"`)
	})

	t.Run("Non-admin is forbidden", func(t *testing.T) {
		w := env.do(http.MethodGet, "/users", env.tokenFor(plain), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Missing token", func(t *testing.T) {
		w := env.do(http.MethodGet, "/users", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Invalid token", func(t *testing.T) {
		w := env.do(http.MethodGet, "/users", "garbage", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("List and search", func(t *testing.T) {
		w := env.do(http.MethodGet, "/users", adminToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var users []models.User
		decode(t, w, &users)
		assert.Len(t, users, 3)

		w = env.do(http.MethodGet, "/users?search=ALI", adminToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		decode(t, w, &users)
		require.Len(t, users, 1)
		assert.Equal(t, "Alice", users[0].Name)
	})

	t.Run("Get", func(t *testing.T) {
		w := env.do(http.MethodGet, fmt.Sprintf("/users/%d", alice.ID), adminToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = env.do(http.MethodGet, "/users/9999", adminToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = env.do(http.MethodGet, "/users/abc", adminToken, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Update", func(t *testing.T) {
		w := env.do(http.MethodPut, fmt.Sprintf("/users/%d", alice.ID), adminToken, map[string]string{"name": "Alicia"})
		require.Equal(t, http.StatusOK, w.Code)
		var got models.User
		decode(t, w, &got)
		assert.Equal(t, "Alicia", got.Name)
		assert.Equal(t, "a@x.com", got.Email)

		w = env.do(http.MethodPut, "/users/9999", adminToken, map[string]string{"name": "X"})
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = env.do(http.MethodPut, fmt.Sprintf("/users/%d", alice.ID), adminToken, map[string]string{"role": "root"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Delete", func(t *testing.T) {
		w := env.do(http.MethodDelete, fmt.Sprintf("/users/%d", alice.ID), adminToken, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = env.do(http.MethodDelete, fmt.Sprintf("/users/%d", alice.ID), adminToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		assert.Eventually(t, func() bool {
			return env.auditCount("delete_user") == 1
		}, time.Second, 10*time.Millisecond)
	})
}
