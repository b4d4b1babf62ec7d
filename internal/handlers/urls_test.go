package handlers

import (
	"bytes"
	"fmt"
	"image/png"
	"net/http"
	"testing"
	"time"

	"linkvault/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createURL(t *testing.T, env *testEnv, token, original string) models.URL {
	t.Helper()
	w := env.do(http.MethodPost, "/urls", token, map[string]string{"originalUrl": original})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var u models.URL
	decode(t, w, &u)
	return u
}

func TestURLHandlers(t *testing.T) {
	env := setupTestHandler(t)
	owner := env.seedUser("Owner", "owner@example.com", "pw", models.RoleUser)
	other := env.seedUser("Other", "other@example.com", "pw", models.RoleUser)
	admin := env.seedUser("Admin", "admin@example.com", "pw", models.RoleAdmin)
	ownerToken, otherToken, adminToken := env.tokenFor(owner), env.tokenFor(other), env.tokenFor(admin)

	url := createURL(t, env, ownerToken, "https://example.com/docs")

	t.Run("Create", func(t *testing.T) {
		assert.Len(t, url.ShortCode, models.ShortCodeLength)
		assert.Equal(t, owner.ID, url.UserID)
		assert.Equal(t, "https://example.com/docs", url.OriginalURL)

		assert.Eventually(t, func() bool {
			return env.auditCount("create_url") == 1
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("Create requires URL", func(t *testing.T) {
		w := env.do(http.MethodPost, "/urls", ownerToken, map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "originalUrl required")

		w = env.do(http.MethodPost, "/urls", ownerToken, map[string]string{"originalUrl": "ftp://example.com"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Create requires auth", func(t *testing.T) {
		w := env.do(http.MethodPost, "/urls", "", map[string]string{"originalUrl": "https://x.com"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Owner reads", func(t *testing.T) {
		w := env.do(http.MethodGet, fmt.Sprintf("/urls/%d", url.ID), ownerToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Non-owner is forbidden", func(t *testing.T) {
		path := fmt.Sprintf("/urls/%d", url.ID)
		assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, path, otherToken, nil).Code)
		assert.Equal(t, http.StatusForbidden, env.do(http.MethodPut, path, otherToken, map[string]string{"originalUrl": "https://evil.com"}).Code)
		assert.Equal(t, http.StatusForbidden, env.do(http.MethodDelete, path, otherToken, nil).Code)
		assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, path+"/qr", otherToken, nil).Code)
	})

	t.Run("Missing URL", func(t *testing.T) {
		w := env.do(http.MethodGet, "/urls/9999", ownerToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"URL not found"}`, w.Body.String())
	})

	t.Run("Owner updates", func(t *testing.T) {
		w := env.do(http.MethodPut, fmt.Sprintf("/urls/%d", url.ID), ownerToken, map[string]string{"originalUrl": "https://example.com/v2"})
		require.Equal(t, http.StatusOK, w.Code)
		var got models.URL
		decode(t, w, &got)
		assert.Equal(t, "https://example.com/v2", got.OriginalURL)
		assert.Equal(t, url.ShortCode, got.ShortCode)
	})

	t.Run("QR code", func(t *testing.T) {
		w := env.do(http.MethodGet, fmt.Sprintf("/urls/%d/qr?size=128", url.ID), ownerToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, 128, img.Bounds().Dx())

		w = env.do(http.MethodGet, fmt.Sprintf("/urls/%d/qr?format=svg", url.ID), adminToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))

		w = env.do(http.MethodGet, fmt.Sprintf("/urls/%d/qr?size=9000", url.ID), ownerToken, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Admin deletes", func(t *testing.T) {
		w := env.do(http.MethodDelete, fmt.Sprintf("/urls/%d", url.ID), adminToken, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = env.do(http.MethodGet, "/"+url.ShortCode, "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListURLs(t *testing.T) {
	env := setupTestHandler(t)
	owner := env.seedUser("Owner", "owner@example.com", "pw", models.RoleUser)
	other := env.seedUser("Other", "other@example.com", "pw", models.RoleUser)
	ownerToken := env.tokenFor(owner)

	for i := 0; i < 7; i++ {
		createURL(t, env, ownerToken, fmt.Sprintf("https://site%d.example.com", i))
	}
	createURL(t, env, env.tokenFor(other), "https://site0.example.com/foreign")

	type listBody struct {
		URLs  []models.URL `json:"urls"`
		Total int64        `json:"total"`
	}

	t.Run("Default page size", func(t *testing.T) {
		w := env.do(http.MethodGet, "/urls", ownerToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var body listBody
		decode(t, w, &body)
		assert.Equal(t, int64(7), body.Total)
		assert.Len(t, body.URLs, 5)
		for _, u := range body.URLs {
			assert.Equal(t, owner.ID, u.UserID)
		}
	})

	t.Run("Second page", func(t *testing.T) {
		w := env.do(http.MethodGet, "/urls?page=2&pageSize=5", ownerToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var body listBody
		decode(t, w, &body)
		assert.Len(t, body.URLs, 2)
	})

	t.Run("Search", func(t *testing.T) {
		w := env.do(http.MethodGet, "/urls?search=SITE3", ownerToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var body listBody
		decode(t, w, &body)
		assert.Equal(t, int64(1), body.Total)
	})

	t.Run("Garbage paging falls back to defaults", func(t *testing.T) {
		w := env.do(http.MethodGet, "/urls?page=abc&pageSize=-3", ownerToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var body listBody
		decode(t, w, &body)
		assert.Len(t, body.URLs, 5)
	})
}
