package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"linkvault/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeVerifier struct {
	claims *auth.Claims
	err    error
	got    string
}

func (f *fakeVerifier) VerifyAccessToken(token string) (*auth.Claims, error) {
	f.got = token
	return f.claims, f.err
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(v TokenVerifier) *gin.Engine {
	a := NewAuthenticator(v)
	r := gin.New()
	r.GET("/me", a.RequireAuth(), func(c *gin.Context) {
		id, _ := IdentityFrom(c)
		c.JSON(http.StatusOK, gin.H{"id": id.UserID, "role": id.Role})
	})
	r.GET("/admin", a.RequireAuth(), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	t.Run("Missing header", func(t *testing.T) {
		r := newAuthRouter(&fakeVerifier{})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"Access token required"}`, w.Body.String())
	})

	t.Run("Wrong scheme", func(t *testing.T) {
		r := newAuthRouter(&fakeVerifier{})
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Basic abc")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Empty bearer", func(t *testing.T) {
		r := newAuthRouter(&fakeVerifier{})
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer   ")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Invalid token", func(t *testing.T) {
		r := newAuthRouter(&fakeVerifier{err: errors.New("bad")})
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"error":"Invalid or expired token"}`, w.Body.String())
	})

	t.Run("Valid token", func(t *testing.T) {
		v := &fakeVerifier{claims: &auth.Claims{UserID: 7, Email: "a@x.com", Role: "user"}}
		r := newAuthRouter(v)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "good-token", v.got)
		assert.JSONEq(t, `{"id":7,"role":"user"}`, w.Body.String())
	})
}

func TestRequireAdmin(t *testing.T) {
	t.Run("User role rejected", func(t *testing.T) {
		r := newAuthRouter(&fakeVerifier{claims: &auth.Claims{UserID: 1, Role: "user"}})
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer t")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"error":"Admin privileges required"}`, w.Body.String())
	})

	t.Run("Admin allowed", func(t *testing.T) {
		r := newAuthRouter(&fakeVerifier{claims: &auth.Claims{UserID: 1, Role: "admin"}})
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer t")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("No identity", func(t *testing.T) {
		r := gin.New()
		r.GET("/x", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
