package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"linkvault/internal/auth"
	"linkvault/internal/config"
	"linkvault/internal/middleware"
	"linkvault/internal/models"
	"linkvault/internal/observability"
	"linkvault/internal/repository"
	"linkvault/internal/services"
	"linkvault/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	t      *testing.T
	h      *Handler
	r      *gin.Engine
	db     *gorm.DB
	tokens *auth.Manager
	audit  *services.AuditService
}

func setupTestHandler(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		DatabaseURL:     "sqlite://:memory:",
		LogLevel:        "silent",
		BaseURL:         "http://lv.test",
		JWTSecret:       "test-secret-12345678901234567890123456789012",
		AccessTokenTTL:  time.Hour,
		ResetTokenTTL:   time.Hour,
		RateLimitMax:    5,
		RateLimitWindow: time.Minute,
		CORSOrigins:     "http://app.test",
	}

	db, err := repository.InitDB(cfg, logger)
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))

	registry := prometheus.NewRegistry()
	metrics := observability.NewProm(registry)
	tokens := auth.NewManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	cache := repository.NewURLCache(nil, 0)
	urls := repository.NewURLRepository(db)

	audit := services.NewAuditService(repository.NewAuditLogRepository(db), logger, 100, metrics)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go audit.Start(ctx)

	ipLimiter, err := middleware.NewFixedWindowLimiter("auth_ip", cfg.RateLimitMax, cfg.RateLimitWindow, 1000, metrics)
	require.NoError(t, err)
	emailLimiter, err := middleware.NewFixedWindowLimiter("auth_email", cfg.RateLimitMax, cfg.RateLimitWindow, 1000, metrics)
	require.NoError(t, err)

	h := NewHandler(cfg, logger, Deps{
		DB:            db,
		Authenticator: middleware.NewAuthenticator(tokens),
		Users:         services.NewUserService(repository.NewUserRepository(db), cache, tokens, audit, logger, cfg.ResetTokenTTL),
		Shortener:     services.NewShortenerService(urls, cache, audit, logger),
		Resolver:      services.NewResolver(urls, cache, logger, metrics),
		Audit:         audit,
		QR:            services.NewQRService(cfg.BaseURL),
		IPLimiter:     ipLimiter,
		EmailLimiter:  emailLimiter,
		Metrics:       metrics,
		Gatherer:      registry,
	})

	return &testEnv{t: t, h: h, r: h.SetupRouter(nil), db: db, tokens: tokens, audit: audit}
}

func (e *testEnv) seedUser(name, email, password, role string) *models.User {
	e.t.Helper()
	hash, err := utils.HashPassword(password)
	require.NoError(e.t, err)
	u := &models.User{Name: name, Email: email, PasswordHash: hash, Role: role}
	require.NoError(e.t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) tokenFor(u *models.User) string {
	e.t.Helper()
	token, err := e.tokens.IssueAccessToken(u.ID, u.Email, u.Role)
	require.NoError(e.t, err)
	return token
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	return e.request("192.0.2.10:4321", method, path, token, body)
}

// doFrom sends an unauthenticated request from remoteAddr.
func (e *testEnv) doFrom(remoteAddr, method, path string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	return e.request(remoteAddr, method, path, "", body)
}

func (e *testEnv) request(remoteAddr, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(e.t, err)
			reader = bytes.NewBuffer(data)
		}
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(e.t, err)
	req.RemoteAddr = remoteAddr
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func (e *testEnv) auditCount(action string) int64 {
	var n int64
	e.db.Model(&models.AuditLog{}).Where("action = ?", action).Count(&n)
	return n
}
