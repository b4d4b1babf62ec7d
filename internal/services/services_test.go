package services

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"linkvault/internal/config"
	"linkvault/internal/models"
	"linkvault/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repository.InitDB(config.Config{DatabaseURL: "sqlite://:memory:", LogLevel: "silent"}, testLogger)
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))
	return db
}

func setupTestCache(t *testing.T) (*repository.URLCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := repository.InitRedis(mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return repository.NewURLCache(rdb, time.Minute), mr
}

func fastHash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(b), err
}

func seedUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()
	hash, err := fastHash("password")
	require.NoError(t, err)
	u := &models.User{Name: email, Email: email, PasswordHash: hash, Role: role}
	require.NoError(t, db.Create(u).Error)
	return u
}

func actorFor(u *models.User) Actor {
	return Actor{UserID: u.ID, Email: u.Email, Role: u.Role, IP: "127.0.0.1"}
}

func countAudit(t *testing.T, db *gorm.DB, action string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.AuditLog{}).Where("action = ?", action).Count(&n).Error)
	return n
}
