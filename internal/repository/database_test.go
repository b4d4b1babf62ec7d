package repository

import (
	"io"
	"log/slog"
	"testing"

	"linkvault/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := InitDB(config.Config{DatabaseURL: "sqlite://:memory:", LogLevel: "silent"}, testLogger)
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	return db
}

func TestInitDB(t *testing.T) {
	t.Run("SQLite Success", func(t *testing.T) {
		cfg := config.Config{
			DatabaseURL: "sqlite://:memory:",
		}
		db, err := InitDB(cfg, testLogger)
		assert.NoError(t, err)
		assert.NotNil(t, db)
		assert.NoError(t, AutoMigrate(db))
	})

	t.Run("Unsupported Driver", func(t *testing.T) {
		cfg := config.Config{
			DatabaseURL: "mysql://localhost",
		}
		_, err := InitDB(cfg, testLogger)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported database driver")
	})

	t.Run("Invalid SQLite Path", func(t *testing.T) {
		cfg := config.Config{
			DatabaseURL: "sqlite:///non/existent/path/db.sqlite",
		}
		db, err := InitDB(cfg, testLogger)
		if err == nil {
			// the driver opens lazily; the first statement surfaces the error
			err = AutoMigrate(db)
		}
		assert.Error(t, err)
	})
}

func TestIsSQLite(t *testing.T) {
	assert.True(t, IsSQLite("sqlite://file.db"))
	assert.False(t, IsSQLite("postgres://localhost/db"))
}

func TestRunMigrations_Fail(t *testing.T) {
	t.Run("Invalid Source Path", func(t *testing.T) {
		err := RunMigrations("postgres://localhost:1/db", "file://non-existent", testLogger)
		assert.Error(t, err)
	})

	t.Run("Unsupported DB Driver", func(t *testing.T) {
		err := RunMigrations("mysql://localhost", "file://../../migrations", testLogger)
		assert.Error(t, err)
	})

	t.Run("Empty Database URL", func(t *testing.T) {
		err := RunMigrations("", "", testLogger)
		assert.Error(t, err)
	})
}

func TestNewPage(t *testing.T) {
	assert.Equal(t, Page{Number: 1, Size: 5}, NewPage(0, 0, 5))
	assert.Equal(t, Page{Number: 3, Size: 20}, NewPage(3, 20, 5))
	assert.Equal(t, Page{Number: 1, Size: MaxPageSize}, NewPage(1, 5000, 5))
	assert.Equal(t, 40, NewPage(3, 20, 5).Offset())
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%abc%", likePattern("ABC"))
	assert.Equal(t, `%50\%\_off%`, likePattern("50%_off"))
}
