package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormLogger implements gorm.io/gorm/logger.Interface on top of slog.
type GormLogger struct {
	log           *slog.Logger
	logLevel      logger.LogLevel
	slowThreshold time.Duration
}

func NewGormLogger(log *slog.Logger, level string) *GormLogger {
	var lvl logger.LogLevel
	switch level {
	case "silent":
		lvl = logger.Silent
	case "debug", "info":
		lvl = logger.Info
	case "error":
		lvl = logger.Error
	default:
		lvl = logger.Warn
	}
	if log == nil {
		log = slog.Default()
	}
	return &GormLogger{log: log, logLevel: lvl, slowThreshold: 200 * time.Millisecond}
}

func (g *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &GormLogger{log: g.log, logLevel: level, slowThreshold: g.slowThreshold}
}

func (g *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if g.logLevel >= logger.Info {
		g.log.InfoContext(ctx, "gorm info", "msg_detail", msg, "data", data)
	}
}

func (g *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if g.logLevel >= logger.Warn {
		g.log.WarnContext(ctx, "gorm warn", "msg_detail", msg, "data", data)
	}
}

func (g *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if g.logLevel >= logger.Error {
		g.log.ErrorContext(ctx, "gorm error", "msg_detail", msg, "data", data)
	}
}

// Trace logs SQL with rows affected and elapsed time. Not-found lookups and
// unique violations are expected outcomes and are not logged as errors.
func (g *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.logLevel == logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()

	attrs := []any{
		"sql", sql,
		"rows", rows,
		"elapsed_ms", float64(elapsed.Microseconds()) / 1000.0,
	}

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && !errors.Is(err, gorm.ErrDuplicatedKey) && !errors.Is(err, context.Canceled) {
		attrs = append(attrs, "err", err)
		if g.logLevel >= logger.Error {
			g.log.ErrorContext(ctx, "gorm trace", attrs...)
		}
		return
	}

	if g.slowThreshold > 0 && elapsed > g.slowThreshold {
		attrs = append(attrs, "slow", true)
		if g.logLevel >= logger.Warn {
			g.log.WarnContext(ctx, "gorm trace slow", attrs...)
		}
		return
	}

	if g.logLevel >= logger.Info {
		g.log.DebugContext(ctx, "gorm trace", attrs...)
	}
}
