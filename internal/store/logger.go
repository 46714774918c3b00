package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm/logger"

	"github.com/roach88/capitals/internal/persistence"
)

const slowQueryThreshold = 200 * time.Millisecond

// gormLogger routes ORM diagnostics to slog. Statement traces are logged
// at debug level so they only show with --verbose.
type gormLogger struct {
	log   *slog.Logger
	level logger.LogLevel
}

func newGormLogger(l *slog.Logger, level string) logger.Interface {
	return &gormLogger{log: l, level: parseLogLevel(level)}
}

func parseLogLevel(level string) logger.LogLevel {
	switch level {
	case persistence.LogSilent:
		return logger.Silent
	case persistence.LogError:
		return logger.Error
	case persistence.LogInfo:
		return logger.Info
	default:
		return logger.Warn
	}
}

func (g *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	c := *g
	c.level = level
	return &c
}

func (g *gormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= logger.Info {
		g.log.InfoContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (g *gormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= logger.Warn {
		g.log.WarnContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (g *gormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= logger.Error {
		g.log.ErrorContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (g *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if g.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && g.level >= logger.Error && !errors.Is(err, logger.ErrRecordNotFound):
		sql, rows := fc()
		g.log.ErrorContext(ctx, "statement failed", "error", err, "sql", sql, "rows", rows, "elapsed", elapsed)
	case elapsed > slowQueryThreshold && g.level >= logger.Warn:
		sql, rows := fc()
		g.log.WarnContext(ctx, "slow statement", "sql", sql, "rows", rows, "elapsed", elapsed)
	case g.level >= logger.Info:
		sql, rows := fc()
		g.log.DebugContext(ctx, "statement", "sql", sql, "rows", rows, "elapsed", elapsed)
	}
}
