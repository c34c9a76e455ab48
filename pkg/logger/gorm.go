package logger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// maxStatementLen caps the SQL text attached to a log entry. Inserts carry the
// submitted name and email, so a hostile form can otherwise flood the log.
const maxStatementLen = 512

// GormLogger routes GORM query logs through zap, tagging each entry with the
// request_id of the HTTP request that issued the query.
type GormLogger struct {
	ZapLogger     *zap.Logger
	SlowThreshold time.Duration
	LogLevel      gormlogger.LogLevel
}

// NewGormLoggerWithConfig builds a GORM logger from the LOG_LEVEL and
// LOG_SLOW_QUERY_SECONDS settings.
func NewGormLoggerWithConfig(zapLogger *zap.Logger, slowQuerySeconds float64, logLevel string) *GormLogger {
	return &GormLogger{
		ZapLogger:     zapLogger.Named("gorm"),
		SlowThreshold: time.Duration(slowQuerySeconds * float64(time.Second)),
		LogLevel:      ParseGormLevel(logLevel),
	}
}

// ParseGormLevel maps an application log level onto GORM's coarser scale.
// Statement tracing is only enabled at debug.
func ParseGormLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error", "fatal":
		return gormlogger.Error
	case "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.LogLevel = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.printf(ctx, gormlogger.Info, zapcore.InfoLevel, msg, data)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.printf(ctx, gormlogger.Warn, zapcore.WarnLevel, msg, data)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.printf(ctx, gormlogger.Error, zapcore.ErrorLevel, msg, data)
}

func (l *GormLogger) printf(ctx context.Context, min gormlogger.LogLevel, lvl zapcore.Level, msg string, data []interface{}) {
	if l.LogLevel < min {
		return
	}
	WithContext(ctx, l.ZapLogger).Log(lvl, fmt.Sprintf(msg, data...))
}

// Trace reports one executed statement. Failed statements are logged at
// error, except constraint violations on users, which come from the
// submitted form and are logged at warn. Slow statements are logged at warn
// and everything else at debug.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	log := WithContext(ctx, l.ZapLogger)

	statement := func() []zap.Field {
		sql, rows := fc()
		fields := []zap.Field{zap.Int64("rows", rows), zap.Duration("elapsed", elapsed)}
		if len(sql) > maxStatementLen {
			return append(fields, zap.String("sql", sql[:maxStatementLen]), zap.Int("sql_len", len(sql)))
		}
		return append(fields, zap.String("sql", sql))
	}

	switch {
	case err != nil && errors.Is(err, gorm.ErrRecordNotFound):
		// Lookups that miss are not failures.
	case err != nil && isConstraintViolation(err):
		if l.LogLevel >= gormlogger.Warn {
			log.Warn("constraint violation", append(statement(), zap.Error(err))...)
		}
		return
	case err != nil:
		if l.LogLevel >= gormlogger.Error {
			log.Error("statement failed", append(statement(), zap.Error(err))...)
		}
		return
	}

	if l.SlowThreshold > 0 && elapsed > l.SlowThreshold && l.LogLevel >= gormlogger.Warn {
		log.Warn("slow statement", append(statement(), zap.Duration("threshold", l.SlowThreshold))...)
		return
	}

	if l.LogLevel >= gormlogger.Info {
		log.Debug("statement", statement()...)
	}
}

// isConstraintViolation reports whether err is a duplicate email or a
// missing NOT NULL column. Postgres and SQLite word these differently and
// only the duplicate case is translated by GORM.
func isConstraintViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not null constraint") || strings.Contains(msg, "not-null constraint")
}
