package infrastructure

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"time"

	"user-registry/internal/config"
	"user-registry/pkg/logger"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const pingTimeout = 5 * time.Second

// NewDatabase opens the user store selected by DATABASE_URL and verifies it
// answers a ping. sqlite:// and file: URLs use the embedded SQLite driver,
// anything else is handed to pgx.
func NewDatabase(cfg *config.Config, l *zap.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:         logger.NewGormLoggerWithConfig(l, cfg.Logger.SlowQuerySeconds, cfg.Logger.Level),
		TranslateError: true,
	}

	var (
		dialector gorm.Dialector
		driver    string
	)
	if cfg.DB.IsSQLite() {
		driver = "sqlite"
		dialector = sqlite.Open(cfg.DB.SQLitePath())
	} else {
		driver = "postgres"
		sqlDB, err := openPostgres(cfg)
		if err != nil {
			return nil, err
		}
		dialector = pgdriver.New(pgdriver.Config{Conn: sqlDB})
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pool configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	if cfg.DB.IsSQLite() {
		// SQLite serialises writers; one connection avoids SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.DB.ConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.DB.ConnMaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	l.Info("database connected successfully",
		zap.String("driver", driver),
		zap.Bool("tls", driver == "postgres" && cfg.App.IsProduction()),
		zap.Int("max_open_conns", cfg.DB.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.DB.MaxIdleConns),
		zap.Int("conn_max_lifetime_seconds", cfg.DB.ConnMaxLifetime),
		zap.Int("conn_max_idle_time_seconds", cfg.DB.ConnMaxIdleTime),
	)

	return db, nil
}

// openPostgres builds a pgx-backed *sql.DB. In production the connection is
// TLS-only; elsewhere it is plaintext whatever sslmode the URL names.
func openPostgres(cfg *config.Config) (*sql.DB, error) {
	connCfg, err := pgx.ParseConfig(cfg.DB.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}

	connCfg.TLSConfig = TLSConfig(cfg, connCfg.Host)
	connCfg.Fallbacks = nil

	return stdlib.OpenDB(*connCfg), nil
}

// TLSConfig returns the client TLS settings for host, or nil outside production.
// Certificate checks stay on unless DB_TLS_SKIP_VERIFY is set.
func TLSConfig(cfg *config.Config, host string) *tls.Config {
	if !cfg.App.IsProduction() {
		return nil
	}
	return &tls.Config{
		ServerName:         host,
		InsecureSkipVerify: cfg.DB.TLSSkipVerify, //nolint:gosec // opt-in for managed hosts with private CAs
		MinVersion:         tls.VersionTLS12,
	}
}

// CloseDatabase closes the database connection
func CloseDatabase(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
