package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "modernc.org/sqlite"

	"github.com/jayvaidya30/FraudEx/internal/common"
)

// CloseFunc releases the repository's underlying connections.
type CloseFunc func()

// Open builds a CaseRepository for the configured DSN. Postgres DSNs get a
// pgx pool; sqlite DSNs (the dev default) go through database/sql with the
// modernc driver. The repository owns its connections and works from
// contexts without a live HTTP request.
func Open(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (CaseRepository, CloseFunc, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if isSQLiteDSN(cfg.DSN) {
		db, err := openSQLite(cfg.DSN, logger)
		if err != nil {
			return nil, nil, err
		}
		repo := NewSQLiteCaseRepository(db, logger)
		return repo, func() { closeSQLite(db, logger) }, nil
	}

	pool, err := openPostgres(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	repo := NewPostgresCaseRepository(pool, logger)
	return repo, pool.Close, nil
}

func isSQLiteDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "sqlite://") || strings.HasSuffix(dsn, ".db")
}

// openPostgres creates a pgx pool with the configured limits.
func openPostgres(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	logger.Info("connecting to database", "dsn", cfg.DSN)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database config", "error", err)
		return nil, err
	}

	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "fraudex"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = cfg.StatementTimeout.String()
	}

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	logger.Info("successfully connected to database")
	return pool, nil
}

func openSQLite(dsn string, logger *slog.Logger) (*sql.DB, error) {
	path := strings.TrimPrefix(dsn, "sqlite://")
	logger.Info("opening sqlite database", "path", path)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		logger.Error("failed to open sqlite database", "path", path, "error", err)
		return nil, err
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under the worker pool.
	db.SetMaxOpenConns(1)
	return db, nil
}

func closeSQLite(db *sql.DB, logger *slog.Logger) {
	logger.Info("closing database connections")
	if err := db.Close(); err != nil {
		logger.Error("failed to close sqlite database", "error", err)
	}
}

// HealthCheck pings the repository's store to catch DSN issues early.
func HealthCheck(ctx context.Context, repo CaseRepository, timeout time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := repo.Ping(ctx); err != nil {
		return err
	}
	logger.Debug("database ping successful")
	return nil
}
