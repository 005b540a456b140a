// Package repository persists merchants and parse outcomes over SQL.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/receipts-parser/internal/common"
)

// DB is an open database handle. Pool is nil for sqlite.
type DB struct {
	Driver *entsql.Driver
	Pool   *pgxpool.Pool
}

// Open connects to the configured driver and wraps it for the SQL builders.
func Open(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Driver {
	case "sqlite":
		return openSQLite(cfg, logger)
	case "", "postgres":
		return openPostgres(ctx, cfg, logger)
	default:
		return nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("unknown db driver %q", cfg.Driver), common.ErrInvalidInput)
	}
}

func openPostgres(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	logger.Info("connecting to database", "driver", "postgres")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database dsn", "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = cfg.MinConns
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "receipts-parser"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprint(cfg.StatementTimeout.Milliseconds())
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}

	// Wrap pool as *sql.DB for the builders
	db := stdlib.OpenDBFromPool(pool)
	logger.Info("successfully connected to database")
	return &DB{Driver: entsql.OpenDB(dialect.Postgres, db), Pool: pool}, nil
}

// openSQLite expects a modernc DSN, e.g.
// "file:receipts.db?_pragma=foreign_keys(1)" or
// "file:x?mode=memory&cache=shared&_pragma=foreign_keys(1)".
func openSQLite(cfg common.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	logger.Info("opening database", "driver", "sqlite", "dsn", cfg.DSN)
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	// sqlite serializes writers anyway; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	return &DB{Driver: entsql.OpenDB(dialect.SQLite, db)}, nil
}

// Close closes the database connections gracefully.
func (d *DB) Close(logger *slog.Logger) {
	if d == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("closing database connections")
	if d.Driver != nil {
		if err := d.Driver.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}
	if d.Pool != nil {
		d.Pool.Close()
	}
	logger.Info("database connections closed")
}

// HealthCheck pings the database to catch DSN issues early.
func (d *DB) HealthCheck(ctx context.Context, timeout time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	var err error
	if d.Pool != nil {
		err = d.Pool.Ping(ctx)
	} else {
		err = d.Driver.DB().PingContext(ctx)
	}
	if err != nil {
		logger.Error("database ping failed", "error", err)
		return fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	logger.Debug("database ping successful")
	return nil
}
