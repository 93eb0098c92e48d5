package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/ticketdesk/internal/config"
)

// Database is the relational store selected by configuration. Exactly one
// of Postgres and SQLite is set.
type Database struct {
	Driver   string
	Postgres *Postgres
	SQLite   *SQLite
}

// OpenDatabase connects the configured driver.
func OpenDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Database, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		pg, err := NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return &Database{Driver: config.StoreDriverPostgres, Postgres: pg}, nil
	case config.StoreDriverSQLite:
		lite, err := NewSQLite(ctx, cfg.SQLite, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return &Database{Driver: config.StoreDriverSQLite, SQLite: lite}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// Migrate applies the schema for the active driver.
func (d *Database) Migrate(ctx context.Context, logger *zap.Logger) error {
	if d.SQLite != nil {
		return RunSQLiteMigrations(ctx, d.SQLite.DB, logger)
	}
	return RunPostgresMigrations(ctx, d.Postgres.Pool, logger)
}

// Ping checks the active driver.
func (d *Database) Ping(ctx context.Context) error {
	if d == nil {
		return fmt.Errorf("database not configured")
	}
	if d.SQLite != nil {
		return d.SQLite.Ping(ctx)
	}
	return d.Postgres.Ping(ctx)
}

// Close releases the active driver.
func (d *Database) Close() {
	if d == nil {
		return
	}
	d.SQLite.Close()
	d.Postgres.Close()
}
