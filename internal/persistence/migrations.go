package persistence

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFS embed.FS

type migration struct {
	name string
	sql  string
}

func loadMigrations(dir string) ([]migration, error) {
	entries, err := fs.ReadDir(migrationFS, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	filenames := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		filenames = append(filenames, entry.Name())
	}
	sort.Strings(filenames)

	result := make([]migration, 0, len(filenames))
	for _, name := range filenames {
		content, err := fs.ReadFile(migrationFS, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		result = append(result, migration{name: name, sql: string(content)})
	}
	return result, nil
}

// RunPostgresMigrations executes the embedded postgres migrations in name order.
// Every migration is written to be re-runnable.
func RunPostgresMigrations(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	if pool == nil {
		logger.Warn("no postgres pool available; skipping migrations")
		return nil
	}

	migrations, err := loadMigrations("migrations/postgres")
	if err != nil {
		return err
	}
	for _, m := range migrations {
		logger.Info("applying migration", zap.String("driver", "postgres"), zap.String("file", m.name))
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.name, err)
		}
	}

	logger.Info("migrations applied", zap.Int("count", len(migrations)))
	return nil
}

// RunSQLiteMigrations executes the embedded sqlite migrations one statement at a time.
func RunSQLiteMigrations(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	migrations, err := loadMigrations("migrations/sqlite")
	if err != nil {
		return err
	}
	for _, m := range migrations {
		logger.Info("applying migration", zap.String("driver", "sqlite"), zap.String("file", m.name))
		for _, stmt := range splitStatements(m.sql) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", m.name, err)
			}
		}
	}

	logger.Info("migrations applied", zap.Int("count", len(migrations)))
	return nil
}

// splitStatements breaks a script on semicolons. Migrations must not put
// semicolons inside literals or trigger bodies.
func splitStatements(script string) []string {
	parts := strings.Split(script, ";")
	stmts := make([]string, 0, len(parts))
	for _, part := range parts {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
