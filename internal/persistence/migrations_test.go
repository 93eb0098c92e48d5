package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("CREATE TABLE a (x INT);\n\n  CREATE INDEX i ON a (x);\n")
	assert.Equal(t, []string{"CREATE TABLE a (x INT)", "CREATE INDEX i ON a (x)"}, stmts)
	assert.Empty(t, splitStatements(" ;\n; "))
}

func TestEmbeddedMigrationsLoad(t *testing.T) {
	for _, dir := range []string{"migrations/postgres", "migrations/sqlite"} {
		migrations, err := loadMigrations(dir)
		require.NoError(t, err)
		require.NotEmpty(t, migrations, dir)
		assert.Equal(t, "0001_init.sql", migrations[0].name)
		assert.Contains(t, migrations[0].sql, "CREATE TABLE IF NOT EXISTS tickets")
	}
}

func TestSQLiteMigrationsAreRerunnable(t *testing.T) {
	ctx := context.Background()
	lite, err := OpenSQLite(ctx, "file:"+t.Name()+"?mode=memory&cache=shared&_pragma=foreign_keys(on)")
	require.NoError(t, err)
	t.Cleanup(lite.Close)

	logger := zap.NewNop()
	require.NoError(t, RunSQLiteMigrations(ctx, lite.DB, logger))
	require.NoError(t, RunSQLiteMigrations(ctx, lite.DB, logger))

	var count int
	require.NoError(t, lite.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'user_roles', 'tickets')`,
	).Scan(&count))
	assert.Equal(t, 3, count)
}
