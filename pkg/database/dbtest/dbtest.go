// Package dbtest opens a migrated, throwaway Postgres schema for repository
// tests. Tests are skipped unless TEST_DATABASE_URL is set.
package dbtest

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fjord-bootcamp/backend/pkg/database"
)

// EnvDSN names the variable holding the test database DSN.
const EnvDSN = "TEST_DATABASE_URL"

// Open creates a fresh schema, migrates it and returns a pool bound to it.
// The schema is dropped when the test ends.
func Open(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		t.Skipf("%s not set", EnvDSN)
	}
	ctx := context.Background()

	admin, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
		admin.Close()
	})

	pool, err := database.NewPostgresPool(ctx, dsn, database.PoolConfig{SearchPath: schema}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, database.Migrate(ctx, pool, zap.NewNop()))
	return pool
}

// InsertID runs an INSERT ... RETURNING id and returns the id.
func InsertID(t *testing.T, pool *pgxpool.Pool, query string, args ...any) int64 {
	t.Helper()
	var id int64
	require.NoError(t, pool.QueryRow(context.Background(), query, args...).Scan(&id))
	return id
}

// User inserts a user with the given login name and returns its id.
func User(t *testing.T, pool *pgxpool.Pool, login string) int64 {
	t.Helper()
	return InsertID(t, pool,
		`INSERT INTO users (login_name, name, email, password_hash) VALUES ($1, $1, $1 || '@example.com', 'x') RETURNING id`,
		login)
}
