// Package sqlitetest opens migrated SQLite databases for tests.
package sqlitetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/todolist/todolist-go/internal/repository"
)

// Open creates a file-backed SQLite database under t.TempDir, applies all
// migrations and closes it when the test finishes. Foreign keys are enforced.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"

	ctx := context.Background()
	db, err := repository.NewDB(ctx, repository.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, repository.Migrate(ctx, db))
	return db
}
