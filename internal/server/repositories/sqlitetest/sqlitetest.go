// Package sqlitetest opens throwaway, fully migrated SQLite databases for tests.
package sqlitetest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/proofofplace/internal/server/migrations"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// Open returns a migrated database in a file under t.TempDir(). It is closed
// when the test finishes.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	return OpenAt(t, filepath.Join(t.TempDir(), "pop.db"))
}

// OpenAt opens the database file at path and migrates it. Calling it again
// with the same path yields an independent handle on the same data, the way
// separate server processes would see it.
func OpenAt(t testing.TB, path string) *sql.DB {
	t.Helper()

	dsn := "file:" + path +
		"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"

	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Up(context.Background(), db, "sqlite3", migrations.SQLiteDir))
	return db
}
