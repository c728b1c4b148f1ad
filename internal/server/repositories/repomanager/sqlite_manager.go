package repomanager

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dmitrijs2005/proofofplace/internal/dbx"
	"github.com/dmitrijs2005/proofofplace/internal/server/migrations"
	"github.com/dmitrijs2005/proofofplace/internal/server/repositories/notes"
	"github.com/dmitrijs2005/proofofplace/internal/server/repositories/verifications"
	_ "modernc.org/sqlite"
)

const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"

// SQLiteDSN turns a plain file path into a modernc DSN with the pragmas the
// store relies on. DSNs that already carry a query string are left alone.
func SQLiteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	return path + "?" + sqlitePragmas
}

// SQLiteRepositoryManager vends repositories for the embedded SQLite store.
type SQLiteRepositoryManager struct{}

func (m *SQLiteRepositoryManager) Verifications(db dbx.DBTX) verifications.Repository {
	return verifications.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Notes(db dbx.DBTX) notes.Repository {
	return notes.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrateUp(ctx, db, "sqlite3", migrations.SQLiteDir)
}

// NewSQLiteRepositoryManager limits db to a single connection; SQLite
// serializes writers anyway and this keeps conditional updates from
// racing into SQLITE_BUSY.
func NewSQLiteRepositoryManager(db *sql.DB) (RepositoryManager, error) {
	db.SetMaxOpenConns(1)
	return &SQLiteRepositoryManager{}, nil
}
