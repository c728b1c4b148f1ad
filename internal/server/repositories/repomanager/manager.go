// Package repomanager vends store-specific repository implementations and
// applies the matching schema migrations.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/proofofplace/internal/dbx"
	"github.com/dmitrijs2005/proofofplace/internal/server/repositories/notes"
	"github.com/dmitrijs2005/proofofplace/internal/server/repositories/verifications"
)

// Supported values for the database driver setting.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Verifications(db dbx.DBTX) verifications.Repository
	Notes(db dbx.DBTX) notes.Repository
}

// Open connects to the configured store and returns the manager that
// matches it. The caller owns the returned *sql.DB.
func Open(driver, dsn string) (*sql.DB, RepositoryManager, error) {
	switch driver {
	case DriverPostgres:
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		m, err := NewPostgresRepositoryManager(db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return db, m, nil
	case DriverSQLite:
		db, err := sql.Open("sqlite", SQLiteDSN(dsn))
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		m, err := NewSQLiteRepositoryManager(db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return db, m, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
