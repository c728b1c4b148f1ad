package migrations

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedDirectories(t *testing.T) {
	for _, dir := range []string{PostgresDir, SQLiteDir} {
		entries, err := fs.ReadDir(Migrations, dir)
		require.NoError(t, err)
		assert.Len(t, entries, 2, dir)
	}
}

func TestUp_PassesDirectory(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	var gotDir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}

	require.NoError(t, Up(context.Background(), nil, "pgx", PostgresDir))
	assert.Equal(t, PostgresDir, gotDir)
}

func TestUp_WrapsError(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}

	err := Up(context.Background(), nil, "sqlite3", SQLiteDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestUp_UnknownDialect(t *testing.T) {
	err := Up(context.Background(), nil, "oracle-ish", SQLiteDir)
	require.Error(t, err)
}
