package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/proofofplace/internal/common"
	"github.com/dmitrijs2005/proofofplace/internal/dbx"
	"github.com/dmitrijs2005/proofofplace/internal/server/models"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func scanSQLite(row rowScanner) (*models.Note, error) {
	n := &models.Note{}
	var createdAt dbx.Timestamp
	if err := row.Scan(&n.ID, &n.VerificationID, &n.EncryptedContent, &n.SenderNpub, &n.NostrEvent, &createdAt); err != nil {
		return nil, err
	}
	n.CreatedAt = createdAt.Time
	return n, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

func (r *SQLiteRepository) Create(ctx context.Context, n *models.Note) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notes (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`, n.ID, n.VerificationID, n.EncryptedContent, n.SenderNpub, n.NostrEvent, dbx.FormatTime(n.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrAlreadyFinalized
		}
		return fmt.Errorf("failed to insert note: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) getOne(ctx context.Context, query string, arg string) (*models.Note, error) {
	n, err := scanSQLite(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Note, error) {
	return r.getOne(ctx, `SELECT `+columns+` FROM notes WHERE id = ?`, id)
}

func (r *SQLiteRepository) GetByVerificationID(ctx context.Context, verificationID string) (*models.Note, error) {
	return r.getOne(ctx, `SELECT `+columns+` FROM notes WHERE verification_id = ?`, verificationID)
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear notes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
