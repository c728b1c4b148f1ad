package verifications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/proofofplace/internal/common"
	"github.com/dmitrijs2005/proofofplace/internal/dbx"
	"github.com/dmitrijs2005/proofofplace/internal/server/models"
)

const sqliteColumns = pgColumns

// SQLiteRepository implements Repository for the embedded SQLite store.
// Timestamps are kept as fixed-width UTC TEXT (dbx.TimeLayout).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func scanSQLite(row rowScanner) (*models.Verification, error) {
	v := &models.Verification{}
	var createdAt, verifiedAt dbx.Timestamp
	err := row.Scan(&v.ID, &v.RecipientNpub, &v.MerchantName, &v.MerchantAddress, &v.CustomMessage,
		&v.Token, &v.NoteID, &v.CreatedBy, &v.Status, &createdAt, &verifiedAt)
	if err != nil {
		return nil, err
	}
	v.CreatedAt = createdAt.Time
	v.VerifiedAt = verifiedAt.Ptr()
	return v, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return dbx.FormatTime(*t)
}

func (r *SQLiteRepository) Create(ctx context.Context, v *models.Verification) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO verifications (id, recipient_npub, merchant_name, physical_address, custom_message,
			token, note_id, created_by, status, created_at, verified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, v.ID, v.RecipientNpub, v.MerchantName, v.MerchantAddress, v.CustomMessage,
		v.Token, v.NoteID, v.CreatedBy, v.Status, dbx.FormatTime(v.CreatedAt), nullableTime(v.VerifiedAt))
	if err != nil {
		return fmt.Errorf("failed to insert verification: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) getOne(ctx context.Context, query string, arg string) (*models.Verification, error) {
	v, err := scanSQLite(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get verification: %w", err)
	}
	return v, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Verification, error) {
	return r.getOne(ctx, `SELECT `+sqliteColumns+` FROM verifications WHERE id = ?`, id)
}

func (r *SQLiteRepository) GetByToken(ctx context.Context, token string) (*models.Verification, error) {
	return r.getOne(ctx, `SELECT `+sqliteColumns+` FROM verifications WHERE token = ?`, token)
}

func (r *SQLiteRepository) ClaimCreator(ctx context.Context, id string, creatorNpub string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE verifications SET created_by = ? WHERE id = ? AND created_by = ''`, creatorNpub, id)
	if err != nil {
		return fmt.Errorf("failed to claim verification: %w", err)
	}
	ok, err := dbx.AffectedOne(res)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrAlreadyFinalized
	}
	return nil
}

func (r *SQLiteRepository) MarkVerified(ctx context.Context, token string, at time.Time) (*models.Verification, error) {
	v, err := scanSQLite(r.db.QueryRowContext(ctx, `
		UPDATE verifications
		SET status = 'verified', verified_at = ?
		WHERE token = ?
		  AND status = 'pending'
		  AND EXISTS (SELECT 1 FROM notes WHERE notes.verification_id = verifications.id)
		RETURNING `+sqliteColumns, dbx.FormatTime(at), token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark verification verified: %w", err)
	}
	return v, nil
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]*models.Verification, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list verifications: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Verification, 0)
	for rows.Next() {
		v, err := scanSQLite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan verification row: %w", err)
		}
		result = append(result, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate verification rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) ListByStatus(ctx context.Context, status string) ([]*models.Verification, error) {
	return r.list(ctx, `SELECT `+sqliteColumns+` FROM verifications WHERE status = ? ORDER BY created_at DESC`, status)
}

func (r *SQLiteRepository) ListPendingByCreator(ctx context.Context, creatorNpub string) ([]*models.Verification, error) {
	return r.list(ctx, `SELECT `+sqliteColumns+` FROM verifications WHERE status = 'pending' AND created_by = ? ORDER BY created_at DESC`, creatorNpub)
}

func (r *SQLiteRepository) ListAll(ctx context.Context) ([]*models.Verification, error) {
	return r.list(ctx, `SELECT `+sqliteColumns+` FROM verifications ORDER BY created_at DESC`)
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM verifications`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear verifications: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
