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

const pgColumns = `id, recipient_npub, merchant_name, physical_address, custom_message,
		token, note_id, created_by, status, created_at, verified_at`

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanPostgres(row rowScanner) (*models.Verification, error) {
	v := &models.Verification{}
	var verifiedAt sql.NullTime
	err := row.Scan(&v.ID, &v.RecipientNpub, &v.MerchantName, &v.MerchantAddress, &v.CustomMessage,
		&v.Token, &v.NoteID, &v.CreatedBy, &v.Status, &v.CreatedAt, &verifiedAt)
	if err != nil {
		return nil, err
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		v.VerifiedAt = &t
	}
	return v, nil
}

func (r *PostgresRepository) Create(ctx context.Context, v *models.Verification) error {
	query := `
		INSERT INTO verifications (id, recipient_npub, merchant_name, physical_address, custom_message,
			token, note_id, created_by, status, created_at, verified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query, v.ID, v.RecipientNpub, v.MerchantName, v.MerchantAddress, v.CustomMessage,
		v.Token, v.NoteID, v.CreatedBy, v.Status, v.CreatedAt, v.VerifiedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*models.Verification, error) {
	v, err := scanPostgres(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Verification, error) {
	return r.getOne(ctx, `SELECT `+pgColumns+` FROM verifications WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*models.Verification, error) {
	return r.getOne(ctx, `SELECT `+pgColumns+` FROM verifications WHERE token = $1`, token)
}

func (r *PostgresRepository) ClaimCreator(ctx context.Context, id string, creatorNpub string) error {
	query := `UPDATE verifications SET created_by = $2 WHERE id = $1 AND created_by = ''`

	res, err := r.db.ExecContext(ctx, query, id, creatorNpub)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
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

func (r *PostgresRepository) MarkVerified(ctx context.Context, token string, at time.Time) (*models.Verification, error) {
	query := `
		UPDATE verifications
		SET status = 'verified', verified_at = $2
		WHERE token = $1
		  AND status = 'pending'
		  AND EXISTS (SELECT 1 FROM notes WHERE notes.verification_id = verifications.id)
		RETURNING ` + pgColumns

	v, err := scanPostgres(r.db.QueryRowContext(ctx, query, token, at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Verification, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select verifications: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Verification, 0)
	for rows.Next() {
		v, err := scanPostgres(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) ListByStatus(ctx context.Context, status string) ([]*models.Verification, error) {
	return r.list(ctx, `SELECT `+pgColumns+` FROM verifications WHERE status = $1 ORDER BY created_at DESC`, status)
}

func (r *PostgresRepository) ListPendingByCreator(ctx context.Context, creatorNpub string) ([]*models.Verification, error) {
	return r.list(ctx, `SELECT `+pgColumns+` FROM verifications WHERE status = 'pending' AND created_by = $1 ORDER BY created_at DESC`, creatorNpub)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.Verification, error) {
	return r.list(ctx, `SELECT `+pgColumns+` FROM verifications ORDER BY created_at DESC`)
}

func (r *PostgresRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM verifications`)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
