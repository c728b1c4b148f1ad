package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/proofofplace/internal/common"
	"github.com/dmitrijs2005/proofofplace/internal/dbx"
	"github.com/dmitrijs2005/proofofplace/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	columns = `id, verification_id, encrypted_content, sender_npub, nostr_event, created_at`

	pgUniqueViolation = "23505"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanPostgres(row rowScanner) (*models.Note, error) {
	n := &models.Note{}
	if err := row.Scan(&n.ID, &n.VerificationID, &n.EncryptedContent, &n.SenderNpub, &n.NostrEvent, &n.CreatedAt); err != nil {
		return nil, err
	}
	return n, nil
}

func (r *PostgresRepository) Create(ctx context.Context, n *models.Note) error {
	query := `
		INSERT INTO notes (` + columns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query, n.ID, n.VerificationID, n.EncryptedContent, n.SenderNpub, n.NostrEvent, n.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return common.ErrAlreadyFinalized
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*models.Note, error) {
	n, err := scanPostgres(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Note, error) {
	return r.getOne(ctx, `SELECT `+columns+` FROM notes WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByVerificationID(ctx context.Context, verificationID string) (*models.Note, error) {
	return r.getOne(ctx, `SELECT `+columns+` FROM notes WHERE verification_id = $1`, verificationID)
}

func (r *PostgresRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes`)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
