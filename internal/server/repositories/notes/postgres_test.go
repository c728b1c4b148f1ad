package notes

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/proofofplace/internal/common"
	"github.com/dmitrijs2005/proofofplace/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

func TestPostgresCreate(t *testing.T) {
	now := time.Now().UTC()
	note := &models.Note{ID: "n1", VerificationID: "v1", EncryptedContent: "ct", SenderNpub: "npub1s", NostrEvent: "{}", CreatedAt: now}
	q := `(?s)INSERT\s+INTO\s+notes\s*\(id,.*VALUES\s*\(\$1,.*\$6\)`

	tests := []struct {
		name    string
		execErr error
		wantIs  error
		wantErr bool
	}{
		{name: "ok"},
		{name: "unique violation", execErr: &pgconn.PgError{Code: "23505"}, wantIs: common.ErrAlreadyFinalized, wantErr: true},
		{name: "fk violation", execErr: &pgconn.PgError{Code: "23503"}, wantErr: true},
		{name: "other", execErr: errors.New("conn reset"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			exp := mock.ExpectExec(q).WithArgs("n1", "v1", "ct", "npub1s", "{}", now)
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, 1))
			}

			err := repo.Create(context.Background(), note)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			} else {
				assert.NotErrorIs(t, err, common.ErrAlreadyFinalized)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresGetByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`FROM\s+notes\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs("n1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "verification_id", "encrypted_content", "sender_npub", "nostr_event", "created_at"}).
			AddRow("n1", "v1", "ct", "npub1s", "{}", now))

	got, err := repo.GetByID(context.Background(), "n1")
	require.NoError(t, err)
	assert.Equal(t, &models.Note{ID: "n1", VerificationID: "v1", EncryptedContent: "ct", SenderNpub: "npub1s", NostrEvent: "{}", CreatedAt: now}, got)
}

func TestPostgresGetByVerificationID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+notes\s+WHERE\s+verification_id\s*=\s*\$1`).
		WithArgs("v1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByVerificationID(context.Background(), "v1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPostgresDeleteAll(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE\s+FROM\s+notes$`).WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.DeleteAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
