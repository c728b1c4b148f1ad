package notes

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/proofofplace/internal/common"
	"github.com/dmitrijs2005/proofofplace/internal/dbx"
	"github.com/dmitrijs2005/proofofplace/internal/server/models"
	"github.com/dmitrijs2005/proofofplace/internal/server/repositories/sqlitetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedVerification(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO verifications (id, recipient_npub, token, note_id, status, created_at)
		VALUES (?, 'npub1r', ?, ?, 'pending', ?)`, id, "tok-"+id, "note-"+id, dbx.FormatTime(time.Now()))
	require.NoError(t, err)
}

func TestSQLiteCreateAndGet(t *testing.T) {
	db := sqlitetest.Open(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()
	seedVerification(t, db, "v1")

	n := &models.Note{
		ID:               "note-v1",
		VerificationID:   "v1",
		EncryptedContent: "ciphertext?iv=abc",
		SenderNpub:       "npub1sender",
		NostrEvent:       `{"kind":4}`,
		CreatedAt:        time.Date(2025, 2, 3, 4, 5, 6, 7000, time.UTC),
	}
	require.NoError(t, repo.Create(ctx, n))

	got, err := repo.GetByID(ctx, "note-v1")
	require.NoError(t, err)
	assert.Equal(t, n, got)

	got, err = repo.GetByVerificationID(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, "note-v1", got.ID)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSQLiteCreate_OneNotePerVerification(t *testing.T) {
	db := sqlitetest.Open(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()
	seedVerification(t, db, "v1")

	first := &models.Note{ID: "n1", VerificationID: "v1", EncryptedContent: "a", SenderNpub: "s", NostrEvent: "{}", CreatedAt: time.Now()}
	second := &models.Note{ID: "n2", VerificationID: "v1", EncryptedContent: "b", SenderNpub: "s", NostrEvent: "{}", CreatedAt: time.Now()}

	require.NoError(t, repo.Create(ctx, first))
	assert.ErrorIs(t, repo.Create(ctx, second), common.ErrAlreadyFinalized)
}

func TestSQLiteCreate_UnknownVerification(t *testing.T) {
	db := sqlitetest.Open(t)
	repo := NewSQLiteRepository(db)

	err := repo.Create(context.Background(), &models.Note{ID: "n1", VerificationID: "ghost", NostrEvent: "{}", CreatedAt: time.Now()})
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrAlreadyFinalized)
}

func TestSQLiteDeleteAll(t *testing.T) {
	db := sqlitetest.Open(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()
	seedVerification(t, db, "v1")
	seedVerification(t, db, "v2")

	require.NoError(t, repo.Create(ctx, &models.Note{ID: "n1", VerificationID: "v1", NostrEvent: "{}", CreatedAt: time.Now()}))
	require.NoError(t, repo.Create(ctx, &models.Note{ID: "n2", VerificationID: "v2", NostrEvent: "{}", CreatedAt: time.Now()}))

	n, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
