// Package verifications declares the store contract for Verification records
// and its PostgreSQL and SQLite implementations.
package verifications

import (
	"context"
	"time"

	"github.com/dmitrijs2005/proofofplace/internal/server/models"
)

// Repository persists verifications. Status, VerifiedAt and CreatedBy are only
// ever changed by the conditional methods ClaimCreator and MarkVerified.
type Repository interface {
	// Create inserts a new verification row.
	Create(ctx context.Context, v *models.Verification) error

	// GetByID and GetByToken return common.ErrorNotFound when no row matches.
	GetByID(ctx context.Context, id string) (*models.Verification, error)
	GetByToken(ctx context.Context, token string) (*models.Verification, error)

	// ClaimCreator records the sender npub if no sender has been recorded yet.
	// It returns common.ErrAlreadyFinalized when the claim was taken before.
	ClaimCreator(ctx context.Context, id string, creatorNpub string) error

	// MarkVerified atomically moves a pending verification that already has a
	// note to verified and returns the updated row. When the predicate does not
	// hold it returns common.ErrorNotFound and leaves the row untouched.
	MarkVerified(ctx context.Context, token string, at time.Time) (*models.Verification, error)

	// ListByStatus returns verifications with the given status, newest first.
	ListByStatus(ctx context.Context, status string) ([]*models.Verification, error)

	// ListPendingByCreator returns pending verifications finalized by creatorNpub, newest first.
	ListPendingByCreator(ctx context.Context, creatorNpub string) ([]*models.Verification, error)

	// ListAll returns every verification, newest first.
	ListAll(ctx context.Context) ([]*models.Verification, error)

	// DeleteAll removes every verification and reports how many were deleted.
	// Notes must be deleted first.
	DeleteAll(ctx context.Context) (int64, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}
