// Package notes stores the encrypted Nostr notes that finalize verifications.
package notes

import (
	"context"

	"github.com/dmitrijs2005/proofofplace/internal/server/models"
)

// Repository persists notes. A verification has at most one note; Create
// returns common.ErrAlreadyFinalized when that would be violated.
type Repository interface {
	Create(ctx context.Context, n *models.Note) error
	GetByID(ctx context.Context, id string) (*models.Note, error)
	GetByVerificationID(ctx context.Context, verificationID string) (*models.Note, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}
