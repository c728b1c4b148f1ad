// Package services contains server-side business logic. This file implements
// VerificationService: the prepare, finalize and verify lifecycle of a
// proof-of-place token plus the read-side lookups.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/proofofplace/internal/common"
	"github.com/dmitrijs2005/proofofplace/internal/dbx"
	"github.com/dmitrijs2005/proofofplace/internal/logging"
	"github.com/dmitrijs2005/proofofplace/internal/nostrx"
	"github.com/dmitrijs2005/proofofplace/internal/server/archive"
	"github.com/dmitrijs2005/proofofplace/internal/server/config"
	"github.com/dmitrijs2005/proofofplace/internal/server/events"
	"github.com/dmitrijs2005/proofofplace/internal/server/metrics"
	"github.com/dmitrijs2005/proofofplace/internal/server/models"
	"github.com/dmitrijs2005/proofofplace/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// TokenBytes is the amount of randomness in a verification token.
const TokenBytes = 32

// VerifySuccessMessage accompanies a successful verify.
const VerifySuccessMessage = "Verification successful"

type PrepareInput struct {
	RecipientNpub   string `json:"recipientNpub"`
	MerchantName    string `json:"merchantName"`
	MerchantAddress string `json:"merchantAddress"`
	CustomMessage   string `json:"customMessage"`
}

// PrepareResult is the only place the token is ever handed out.
type PrepareResult struct {
	Token           string `json:"token"`
	VerificationURL string `json:"verificationUrl"`
}

// VerificationWithNote pairs a verification with its note; Note is nil when
// the verification has not been finalized and the caller allows that.
type VerificationWithNote struct {
	Verification *models.Verification `json:"verification"`
	Note         *models.Note         `json:"note"`
}

type VerifyResult struct {
	Message      string                    `json:"message"`
	Verification models.PublicVerification `json:"verification"`
	Note         *models.Note              `json:"note"`
}

type VerificationService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	publicBaseURL string
	verifier      nostrx.Verifier
	archiver      archive.Archiver
	publisher     events.Publisher
	log           logging.Logger
	now           func() time.Time
	newToken      func() (string, error)
}

type Option func(*VerificationService)

// WithVerifier replaces the signature check.
func WithVerifier(v nostrx.Verifier) Option {
	return func(s *VerificationService) { s.verifier = v }
}

func WithArchiver(a archive.Archiver) Option {
	return func(s *VerificationService) { s.archiver = a }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *VerificationService) { s.publisher = p }
}

func WithLogger(l logging.Logger) Option {
	return func(s *VerificationService) { s.log = l.With("module", "verifications") }
}

// WithClock is used by tests to pin timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *VerificationService) { s.now = now }
}

func NewVerificationService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, opts ...Option) *VerificationService {
	s := &VerificationService{
		db:            db,
		repomanager:   m,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		verifier:      nostrx.SchnorrVerifier{},
		archiver:      archive.Nop(),
		publisher:     events.Nop(),
		log:           logging.Nop(),
		now:           time.Now,
		newToken:      func() (string, error) { return common.MakeRandHexString(TokenBytes) },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// timestamps are stored with microsecond precision by both stores
func (s *VerificationService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func checkToken(token string) error {
	if len(token) < common.MinTokenLength {
		return fmt.Errorf("%w: token must be at least %d characters", common.ErrInvalidInput, common.MinTokenLength)
	}
	return nil
}

// NoteURL is the printed link for a reserved note id.
func (s *VerificationService) NoteURL(noteID string) string {
	return s.publicBaseURL + "/note/" + noteID
}

// Prepare creates a pending verification for the recipient and returns its
// token and printable URL.
func (s *VerificationService) Prepare(ctx context.Context, in PrepareInput) (*PrepareResult, error) {
	if !nostrx.ValidNpub(in.RecipientNpub) {
		return nil, fmt.Errorf("%w: invalid npub format", common.ErrInvalidInput)
	}

	token, err := s.newToken()
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	v := &models.Verification{
		ID:              uuid.NewString(),
		RecipientNpub:   in.RecipientNpub,
		MerchantName:    in.MerchantName,
		MerchantAddress: in.MerchantAddress,
		CustomMessage:   in.CustomMessage,
		Token:           token,
		NoteID:          uuid.NewString(),
		Status:          common.StatusPending,
		CreatedAt:       s.timestamp(),
	}

	if err := s.repomanager.Verifications(s.db).Create(ctx, v); err != nil {
		return nil, fmt.Errorf("error creating verification: %w", err)
	}

	metrics.VerificationsPrepared.Inc()
	s.log.Info(ctx, "verification prepared", "verification_id", v.ID, "note_id", v.NoteID)

	return &PrepareResult{Token: token, VerificationURL: s.NoteURL(v.NoteID)}, nil
}

// Finalize attaches the sender-signed note to the verification behind token.
// It succeeds at most once per verification.
func (s *VerificationService) Finalize(ctx context.Context, token string, evt *nostrx.Event) (*VerificationWithNote, error) {
	res, err := s.finalize(ctx, token, evt)
	metrics.VerificationsFinalized.WithLabelValues(outcome(err, metrics.OutcomeFinalized)).Inc()
	return res, err
}

func (s *VerificationService) finalize(ctx context.Context, token string, evt *nostrx.Event) (*VerificationWithNote, error) {
	if err := checkToken(token); err != nil {
		return nil, err
	}
	if err := nostrx.ValidateEvent(evt); err != nil {
		return nil, err
	}

	v, err := s.repomanager.Verifications(s.db).GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error searching verification: %w", err)
	}

	ok, err := s.verifier.Verify(evt)
	if err != nil || !ok {
		s.log.Warn(ctx, "rejected signed event", "verification_id", v.ID, "event_id", evt.ID, "error", err)
		return nil, common.ErrSignatureInvalid
	}

	senderNpub, err := nostrx.NpubFromPubKey(evt.PubKey)
	if err != nil {
		return nil, err
	}
	raw, err := nostrx.MarshalIndented(evt)
	if err != nil {
		return nil, err
	}

	note := &models.Note{
		ID:               v.NoteID,
		VerificationID:   v.ID,
		EncryptedContent: evt.Content,
		SenderNpub:       senderNpub,
		NostrEvent:       raw,
		CreatedAt:        s.timestamp(),
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Verifications(tx).ClaimCreator(ctx, v.ID, senderNpub); err != nil {
			return err
		}
		return s.repomanager.Notes(tx).Create(ctx, note)
	})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyFinalized) {
			return nil, err
		}
		return nil, fmt.Errorf("error finalizing verification: %w", err)
	}
	v.CreatedBy = senderNpub

	if key, err := s.archiver.ArchiveEvent(ctx, v.ID, []byte(raw)); err != nil {
		metrics.SideEffectErrors.WithLabelValues("archive").Inc()
		s.log.Error(ctx, "failed to archive signed event", "verification_id", v.ID, "error", err)
	} else if key != "" {
		s.log.Debug(ctx, "signed event archived", "verification_id", v.ID, "key", key)
	}

	s.log.Info(ctx, "verification finalized", "verification_id", v.ID, "sender", senderNpub)
	return &VerificationWithNote{Verification: v, Note: note}, nil
}

// Verify consumes token. Exactly one of any number of concurrent calls with
// the same token succeeds; the state change relies solely on the store's
// conditional update.
func (s *VerificationService) Verify(ctx context.Context, token string) (*VerifyResult, error) {
	res, err := s.verify(ctx, token)
	metrics.VerifyAttempts.WithLabelValues(outcome(err, metrics.OutcomeVerified)).Inc()
	return res, err
}

func (s *VerificationService) verify(ctx context.Context, token string) (*VerifyResult, error) {
	if err := checkToken(token); err != nil {
		return nil, err
	}

	repo := s.repomanager.Verifications(s.db)

	v, err := repo.MarkVerified(ctx, token, s.timestamp())
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("error verifying token: %w", err)
		}
		return nil, s.explainVerifyMiss(ctx, token)
	}

	note, err := s.repomanager.Notes(s.db).GetByVerificationID(ctx, v.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.log.Error(ctx, "verified verification has no note", "verification_id", v.ID)
			return nil, common.ErrInconsistent
		}
		return nil, fmt.Errorf("error loading note: %w", err)
	}

	if err := s.publisher.PublishVerified(ctx, events.Verified{
		VerificationID: v.ID,
		NoteID:         note.ID,
		RecipientNpub:  v.RecipientNpub,
		SenderNpub:     note.SenderNpub,
		VerifiedAt:     *v.VerifiedAt,
	}); err != nil {
		metrics.SideEffectErrors.WithLabelValues("publish").Inc()
		s.log.Error(ctx, "failed to publish verified event", "verification_id", v.ID, "error", err)
	}

	s.log.Info(ctx, "verification verified", "verification_id", v.ID)
	return &VerifyResult{Message: VerifySuccessMessage, Verification: v.Public(), Note: note}, nil
}

// explainVerifyMiss turns a failed conditional update into the reason the
// caller should see.
func (s *VerificationService) explainVerifyMiss(ctx context.Context, token string) error {
	v, err := s.repomanager.Verifications(s.db).GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return fmt.Errorf("error searching verification: %w", err)
	}
	if v.Status != common.StatusPending {
		return common.ErrAlreadyUsed
	}
	return common.ErrNotFinalized
}

func outcome(err error, success string) string {
	switch {
	case err == nil:
		return success
	case errors.Is(err, common.ErrAlreadyUsed), errors.Is(err, common.ErrAlreadyFinalized):
		return metrics.OutcomeAlreadyUsed
	case errors.Is(err, common.ErrorNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, common.ErrNotFinalized):
		return metrics.OutcomeNotFinalized
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrSignatureInvalid):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}

func checkID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: id is required", common.ErrInvalidInput)
	}
	return nil
}

func (s *VerificationService) getVerification(ctx context.Context, id string, noteRequired bool) (*VerificationWithNote, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	v, err := s.repomanager.Verifications(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	note, err := s.repomanager.Notes(s.db).GetByVerificationID(ctx, v.ID)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) || noteRequired {
			return nil, err
		}
		note = nil
	}
	return &VerificationWithNote{Verification: v, Note: note}, nil
}

// GetVerification returns the verification and its note, if any.
func (s *VerificationService) GetVerification(ctx context.Context, id string) (*VerificationWithNote, error) {
	return s.getVerification(ctx, id, false)
}

// GetVerificationWithNote is GetVerification for finalized verifications
// only; a missing note is reported as common.ErrorNotFound.
func (s *VerificationService) GetVerificationWithNote(ctx context.Context, id string) (*VerificationWithNote, error) {
	return s.getVerification(ctx, id, true)
}

// GetNote resolves a printed note URL to the note and its verification.
func (s *VerificationService) GetNote(ctx context.Context, noteID string) (*VerificationWithNote, error) {
	if err := checkID(noteID); err != nil {
		return nil, err
	}

	note, err := s.repomanager.Notes(s.db).GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	v, err := s.repomanager.Verifications(s.db).GetByID(ctx, note.VerificationID)
	if err != nil {
		return nil, err
	}
	return &VerificationWithNote{Verification: v, Note: note}, nil
}

func (s *VerificationService) ListVerified(ctx context.Context) ([]*models.Verification, error) {
	return s.repomanager.Verifications(s.db).ListByStatus(ctx, common.StatusVerified)
}

// ListPendingByCreator returns the pending verifications finalized by npub.
func (s *VerificationService) ListPendingByCreator(ctx context.Context, npub string) ([]*models.Verification, error) {
	if npub == "" {
		return nil, common.ErrorUnauthorized
	}
	return s.repomanager.Verifications(s.db).ListPendingByCreator(ctx, npub)
}

func (s *VerificationService) ListAll(ctx context.Context) ([]*models.Verification, error) {
	return s.repomanager.Verifications(s.db).ListAll(ctx)
}

// ClearResult reports how many rows Clear removed.
type ClearResult struct {
	Notes         int64
	Verifications int64
}

// Clear deletes every note and verification in one transaction.
func (s *VerificationService) Clear(ctx context.Context) (*ClearResult, error) {
	res := &ClearResult{}
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if res.Notes, err = s.repomanager.Notes(tx).DeleteAll(ctx); err != nil {
			return err
		}
		res.Verifications, err = s.repomanager.Verifications(tx).DeleteAll(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error clearing store: %w", err)
	}
	s.log.Warn(ctx, "store cleared", "notes", res.Notes, "verifications", res.Verifications)
	return res, nil
}
