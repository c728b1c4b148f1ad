// Package services holds the client-side proof-of-place flows: attesting to
// a recipient's presence and redeeming a received attestation.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/proofofplace/internal/client/client"
	"github.com/dmitrijs2005/proofofplace/internal/common"
	"github.com/dmitrijs2005/proofofplace/internal/nostrx"
	gs "github.com/dmitrijs2005/proofofplace/internal/server/grpc"
	"github.com/nbd-wtf/go-nostr"
)

var ErrNotRecipient = errors.New("note is not addressed to this key")

type AttestInput struct {
	RecipientNpub   string
	MerchantName    string
	MerchantAddress string
	CustomMessage   string
}

type Attestation struct {
	VerificationID  string
	NoteID          string
	VerificationURL string
}

type OpenedNote struct {
	Note      *gs.VerificationResponse
	Plaintext string
	Token     string
}

type AttestService interface {
	Attest(ctx context.Context, keys *nostrx.Keys, in AttestInput) (*Attestation, error)
	Open(ctx context.Context, keys *nostrx.Keys, noteID string) (*OpenedNote, error)
	Redeem(ctx context.Context, keys *nostrx.Keys, noteID string) (*gs.VerifyResponse, error)
	Status(ctx context.Context, verificationID string) (*gs.VerificationResponse, error)
	Ping(ctx context.Context) error
	Close() error
}

type attestService struct {
	client client.Client
	now    func() time.Time
}

func NewAttestService(c client.Client) AttestService {
	return &attestService{client: c, now: time.Now}
}

// Attest prepares a verification, encrypts its token to the recipient and
// finalizes it with the signed note.
func (s *attestService) Attest(ctx context.Context, keys *nostrx.Keys, in AttestInput) (*Attestation, error) {
	recipientPK, err := nostrx.PubKeyFromNpub(in.RecipientNpub)
	if err != nil {
		return nil, err
	}

	prep, err := s.client.Prepare(ctx, gs.PrepareRequest{
		RecipientNpub:   in.RecipientNpub,
		MerchantName:    in.MerchantName,
		MerchantAddress: in.MerchantAddress,
		CustomMessage:   in.CustomMessage,
	})
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}

	evt, err := keys.EncryptedNote(recipientPK, nostrx.NoteContent(in.CustomMessage, prep.Token), nostr.Timestamp(s.now().Unix()))
	if err != nil {
		return nil, fmt.Errorf("sign note: %w", err)
	}

	fin, err := s.client.Finalize(ctx, prep.Token, evt)
	if err != nil {
		return nil, fmt.Errorf("finalize: %w", err)
	}

	return &Attestation{
		VerificationID:  fin.Verification.ID,
		NoteID:          fin.Note.ID,
		VerificationURL: prep.VerificationURL,
	}, nil
}

// Open fetches a note addressed to keys and decrypts it.
func (s *attestService) Open(ctx context.Context, keys *nostrx.Keys, noteID string) (*OpenedNote, error) {
	res, err := s.client.GetNote(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if res.Note == nil {
		return nil, common.ErrNotFinalized
	}
	if !strings.EqualFold(res.Verification.RecipientNpub, keys.Npub) {
		return nil, ErrNotRecipient
	}

	senderPK, err := nostrx.PubKeyFromNpub(res.Note.SenderNpub)
	if err != nil {
		return nil, err
	}
	plain, err := keys.Decrypt(senderPK, res.Note.EncryptedContent)
	if err != nil {
		return nil, fmt.Errorf("decrypt note: %w", err)
	}

	token, ok := nostrx.TokenFromContent(plain)
	if !ok {
		return nil, fmt.Errorf("%w: note carries no verification token", common.ErrInvalidInput)
	}
	return &OpenedNote{Note: res, Plaintext: plain, Token: token}, nil
}

// Redeem opens the note and consumes its token.
func (s *attestService) Redeem(ctx context.Context, keys *nostrx.Keys, noteID string) (*gs.VerifyResponse, error) {
	opened, err := s.Open(ctx, keys, noteID)
	if err != nil {
		return nil, err
	}
	return s.client.Verify(ctx, opened.Token)
}

func (s *attestService) Status(ctx context.Context, verificationID string) (*gs.VerificationResponse, error) {
	return s.client.GetVerification(ctx, verificationID)
}

func (s *attestService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *attestService) Close() error {
	return s.client.Close()
}
