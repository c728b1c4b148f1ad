// Package nostrx adapts go-nostr to the verification flow: structural checks
// on signed events, signature verification, npub handling and NIP-98 HTTP
// authorization.
package nostrx

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/dmitrijs2005/proofofplace/internal/common"
	"github.com/nbd-wtf/go-nostr"
)

// Event is a signed Nostr event as produced by the attestor's extension.
type Event = nostr.Event

var (
	hex64  = regexp.MustCompile(`^[0-9a-f]{64}$`)
	hex128 = regexp.MustCompile(`^[0-9a-f]{128}$`)
)

// ValidateEvent checks the shape of a signed event. A malformed id, pubkey
// or sig can never verify and is reported as common.ErrSignatureInvalid;
// other shape problems are common.ErrInvalidInput.
func ValidateEvent(evt *Event) error {
	switch {
	case evt == nil:
		return fmt.Errorf("%w: missing signed event", common.ErrInvalidInput)
	case !hex64.MatchString(evt.ID):
		return fmt.Errorf("%w: event id must be 64 hex characters", common.ErrSignatureInvalid)
	case !hex64.MatchString(evt.PubKey):
		return fmt.Errorf("%w: event pubkey must be 64 hex characters", common.ErrSignatureInvalid)
	case !hex128.MatchString(evt.Sig):
		return fmt.Errorf("%w: event sig must be 128 hex characters", common.ErrSignatureInvalid)
	case evt.Kind < 0:
		return fmt.Errorf("%w: event kind must not be negative", common.ErrInvalidInput)
	case evt.CreatedAt <= 0:
		return fmt.Errorf("%w: event created_at must be positive", common.ErrInvalidInput)
	case evt.Tags == nil:
		return fmt.Errorf("%w: event tags must be an array", common.ErrInvalidInput)
	case evt.Content == "":
		return fmt.Errorf("%w: event content is empty", common.ErrInvalidInput)
	}
	return nil
}

// MarshalIndented renders the event the way it is archived with its note.
func MarshalIndented(evt *Event) (string, error) {
	b, err := json.MarshalIndent(evt, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal event: %w", err)
	}
	return string(b), nil
}

// Verifier reports whether a signed event's signature is valid.
type Verifier interface {
	Verify(evt *Event) (bool, error)
}

// SchnorrVerifier checks the event id against its serialized form and the
// BIP-340 signature against the id.
type SchnorrVerifier struct{}

func (SchnorrVerifier) Verify(evt *Event) (bool, error) {
	if evt.GetID() != evt.ID {
		return false, nil
	}
	return evt.CheckSignature()
}

// VerifierFunc adapts a plain function to Verifier.
type VerifierFunc func(evt *Event) (bool, error)

func (f VerifierFunc) Verify(evt *Event) (bool, error) { return f(evt) }
