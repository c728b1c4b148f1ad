package models

import "time"

// Verification is a proof-of-place attestation addressed to a recipient's
// Nostr key. Only Status, VerifiedAt and CreatedBy ever change after insert,
// each exactly once and only through conditional updates in the store.
type Verification struct {
	ID              string     `json:"id"`
	RecipientNpub   string     `json:"recipientNpub"`
	MerchantName    string     `json:"merchantName"`
	MerchantAddress string     `json:"merchantAddress"`
	CustomMessage   string     `json:"customMessage"`
	Token           string     `json:"-"`
	NoteID          string     `json:"noteId"`
	CreatedBy       string     `json:"createdBy,omitempty"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"createdAt"`
	VerifiedAt      *time.Time `json:"verifiedAt"`
}

// PublicVerification is the subset of a Verification returned to the
// recipient after a successful verify.
type PublicVerification struct {
	ID              string     `json:"id"`
	RecipientNpub   string     `json:"recipientNpub"`
	CustomMessage   string     `json:"customMessage"`
	MerchantAddress string     `json:"merchantAddress"`
	MerchantName    string     `json:"merchantName"`
	Status          string     `json:"status"`
	VerifiedAt      *time.Time `json:"verifiedAt"`
}

// Public strips internal fields.
func (v *Verification) Public() PublicVerification {
	return PublicVerification{
		ID:              v.ID,
		RecipientNpub:   v.RecipientNpub,
		CustomMessage:   v.CustomMessage,
		MerchantAddress: v.MerchantAddress,
		MerchantName:    v.MerchantName,
		Status:          v.Status,
		VerifiedAt:      v.VerifiedAt,
	}
}
