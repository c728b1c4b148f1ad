package models

import "time"

// Note carries the attestor's signed, NIP-04 encrypted message for a
// Verification. Its ID is the note id reserved when the verification was
// prepared, so the printed URL resolves to it.
type Note struct {
	ID               string    `json:"id"`
	VerificationID   string    `json:"verificationId"`
	EncryptedContent string    `json:"encryptedContent"`
	SenderNpub       string    `json:"senderNpub"`
	NostrEvent       string    `json:"nostrEvent"`
	CreatedAt        time.Time `json:"createdAt"`
}
