package nostrx

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/proofofplace/internal/common"
	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip04"
	"github.com/nbd-wtf/go-nostr/nip19"
)

// KindEncryptedDirectMessage is the NIP-04 event kind attestation notes use.
const KindEncryptedDirectMessage = 4

// TokenLabel prefixes the verification token inside an attestation note.
const TokenLabel = "Verification Token: "

var tokenLine = regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(TokenLabel) + `(\S+)\s*$`)

// Keys is a signing identity.
type Keys struct {
	SecretKey string
	PublicKey string
	Npub      string
}

// KeysFromSecret accepts a hex secret key or an nsec.
func KeysFromSecret(secret string) (*Keys, error) {
	secret = strings.TrimSpace(secret)
	if strings.HasPrefix(strings.ToLower(secret), "nsec1") {
		prefix, value, err := nip19.Decode(secret)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
		}
		sk, ok := value.(string)
		if prefix != "nsec" || !ok {
			return nil, fmt.Errorf("%w: not an nsec", common.ErrInvalidInput)
		}
		secret = sk
	}
	if !hex64.MatchString(secret) {
		return nil, fmt.Errorf("%w: secret key must be 64 hex characters or nsec", common.ErrInvalidInput)
	}

	pk, err := nostr.GetPublicKey(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	npub, err := NpubFromPubKey(pk)
	if err != nil {
		return nil, err
	}
	return &Keys{SecretKey: secret, PublicKey: pk, Npub: npub}, nil
}

// NoteContent is the plaintext an attestor encrypts to the recipient.
func NoteContent(message, token string) string {
	if strings.TrimSpace(message) == "" {
		message = "No message"
	}
	return message + "\n\n" + TokenLabel + token
}

// TokenFromContent extracts the verification token from decrypted note
// content.
func TokenFromContent(plaintext string) (string, bool) {
	m := tokenLine.FindStringSubmatch(plaintext)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// EncryptedNote builds and signs a NIP-04 direct message from k to
// recipientPK.
func (k *Keys) EncryptedNote(recipientPK, plaintext string, createdAt nostr.Timestamp) (*Event, error) {
	shared, err := nip04.ComputeSharedSecret(recipientPK, k.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	content, err := nip04.Encrypt(plaintext, shared)
	if err != nil {
		return nil, err
	}

	evt := &Event{
		Kind:      KindEncryptedDirectMessage,
		CreatedAt: createdAt,
		Tags:      nostr.Tags{{"p", recipientPK}},
		Content:   content,
	}
	if err := evt.Sign(k.SecretKey); err != nil {
		return nil, err
	}
	return evt, nil
}

// Decrypt opens NIP-04 content sent to k by senderPK.
func (k *Keys) Decrypt(senderPK, content string) (string, error) {
	shared, err := nip04.ComputeSharedSecret(senderPK, k.SecretKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	return nip04.Decrypt(content, shared)
}
