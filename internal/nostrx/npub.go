package nostrx

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/proofofplace/internal/common"
	"github.com/nbd-wtf/go-nostr/nip19"
)

var npubPattern = regexp.MustCompile(`(?i)^npub1[a-z0-9]{58}$`)

// ValidNpub is the format check applied to recipient keys. It does not
// verify the bech32 checksum.
func ValidNpub(s string) bool {
	return npubPattern.MatchString(s)
}

// NpubFromPubKey encodes a hex public key as npub.
func NpubFromPubKey(pubkey string) (string, error) {
	npub, err := nip19.EncodePublicKey(pubkey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	return npub, nil
}

// PubKeyFromNpub decodes an npub into its hex public key. An all-uppercase
// npub is accepted, as bech32 allows.
func PubKeyFromNpub(npub string) (string, error) {
	prefix, value, err := nip19.Decode(strings.ToLower(npub))
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	pk, ok := value.(string)
	if prefix != "npub" || !ok {
		return "", fmt.Errorf("%w: not an npub", common.ErrInvalidInput)
	}
	return pk, nil
}
