package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/proofofplace/internal/common"
	"github.com/dmitrijs2005/proofofplace/internal/nostrx"
)

// Authenticator resolves an Authorization header to an npub. It accepts
// "Nostr <base64 event>" (NIP-98) and "Bearer <session jwt>".
type Authenticator struct {
	secretKey []byte
	maxSkew   time.Duration
	verifier  nostrx.Verifier
	now       func() time.Time
}

func NewAuthenticator(secretKey string, maxSkew time.Duration, v nostrx.Verifier) *Authenticator {
	return &Authenticator{
		secretKey: []byte(secretKey),
		maxSkew:   maxSkew,
		verifier:  v,
		now:       time.Now,
	}
}

// FromHeader authenticates a request. method and url are what a NIP-98 event
// must be bound to; Bearer tokens ignore them.
func (a *Authenticator) FromHeader(header, method, url string) (string, error) {
	scheme, rest, _ := strings.Cut(strings.TrimSpace(header), " ")
	switch {
	case strings.EqualFold(scheme, nostrx.AuthScheme):
		return nostrx.Authenticate(header, nostrx.HTTPAuth{
			Method:  method,
			URL:     url,
			Now:     a.now(),
			MaxSkew: a.maxSkew,
		}, a.verifier)
	case strings.EqualFold(scheme, "Bearer"):
		return a.FromBearer(rest)
	default:
		return "", fmt.Errorf("%w: missing or invalid authorization header", common.ErrorUnauthorized)
	}
}

// FromBearer validates a session token.
func (a *Authenticator) FromBearer(token string) (string, error) {
	npub, err := NpubFromToken(strings.TrimSpace(token), a.secretKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorUnauthorized, err)
	}
	return npub, nil
}
