package auth

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/dmitrijs2005/proofofplace/internal/common"
	"github.com/dmitrijs2005/proofofplace/internal/nostrx"
	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pendingURL = "http://pop.test/api/verifications/pending"

func nip98Header(t *testing.T, sk, method, url string, at time.Time) string {
	t.Helper()
	evt := &nostrx.Event{
		Kind:      nostrx.KindHTTPAuth,
		CreatedAt: nostr.Timestamp(at.Unix()),
		Tags:      nostr.Tags{{"u", url}, {"method", method}},
	}
	require.NoError(t, evt.Sign(sk))
	raw, err := json.Marshal(evt)
	require.NoError(t, err)
	return "Nostr " + base64.StdEncoding.EncodeToString(raw)
}

func TestAuthenticator_Nostr(t *testing.T) {
	sk := nostr.GeneratePrivateKey()
	pk, _ := nostr.GetPublicKey(sk)
	want, _ := nostrx.NpubFromPubKey(pk)

	a := NewAuthenticator("secret", time.Minute, nostrx.SchnorrVerifier{})

	got, err := a.FromHeader(nip98Header(t, sk, "GET", pendingURL, time.Now()), "GET", pendingURL)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = a.FromHeader(nip98Header(t, sk, "GET", pendingURL, time.Now()), "POST", pendingURL)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestAuthenticator_Nostr_UsesClock(t *testing.T) {
	sk := nostr.GeneratePrivateKey()
	signedAt := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	a := NewAuthenticator("secret", time.Minute, nostrx.SchnorrVerifier{})
	a.now = func() time.Time { return signedAt.Add(30 * time.Second) }

	_, err := a.FromHeader(nip98Header(t, sk, "GET", pendingURL, signedAt), "GET", pendingURL)
	require.NoError(t, err)

	a.now = func() time.Time { return signedAt.Add(2 * time.Minute) }
	_, err = a.FromHeader(nip98Header(t, sk, "GET", pendingURL, signedAt), "GET", pendingURL)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestAuthenticator_Bearer(t *testing.T) {
	a := NewAuthenticator("secret", time.Minute, nostrx.SchnorrVerifier{})

	tok, err := GenerateToken("npub1abc", []byte("secret"), time.Hour)
	require.NoError(t, err)

	got, err := a.FromHeader("Bearer "+tok, "GET", pendingURL)
	require.NoError(t, err)
	assert.Equal(t, "npub1abc", got)

	expired, err := GenerateToken("npub1abc", []byte("secret"), -time.Second)
	require.NoError(t, err)
	_, err = a.FromHeader("bearer "+expired, "GET", pendingURL)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestAuthenticator_UnknownScheme(t *testing.T) {
	a := NewAuthenticator("secret", time.Minute, nostrx.SchnorrVerifier{})

	for _, h := range []string{"", "Basic dXNlcjpwYXNz", "Token x"} {
		_, err := a.FromHeader(h, "GET", pendingURL)
		assert.ErrorIs(t, err, common.ErrorUnauthorized, h)
	}
}
