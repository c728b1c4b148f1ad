package nostrx

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/proofofplace/internal/common"
)

// KindHTTPAuth is the NIP-98 event kind.
const KindHTTPAuth = 27235

// AuthScheme prefixes a NIP-98 Authorization header value.
const AuthScheme = "Nostr"

// HTTPAuth describes the request a NIP-98 event must be bound to.
type HTTPAuth struct {
	Method  string
	URL     string
	Now     time.Time
	MaxSkew time.Duration
}

// ParseAuthHeader decodes "Nostr <base64(event json)>".
func ParseAuthHeader(header string) (*Event, error) {
	scheme, payload, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, AuthScheme) {
		return nil, fmt.Errorf("%w: missing or invalid authorization header", common.ErrorUnauthorized)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid authorization event format", common.ErrorUnauthorized)
	}
	evt := &Event{}
	if err := json.Unmarshal(raw, evt); err != nil {
		return nil, fmt.Errorf("%w: invalid authorization event format", common.ErrorUnauthorized)
	}
	return evt, nil
}

func tagValue(evt *Event, name string) (string, bool) {
	for _, tag := range evt.Tags {
		if len(tag) >= 2 && tag[0] == name {
			return tag[1], true
		}
	}
	return "", false
}

func stripScheme(u string) string {
	for _, p := range []string{"https://", "http://"} {
		if strings.HasPrefix(strings.ToLower(u), p) {
			return u[len(p):]
		}
	}
	return u
}

// CheckHTTPAuth validates a NIP-98 event against the request it claims to
// authorize and returns the signer's npub.
func CheckHTTPAuth(evt *Event, req HTTPAuth, v Verifier) (string, error) {
	if evt.Kind != KindHTTPAuth {
		return "", fmt.Errorf("%w: invalid event kind for HTTP auth", common.ErrorUnauthorized)
	}

	skew := req.Now.Sub(evt.CreatedAt.Time())
	if skew < 0 {
		skew = -skew
	}
	if skew > req.MaxSkew {
		return "", fmt.Errorf("%w: authorization event expired", common.ErrorUnauthorized)
	}

	u, okU := tagValue(evt, "u")
	method, okM := tagValue(evt, "method")
	if !okU || !okM {
		return "", fmt.Errorf("%w: missing required tags in auth event", common.ErrorUnauthorized)
	}
	if stripScheme(u) != stripScheme(req.URL) || !strings.EqualFold(method, req.Method) {
		return "", fmt.Errorf("%w: URL or method mismatch in auth event", common.ErrorUnauthorized)
	}

	if !hex64.MatchString(evt.PubKey) || !hex128.MatchString(evt.Sig) {
		return "", fmt.Errorf("%w: malformed auth event", common.ErrorUnauthorized)
	}
	ok, err := v.Verify(evt)
	if err != nil || !ok {
		return "", fmt.Errorf("%w: invalid auth event signature", common.ErrorUnauthorized)
	}

	npub, err := NpubFromPubKey(evt.PubKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorUnauthorized, err)
	}
	return npub, nil
}

// Authenticate parses header and runs CheckHTTPAuth on it.
func Authenticate(header string, req HTTPAuth, v Verifier) (string, error) {
	evt, err := ParseAuthHeader(header)
	if err != nil {
		return "", err
	}
	return CheckHTTPAuth(evt, req, v)
}
