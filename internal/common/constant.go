package common

// AuthorizationHeaderName is the HTTP header / gRPC metadata key carrying
// either a NIP-98 proof or a session bearer token.
const AuthorizationHeaderName = "authorization"

// Verification statuses. A verification only ever moves pending -> verified.
const (
	StatusPending  = "pending"
	StatusVerified = "verified"
)

// MinTokenLength is the shortest token accepted by finalize and verify.
const MinTokenLength = 16
