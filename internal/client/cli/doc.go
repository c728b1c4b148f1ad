// Package cli provides the interactive proof-of-place command-line client.
//
// An attestor uses it to issue an attestation to a recipient's npub: the
// verification token is NIP-04 encrypted to the recipient and the signed
// note is stored on the server. A recipient uses it to open the note,
// decrypt the token and redeem it.
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
