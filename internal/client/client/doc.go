// Package client is the transport used by the proof-of-place CLI: a gRPC
// connection to the server speaking the JSON codec, with status codes mapped
// back onto the shared sentinel errors.
package client
