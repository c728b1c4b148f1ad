package client

import (
	"context"

	"github.com/dmitrijs2005/proofofplace/internal/nostrx"
	gs "github.com/dmitrijs2005/proofofplace/internal/server/grpc"
)

type Client interface {
	Close() error
	Ping(ctx context.Context) error
	Prepare(ctx context.Context, in gs.PrepareRequest) (*gs.PrepareResponse, error)
	Finalize(ctx context.Context, token string, evt *nostrx.Event) (*gs.VerificationResponse, error)
	Verify(ctx context.Context, token string) (*gs.VerifyResponse, error)
	GetVerification(ctx context.Context, id string) (*gs.VerificationResponse, error)
	GetNote(ctx context.Context, noteID string) (*gs.VerificationResponse, error)
}
