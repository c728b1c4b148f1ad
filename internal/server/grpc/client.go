package grpc

import (
	"context"

	"github.com/dmitrijs2005/proofofplace/internal/common"
	"github.com/dmitrijs2005/proofofplace/internal/nostrx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client is a thin typed wrapper over a connection to VerificationService.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func invoke[Resp any](ctx context.Context, conn grpc.ClientConnInterface, method string, req proto.Message) (*Resp, error) {
	out := &structpb.Struct{}
	if err := conn.Invoke(ctx, method, req, out); err != nil {
		return nil, err
	}
	resp := new(Resp)
	if err := fromStruct(out, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) Prepare(ctx context.Context, in PrepareRequest) (*PrepareResponse, error) {
	req, err := toStruct(in)
	if err != nil {
		return nil, err
	}
	return invoke[PrepareResponse](ctx, c.conn, MethodPrepare, req)
}

func (c *Client) Finalize(ctx context.Context, token string, evt *nostrx.Event) (*VerificationResponse, error) {
	req, err := toStruct(&FinalizeRequest{Token: token, SignedEvent: evt})
	if err != nil {
		return nil, err
	}
	return invoke[VerificationResponse](ctx, c.conn, MethodFinalize, req)
}

func (c *Client) Verify(ctx context.Context, token string) (*VerifyResponse, error) {
	return invoke[VerifyResponse](ctx, c.conn, MethodVerify, wrapperspb.String(token))
}

func (c *Client) GetVerification(ctx context.Context, id string) (*VerificationResponse, error) {
	return invoke[VerificationResponse](ctx, c.conn, MethodGetVerification, wrapperspb.String(id))
}

func (c *Client) GetNote(ctx context.Context, id string) (*VerificationResponse, error) {
	return invoke[VerificationResponse](ctx, c.conn, MethodGetNote, wrapperspb.String(id))
}

func (c *Client) ListVerified(ctx context.Context) (*ListResponse, error) {
	return invoke[ListResponse](ctx, c.conn, MethodListVerified, &emptypb.Empty{})
}

// ListPending sends accessToken as "authorization: Bearer <token>".
func (c *Client) ListPending(ctx context.Context, accessToken string) (*ListResponse, error) {
	ctx = metadata.AppendToOutgoingContext(ctx, common.AuthorizationHeaderName, "Bearer "+accessToken)
	return invoke[ListResponse](ctx, c.conn, MethodListPending, &emptypb.Empty{})
}
