package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/proofofplace/internal/common"
	"github.com/dmitrijs2005/proofofplace/internal/nostrx"
	gs "github.com/dmitrijs2005/proofofplace/internal/server/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	api         *gs.Client
	health      healthpb.HealthClient
}

// errorInterceptor translates gRPC status codes into the sentinel errors the
// services layer matches on.
func errorInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	err := invoker(ctx, method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}
	return mapError(err)
}

func mapError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	var target error
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded:
		target = ErrUnavailable
	case codes.Unauthenticated:
		target = ErrUnauthorized
	case codes.InvalidArgument:
		target = common.ErrInvalidInput
	case codes.NotFound:
		target = common.ErrorNotFound
	case codes.AlreadyExists:
		target = common.ErrAlreadyFinalized
	case codes.FailedPrecondition:
		target = common.ErrNotFinalized
		if strings.Contains(st.Message(), common.ErrAlreadyUsed.Error()) {
			target = common.ErrAlreadyUsed
		}
	default:
		return err
	}
	return fmt.Errorf("%w: %s", target, st.Message())
}

func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	all := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(errorInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, all...)
	if err != nil {
		return nil, err
	}

	return &GRPCClient{
		endpointURL: endpointURL,
		conn:        conn,
		api:         gs.NewClient(conn),
		health:      healthpb.NewHealthClient(conn),
	}, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

// Ping reports whether the verification service is serving.
func (c *GRPCClient) Ping(ctx context.Context) error {
	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{Service: gs.ServiceName})
	if err != nil {
		return err
	}
	if resp.Status != healthpb.HealthCheckResponse_SERVING {
		return ErrUnavailable
	}
	return nil
}

func (c *GRPCClient) Prepare(ctx context.Context, in gs.PrepareRequest) (*gs.PrepareResponse, error) {
	return c.api.Prepare(ctx, in)
}

func (c *GRPCClient) Finalize(ctx context.Context, token string, evt *nostrx.Event) (*gs.VerificationResponse, error) {
	return c.api.Finalize(ctx, token, evt)
}

func (c *GRPCClient) Verify(ctx context.Context, token string) (*gs.VerifyResponse, error) {
	return c.api.Verify(ctx, token)
}

func (c *GRPCClient) GetVerification(ctx context.Context, id string) (*gs.VerificationResponse, error) {
	return c.api.GetVerification(ctx, id)
}

func (c *GRPCClient) GetNote(ctx context.Context, noteID string) (*gs.VerificationResponse, error) {
	return c.api.GetNote(ctx, noteID)
}
