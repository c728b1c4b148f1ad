package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/proofofplace/internal/logging"
	"github.com/dmitrijs2005/proofofplace/internal/nostrx"
	"github.com/dmitrijs2005/proofofplace/internal/server/models"
	"github.com/dmitrijs2005/proofofplace/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type VerificationService interface {
	Prepare(ctx context.Context, in services.PrepareInput) (*services.PrepareResult, error)
	Finalize(ctx context.Context, token string, evt *nostrx.Event) (*services.VerificationWithNote, error)
	Verify(ctx context.Context, token string) (*services.VerifyResult, error)
	GetVerification(ctx context.Context, id string) (*services.VerificationWithNote, error)
	GetNote(ctx context.Context, noteID string) (*services.VerificationWithNote, error)
	ListVerified(ctx context.Context) ([]*models.Verification, error)
	ListPendingByCreator(ctx context.Context, npub string) ([]*models.Verification, error)
}

type BearerAuthenticator interface {
	FromBearer(token string) (string, error)
}

type GRPCServer struct {
	address       string
	verifications VerificationService
	auth          BearerAuthenticator
	logger        logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, vs VerificationService, auth BearerAuthenticator) *GRPCServer {
	return &GRPCServer{
		address:       a,
		logger:        l.With("module", "grpc_server"),
		verifications: vs,
		auth:          auth,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on listen until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.metricsInterceptor, s.accessTokenInterceptor))

	srv.RegisterService(&ServiceDesc, s)

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(srv, healthSrv)
	healthSrv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gPRC server...")
		healthSrv.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
