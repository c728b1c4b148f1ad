package grpc

import (
	"context"

	"github.com/dmitrijs2005/proofofplace/internal/nostrx"
	"github.com/dmitrijs2005/proofofplace/internal/server/models"
	"github.com/dmitrijs2005/proofofplace/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "proofofplace.v1.VerificationService"

const (
	MethodPrepare         = "/" + ServiceName + "/Prepare"
	MethodFinalize        = "/" + ServiceName + "/Finalize"
	MethodVerify          = "/" + ServiceName + "/Verify"
	MethodGetVerification = "/" + ServiceName + "/GetVerification"
	MethodGetNote         = "/" + ServiceName + "/GetNote"
	MethodListVerified    = "/" + ServiceName + "/ListVerified"
	MethodListPending     = "/" + ServiceName + "/ListPending"
)

// Requests and responses below travel as google.protobuf.Struct; single-id
// requests use StringValue and list requests Empty.

type PrepareRequest = services.PrepareInput
type PrepareResponse = services.PrepareResult

type FinalizeRequest struct {
	Token       string        `json:"token"`
	SignedEvent *nostrx.Event `json:"signedEvent"`
}

type VerificationResponse = services.VerificationWithNote
type VerifyResponse = services.VerifyResult

type ListResponse struct {
	Verifications []*models.Verification `json:"verifications"`
}

// VerificationServer is implemented by GRPCServer.
type VerificationServer interface {
	Prepare(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Finalize(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Verify(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	GetVerification(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	GetNote(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ListVerified(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ListPending(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

func unary[Req any](name string, call func(VerificationServer, context.Context, *Req) (any, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(VerificationServer), ctx, req.(*Req))
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc is the hand-written equivalent of a protoc generated
// descriptor. Messages are protobuf well-known types.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VerificationServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Prepare", func(s VerificationServer, ctx context.Context, r *structpb.Struct) (any, error) {
			return s.Prepare(ctx, r)
		}),
		unary("Finalize", func(s VerificationServer, ctx context.Context, r *structpb.Struct) (any, error) {
			return s.Finalize(ctx, r)
		}),
		unary("Verify", func(s VerificationServer, ctx context.Context, r *wrapperspb.StringValue) (any, error) {
			return s.Verify(ctx, r)
		}),
		unary("GetVerification", func(s VerificationServer, ctx context.Context, r *wrapperspb.StringValue) (any, error) {
			return s.GetVerification(ctx, r)
		}),
		unary("GetNote", func(s VerificationServer, ctx context.Context, r *wrapperspb.StringValue) (any, error) {
			return s.GetNote(ctx, r)
		}),
		unary("ListVerified", func(s VerificationServer, ctx context.Context, r *emptypb.Empty) (any, error) {
			return s.ListVerified(ctx, r)
		}),
		unary("ListPending", func(s VerificationServer, ctx context.Context, r *emptypb.Empty) (any, error) {
			return s.ListPending(ctx, r)
		}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "proofofplace/v1/verification",
}
