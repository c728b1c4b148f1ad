package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/proofofplace/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrSignatureInvalid):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrAlreadyUsed), errors.Is(err, common.ErrNotFinalized):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, common.ErrAlreadyFinalized):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	default:
		s.logger.Error(ctx, err.Error())
		return status.Error(codes.Internal, "internal error")
	}
}

// reply encodes a service result for the wire.
func (s *GRPCServer) reply(ctx context.Context, v any) (*structpb.Struct, error) {
	out, err := toStruct(v)
	if err != nil {
		s.logger.Error(ctx, err.Error())
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func (s *GRPCServer) Prepare(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	var in PrepareRequest
	if err := fromStruct(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid input")
	}

	result, err := s.verifications.Prepare(ctx, in)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return s.reply(ctx, result)
}

func (s *GRPCServer) Finalize(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	var in FinalizeRequest
	if err := fromStruct(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid input")
	}
	if in.Token == "" || in.SignedEvent == nil {
		return nil, status.Error(codes.InvalidArgument, "missing token or signed event")
	}

	result, err := s.verifications.Finalize(ctx, in.Token, in.SignedEvent)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return s.reply(ctx, result)
}

func (s *GRPCServer) Verify(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {

	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "token is required")
	}

	result, err := s.verifications.Verify(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return s.reply(ctx, result)
}

func (s *GRPCServer) GetVerification(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {

	result, err := s.verifications.GetVerification(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return s.reply(ctx, result)
}

func (s *GRPCServer) GetNote(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {

	result, err := s.verifications.GetNote(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return s.reply(ctx, result)
}

func (s *GRPCServer) ListVerified(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {

	list, err := s.verifications.ListVerified(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return s.reply(ctx, &ListResponse{Verifications: list})
}

func (s *GRPCServer) ListPending(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {

	list, err := s.verifications.ListPendingByCreator(ctx, NpubFromContext(ctx))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return s.reply(ctx, &ListResponse{Verifications: list})
}
