// Package rpc serves the scoring engine over gRPC for internal callers.
//
// The service has no generated stubs. Requests and responses are
// google.protobuf.Struct values carrying the same JSON shapes as the HTTP
// API, so any gRPC client can call it with a generic Struct message.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/nyashahama/realyou-backend/internal/scoring"
)

const ServiceName = "realyou.v1.Scoring"

// Full method names, as used with grpc.ClientConn.Invoke.
const (
	ScoreMethod         = "/" + ServiceName + "/Score"
	CompatibilityMethod = "/" + ServiceName + "/Compatibility"
)

// ScoringServer is implemented by *Service.
type ScoringServer interface {
	// Score takes {"answers": [...]} and returns the scored result.
	Score(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	// Compatibility takes {"a": "ENTP", "b": "INFJ"} and returns the match.
	Compatibility(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

// ScoringServiceDesc registers a ScoringServer on a grpc.Server.
var ScoringServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ScoringServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Score", Handler: scoreHandler},
		{MethodName: "Compatibility", Handler: compatibilityHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "realyou/v1/scoring.proto",
}

func scoreHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ScoringServer).Score(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ScoreMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ScoringServer).Score(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func compatibilityHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ScoringServer).Compatibility(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CompatibilityMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ScoringServer).Compatibility(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Service implements ScoringServer over a shared engine.
type Service struct {
	engine *scoring.Engine
	logger *slog.Logger
}

var _ ScoringServer = (*Service)(nil)

func NewService(engine *scoring.Engine, logger *slog.Logger) *Service {
	return &Service{engine: engine, logger: logger}
}

func (s *Service) Score(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req struct {
		Answers scoring.Answers `json:"answers"`
	}
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}
	if len(req.Answers) == 0 {
		return nil, status.Error(codes.InvalidArgument, "answers are required")
	}
	res := s.engine.Score(req.Answers)
	s.logger.Debug("rpc: scored", "type_code", res.TypeCode, "answers", len(req.Answers))
	return toStruct(res)
}

func (s *Service) Compatibility(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req struct {
		A string `json:"a"`
		B string `json:"b"`
	}
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}
	a, b := scoring.NormalizeType(req.A), scoring.NormalizeType(req.B)
	if !scoring.ValidType(a) || !scoring.ValidType(b) {
		return nil, status.Errorf(codes.InvalidArgument, "a and b must be four-letter types, got %q and %q", req.A, req.B)
	}
	return toStruct(scoring.Compare(a, b))
}

// fromStruct round-trips through JSON so request types reuse their JSON
// decoding rules.
func fromStruct(in *structpb.Struct, dst any) error {
	raw, err := protojson.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	return out, nil
}
