package rpc

import (
	"errors"
	"log/slog"
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/nyashahama/realyou-backend/internal/scoring"
)

// Server is the gRPC listener: the scoring service plus the standard health
// service, traced with otelgrpc.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
}

// NewServer registers the services. Both report SERVING until Stop.
func NewServer(engine *scoring.Engine, logger *slog.Logger) *Server {
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()

	grpcServer.RegisterService(&ScoringServiceDesc, NewService(engine, logger))
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{grpcServer: grpcServer, health: healthServer}
}

// Serve blocks until the listener fails or Stop is called. A stopped server
// returns nil.
func (s *Server) Serve(l net.Listener) error {
	err := s.grpcServer.Serve(l)
	if err == nil || errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}

// Stop flips health to NOT_SERVING and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
