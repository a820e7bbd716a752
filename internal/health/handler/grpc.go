package handler

import (
	"context"

	"github.com/rs/zerolog"
	healthgrpc "google.golang.org/grpc/health/grpc_health_v1"
)

// Server implements grpc.health.v1.Health for readiness checks.
// Check runs the readiness checks on every call; Watch and List are unimplemented.
type Server struct {
	healthgrpc.UnimplementedHealthServer
	checker *Checker
	log     zerolog.Logger
}

// NewServer returns a new Health gRPC server.
func NewServer(checker *Checker, log zerolog.Logger) *Server {
	return &Server{checker: checker, log: log}
}

// Check returns SERVING when the database and policy engine respond.
// Check never returns an error; failures are reported as NOT_SERVING.
func (s *Server) Check(ctx context.Context, _ *healthgrpc.HealthCheckRequest) (*healthgrpc.HealthCheckResponse, error) {
	if s.checker != nil {
		if err := s.checker.Ready(ctx); err != nil {
			s.log.Warn().Err(err).Msg("health: not serving")
			return &healthgrpc.HealthCheckResponse{Status: healthgrpc.HealthCheckResponse_NOT_SERVING}, nil
		}
	}
	return &healthgrpc.HealthCheckResponse{Status: healthgrpc.HealthCheckResponse_SERVING}, nil
}
