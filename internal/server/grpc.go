package server

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	healthgrpc "google.golang.org/grpc/health/grpc_health_v1"

	authhandler "craft-beer-store/backend/internal/auth/handler"
	healthhandler "craft-beer-store/backend/internal/health/handler"
	"craft-beer-store/backend/internal/server/interceptors"
)

const healthCheckMethod = "/grpc.health.v1.Health/Check"

// publicMethods skip the bearer check in AuthUnary.
var publicMethods = map[string]bool{
	authhandler.ValidateMethod: true,
	healthCheckMethod:          true,
}

// quietMethods are not access-logged.
var quietMethods = map[string]bool{
	healthCheckMethod: true,
}

// RegisterServices registers the gRPC services with s.
//
//   - grpc.health.v1.Health        → internal/health/handler
//   - craftbeer.auth.v1.TokenService → internal/auth/handler
//
// TokenService is skipped when deps.Auth is nil.
func RegisterServices(s grpc.ServiceRegistrar, deps Deps) {
	healthgrpc.RegisterHealthServer(s, healthhandler.NewServer(deps.checker(), deps.Log))
	if deps.Auth != nil {
		authhandler.RegisterTokenServiceServer(s, authhandler.NewTokenServer(deps.Auth))
	}
}

// NewGRPCServer builds a gRPC server with tracing, client IP capture, access logging and bearer auth, and registers the services.
func NewGRPCServer(deps Deps, opts ...grpc.ServerOption) *grpc.Server {
	chain := []grpc.UnaryServerInterceptor{
		interceptors.ClientIPUnary(),
		interceptors.LoggingUnary(deps.Log, quietMethods),
	}
	if deps.Auth != nil {
		chain = append(chain, interceptors.AuthUnary(deps.Auth, publicMethods))
	}
	opts = append([]grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(chain...),
	}, opts...)
	s := grpc.NewServer(opts...)
	RegisterServices(s, deps)
	return s
}
