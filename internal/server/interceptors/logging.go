package interceptors

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LoggingUnary logs one line per RPC with method, code and duration.
// skipMethods is the set of full method names to not log (e.g. Health Check).
func LoggingUnary(log zerolog.Logger, skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if skipMethods[info.FullMethod] {
			return resp, err
		}
		code := status.Code(err)
		ev := log.Info()
		switch code {
		case codes.OK:
		case codes.Internal, codes.Unavailable, codes.Unknown, codes.DataLoss:
			ev = log.Error().Err(err)
		default:
			ev = log.Warn()
		}
		ev.Str("method", info.FullMethod).
			Str("code", code.String()).
			Dur("duration", time.Since(start)).
			Str("client_ip", GetClientIP(ctx)).
			Msg("grpc request")
		return resp, err
	}
}
