package interceptors

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"craft-beer-store/backend/internal/auth/service"
)

const bearerPrefix = "bearer "

// Authorizer resolves a bearer token to an account email.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (string, error)
}

// AuthUnary returns a unary server interceptor that validates the Bearer token
// from gRPC metadata and sets the account email in context for protected RPCs.
// publicMethods is the set of full method names that do not require a Bearer token
// (e.g. TokenService Validate, Health Check).
func AuthUnary(authz Authorizer, publicMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		token := extractBearer(ctx)
		public := publicMethods[info.FullMethod]

		if token == "" {
			if public {
				return handler(ctx, req)
			}
			return nil, status.Error(codes.Unauthenticated, "missing or invalid authorization")
		}

		email, err := authz.Authorize(ctx, token)
		if err != nil {
			if public {
				return handler(ctx, req)
			}
			return nil, authStatus(err)
		}

		ctx = WithIdentity(ctx, email)
		return handler(ctx, req)
	}
}

func authStatus(err error) error {
	switch {
	case errors.Is(err, service.ErrStoreUnavailable):
		return status.Error(codes.Unavailable, "service temporarily unavailable")
	case errors.Is(err, service.ErrAccountBlocked):
		return status.Error(codes.PermissionDenied, "account is blocked")
	default:
		return status.Error(codes.Unauthenticated, "missing or invalid authorization")
	}
}

// extractBearer returns the Bearer token from ctx metadata, or "" if missing or malformed.
func extractBearer(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	v := strings.TrimSpace(vals[0])
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
