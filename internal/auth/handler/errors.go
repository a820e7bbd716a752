package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"craft-beer-store/backend/internal/auth/service"
)

const (
	msgBadCredentials = "invalid email or password"
	msgNowBlocked     = "invalid email or password; the account is now blocked after too many failed attempts"
	msgBlocked        = "account is blocked after too many failed login attempts"
	msgDuplicate      = "email already registered"
	msgTokenInvalid   = "could not validate credentials"
	msgStoreDown      = "service temporarily unavailable"
	msgInternal       = "internal server error"
	wwwAuthenticate   = "WWW-Authenticate"
	bearerChallenge   = "Bearer"
)

// HTTPError maps an auth service error to a status code and a client-safe message.
// Unknown account and wrong password share one message; a wrong password appends
// the attempts left before the account is blocked.
func HTTPError(err error) (int, string) {
	var (
		lf *service.LoginFailure
		ve *service.ValidationError
	)
	switch {
	case errors.As(err, &lf):
		if lf.Locked {
			return http.StatusUnauthorized, msgNowBlocked
		}
		return http.StatusUnauthorized, fmt.Sprintf("%s; %d attempt(s) remaining", msgBadCredentials, lf.Remaining)
	case errors.Is(err, service.ErrAccountNotFound), errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, msgBadCredentials
	case errors.Is(err, service.ErrAccountBlocked):
		return http.StatusForbidden, msgBlocked
	case errors.Is(err, service.ErrDuplicateAccount):
		return http.StatusConflict, msgDuplicate
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Error()
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrTokenInvalid):
		return http.StatusUnauthorized, msgTokenInvalid
	case errors.Is(err, service.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, msgStoreDown
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// WriteError aborts the request with the mapped status and {"detail": message}.
func WriteError(c *gin.Context, err error) {
	code, msg := HTTPError(err)
	if errors.Is(err, service.ErrTokenInvalid) {
		c.Header(wwwAuthenticate, bearerChallenge)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(code, gin.H{"detail": msg})
}

// GRPCError maps an auth service error to a gRPC status.
func GRPCError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrTokenInvalid):
		return status.Error(codes.Unauthenticated, msgTokenInvalid)
	case errors.Is(err, service.ErrAccountBlocked):
		return status.Error(codes.PermissionDenied, msgBlocked)
	case errors.Is(err, service.ErrStoreUnavailable):
		return status.Error(codes.Unavailable, msgStoreDown)
	case errors.Is(err, service.ErrAccountNotFound):
		return status.Error(codes.NotFound, "account not found")
	case errors.Is(err, service.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, msgInternal)
	}
}
