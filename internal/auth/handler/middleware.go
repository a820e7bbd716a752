package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"craft-beer-store/backend/internal/auth/service"
	"craft-beer-store/backend/internal/server/interceptors"
)

const (
	bearerPrefix = "bearer "
	emailKey     = "auth_email"
)

// Authorizer resolves a bearer token to an account email.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (string, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the token
// subject on both the gin context and the request context.
func RequireAuth(authz Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractBearer(c.GetHeader("Authorization"))
		if token == "" {
			WriteError(c, service.ErrTokenInvalid)
			return
		}
		email, err := authz.Authorize(c.Request.Context(), token)
		if err != nil {
			WriteError(c, err)
			return
		}
		c.Set(emailKey, email)
		c.Request = c.Request.WithContext(interceptors.WithIdentity(c.Request.Context(), email))
		c.Next()
	}
}

// CurrentEmail returns the email set by RequireAuth.
func CurrentEmail(c *gin.Context) (string, bool) {
	v := c.GetString(emailKey)
	return v, v != ""
}

// ExtractBearer returns the token from an "Authorization: Bearer <token>" value, or "".
// The scheme is matched case-insensitively.
func ExtractBearer(header string) string {
	v := strings.TrimSpace(header)
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
