// Package handler gates HTTP routes on the access policy.
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"craft-beer-store/backend/internal/server/interceptors"
)

// Policy is the part of the policy engine the middleware needs.
type Policy interface {
	Allow(ctx context.Context, subject, action string) (bool, error)
}

// RequirePermission aborts with 403 unless the authenticated subject may perform action.
// It must run after the bearer middleware. Evaluation errors answer 503.
func RequirePermission(p Policy, action string, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		email, _ := interceptors.GetEmail(c.Request.Context())
		allowed, err := p.Allow(c.Request.Context(), email, action)
		if err != nil {
			log.Error().Err(err).Str("action", action).Str("request_id", c.GetString("request_id")).Msg("policy check failed")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"detail": "service temporarily unavailable"})
			return
		}
		if !allowed {
			log.Warn().Str("action", action).Str("email", email).Msg("permission denied")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "not allowed to perform this action"})
			return
		}
		c.Next()
	}
}
