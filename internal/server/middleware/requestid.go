package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"craft-beer-store/backend/internal/server/interceptors"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-Id"

// RequestID injects a unique X-Request-Id header into every request/response and
// records the client IP on the request context for audit events.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(interceptors.WithClientIP(c.Request.Context(), c.ClientIP()))
		c.Next()
	}
}
