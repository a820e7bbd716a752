// Package handler serves the admin audit log listing.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	accountdomain "craft-beer-store/backend/internal/account/domain"
	auditdomain "craft-beer-store/backend/internal/audit/domain"
	auditrepo "craft-beer-store/backend/internal/audit/repository"
)

// HTTPHandler serves GET /api/admin/audit.
type HTTPHandler struct {
	repo auditrepo.Repository
	log  zerolog.Logger
}

// NewHTTPHandler returns the audit HTTP handler.
func NewHTTPHandler(repo auditrepo.Repository, log zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{repo: repo, log: log}
}

// List handles GET /api/admin/audit?email=&limit=. Requires RequireAuth and the audit.read permission.
func (h *HTTPHandler) List(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	entries, err := h.repo.ListByEmail(c.Request.Context(), accountdomain.NormalizeEmail(c.Query("email")), limit)
	if err != nil {
		h.log.Error().Err(err).Str("request_id", c.GetString("request_id")).Msg("list audit logs failed")
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"detail": "service temporarily unavailable"})
		return
	}
	if entries == nil {
		entries = []*auditdomain.AuditLog{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
