package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HTTPHandler serves GET /health and GET /ready.
type HTTPHandler struct {
	checker *Checker
	log     zerolog.Logger
}

// NewHTTPHandler returns the HTTP health handler.
func NewHTTPHandler(checker *Checker, log zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{checker: checker, log: log}
}

// Live always answers 200 while the process serves requests.
func (h *HTTPHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready answers 200 when every readiness check passes, 503 otherwise.
func (h *HTTPHandler) Ready(c *gin.Context) {
	if h.checker != nil {
		if err := h.checker.Ready(c.Request.Context()); err != nil {
			h.log.Warn().Err(err).Msg("health: not ready")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
