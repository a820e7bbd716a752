package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"craft-beer-store/backend/internal/account/domain"
	"craft-beer-store/backend/internal/auth/service"
)

// AuthService is the subset of the auth service the HTTP and gRPC handlers call.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*domain.Profile, error)
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Profile(ctx context.Context, email string) (*domain.Profile, error)
	Unblock(ctx context.Context, email string) error
	Authorize(ctx context.Context, token string) (string, error)
	ValidateToken(token string) (string, error)
}

type registerRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresAt   time.Time      `json:"expires_at"`
	User        domain.Profile `json:"user"`
}

type unblockRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// HTTPHandler serves /api/auth and the admin unblock endpoint.
type HTTPHandler struct {
	svc AuthService
	log zerolog.Logger
}

// NewHTTPHandler returns the auth HTTP handler.
func NewHTTPHandler(svc AuthService, log zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{svc: svc, log: log}
}

// Register handles POST /api/auth/register.
func (h *HTTPHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}
	p, err := h.svc.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.fail(c, "register", err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Login handles POST /api/auth/login.
func (h *HTTPHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}
	res, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, "login", err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{
		AccessToken: res.AccessToken,
		TokenType:   res.TokenType,
		ExpiresAt:   res.ExpiresAt,
		User:        res.User,
	})
}

// Me handles GET /api/auth/me. Requires RequireAuth.
func (h *HTTPHandler) Me(c *gin.Context) {
	email, ok := CurrentEmail(c)
	if !ok {
		WriteError(c, service.ErrTokenInvalid)
		return
	}
	p, err := h.svc.Profile(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			err = service.ErrTokenInvalid
		}
		h.fail(c, "me", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Unblock handles POST /api/admin/accounts/unblock. Requires RequireAuth and the account.unblock permission.
func (h *HTTPHandler) Unblock(c *gin.Context) {
	var req unblockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}
	err := h.svc.Unblock(c.Request.Context(), req.Email)
	if errors.Is(err, service.ErrAccountNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": "account not found"})
		return
	}
	if err != nil {
		h.fail(c, "unblock", err)
		return
	}
	admin, _ := CurrentEmail(c)
	h.log.Info().Str("admin", admin).Str("email", domain.NormalizeEmail(req.Email)).Msg("account unblocked")
	c.JSON(http.StatusOK, gin.H{"message": "account unblocked"})
}

func (h *HTTPHandler) fail(c *gin.Context, op string, err error) {
	code, _ := HTTPError(err)
	if code >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("op", op).Str("request_id", c.GetString("request_id")).Msg("auth request failed")
	}
	WriteError(c, err)
}

// BadRequest answers 400 with a message naming the offending fields.
func BadRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": bindingMessage(err)})
}

func bindingMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return "invalid request body"
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "email":
			parts = append(parts, field+" must be a valid email address")
		case "min":
			parts = append(parts, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "gt":
			parts = append(parts, fmt.Sprintf("%s must be greater than %s", field, fe.Param()))
		case "gte":
			parts = append(parts, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		default:
			parts = append(parts, field+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}
