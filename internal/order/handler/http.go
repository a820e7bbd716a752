// Package handler serves checkout and order history over HTTP.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	authhandler "craft-beer-store/backend/internal/auth/handler"
	"craft-beer-store/backend/internal/auth/service"
	"craft-beer-store/backend/internal/order/domain"
	orderservice "craft-beer-store/backend/internal/order/service"
)

// OrderService is the subset of the order service the handler calls.
type OrderService interface {
	Checkout(ctx context.Context, email string, items []domain.Item, totalAmount int64) (*domain.Order, error)
	ListMine(ctx context.Context, email string) ([]*domain.Order, error)
}

type itemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Name      string `json:"name" binding:"max=200"`
	Price     int64  `json:"price" binding:"gt=0"`
	Quantity  int    `json:"quantity" binding:"gte=1"`
}

// checkoutRequest ignores any user_email in the body; the owner is the token subject.
type checkoutRequest struct {
	TotalAmount int64         `json:"total_amount" binding:"gte=0"`
	Items       []itemRequest `json:"items" binding:"required,min=1,dive"`
}

// HTTPHandler serves /api/checkout and /api/orders/me.
type HTTPHandler struct {
	svc OrderService
}

// NewHTTPHandler returns the order HTTP handler.
func NewHTTPHandler(svc OrderService) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

// Checkout handles POST /api/checkout. Requires RequireAuth.
func (h *HTTPHandler) Checkout(c *gin.Context) {
	email, ok := authhandler.CurrentEmail(c)
	if !ok {
		authhandler.WriteError(c, service.ErrTokenInvalid)
		return
	}
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		authhandler.BadRequest(c, err)
		return
	}
	items := make([]domain.Item, len(req.Items))
	for i, it := range req.Items {
		items[i] = domain.Item{ProductID: it.ProductID, Name: it.Name, Price: it.Price, Quantity: it.Quantity}
	}
	o, err := h.svc.Checkout(c.Request.Context(), email, items, req.TotalAmount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order_id": o.ID, "message": "order saved"})
}

// Mine handles GET /api/orders/me. Requires RequireAuth.
func (h *HTTPHandler) Mine(c *gin.Context) {
	email, ok := authhandler.CurrentEmail(c)
	if !ok {
		authhandler.WriteError(c, service.ErrTokenInvalid)
		return
	}
	orders, err := h.svc.ListMine(c.Request.Context(), email)
	if err != nil {
		writeError(c, err)
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, orderservice.ErrValidation):
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	case errors.Is(err, orderservice.ErrNoOwner):
		authhandler.WriteError(c, service.ErrTokenInvalid)
	case errors.Is(err, orderservice.ErrStoreUnavailable):
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"detail": "service temporarily unavailable"})
	default:
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
	}
}
