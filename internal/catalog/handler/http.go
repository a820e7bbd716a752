// Package handler serves the product catalog over HTTP.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	authhandler "craft-beer-store/backend/internal/auth/handler"
	"craft-beer-store/backend/internal/catalog/domain"
	"craft-beer-store/backend/internal/catalog/service"
)

// CatalogService is the subset of the catalog service the handler calls.
type CatalogService interface {
	List(ctx context.Context, f domain.Filter) ([]*domain.Product, error)
	Create(ctx context.Context, in service.NewProduct) (*domain.Product, error)
}

type createProductRequest struct {
	Name        string  `json:"name" binding:"required,max=200"`
	Type        string  `json:"type" binding:"required,max=50"`
	Price       int64   `json:"price" binding:"gt=0"`
	Description string  `json:"description" binding:"max=2000"`
	Image       string  `json:"image" binding:"omitempty,url"`
	Alcohol     float64 `json:"alcohol" binding:"gte=0"`
}

// HTTPHandler serves /api/products.
type HTTPHandler struct {
	svc CatalogService
}

// NewHTTPHandler returns the catalog HTTP handler.
func NewHTTPHandler(svc CatalogService) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

// List handles GET /api/products?type=&max_price=&search=.
func (h *HTTPHandler) List(c *gin.Context) {
	f := domain.Filter{Type: c.Query("type"), Search: c.Query("search")}
	if v := c.Query("max_price"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "max_price must be an integer"})
			return
		}
		f.MaxPrice = n
	}
	products, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// Create handles POST /api/products. Requires RequireAuth and the product.create permission.
func (h *HTTPHandler) Create(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		authhandler.BadRequest(c, err)
		return
	}
	p, err := h.svc.Create(c.Request.Context(), service.NewProduct{
		Name:        req.Name,
		Type:        req.Type,
		Price:       req.Price,
		Description: req.Description,
		Image:       req.Image,
		Alcohol:     req.Alcohol,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": p.ID, "message": "product created"})
}

func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, service.ErrValidation):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	case errors.Is(err, service.ErrStoreUnavailable):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"detail": "service temporarily unavailable"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
	}
}
