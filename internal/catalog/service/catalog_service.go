// Package service implements catalog listing and product creation.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"craft-beer-store/backend/internal/catalog/domain"
)

// ProductRepo is the product persistence the service needs.
type ProductRepo interface {
	List(ctx context.Context, f domain.Filter) ([]*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
}

// ListingCache caches listings per filter. Cache errors never fail a request.
type ListingCache interface {
	Get(ctx context.Context, f domain.Filter) ([]*domain.Product, bool, error)
	Set(ctx context.Context, f domain.Filter, products []*domain.Product) error
	Invalidate(ctx context.Context) error
}

// NewProduct is the input to Create.
type NewProduct struct {
	Name        string
	Type        string
	Price       int64
	Description string
	Image       string
	Alcohol     float64
}

// CatalogService lists and creates products.
type CatalogService struct {
	products ProductRepo
	cache    ListingCache
	log      zerolog.Logger
	timeout  time.Duration
	now      func() time.Time
}

// NewCatalogService returns a CatalogService. cache may be nil.
func NewCatalogService(products ProductRepo, cache ListingCache, log zerolog.Logger, storeTimeout time.Duration) *CatalogService {
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &CatalogService{products: products, cache: cache, log: log, timeout: storeTimeout, now: time.Now}
}

// List returns products matching f, served from the cache when possible.
func (s *CatalogService) List(ctx context.Context, f domain.Filter) ([]*domain.Product, error) {
	f = f.Normalize()
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, f)
		if err != nil {
			s.log.Warn().Err(err).Msg("catalog cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	sctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	products, err := s.products.List(sctx, f)
	if err != nil {
		s.log.Error().Err(err).Msg("list products failed")
		return nil, fmt.Errorf("list products: %w", ErrStoreUnavailable)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, f, products); err != nil {
			s.log.Warn().Err(err).Msg("catalog cache write failed")
		}
	}
	return products, nil
}

// Create validates and stores a product, then invalidates cached listings.
func (s *CatalogService) Create(ctx context.Context, in NewProduct) (*domain.Product, error) {
	p := &domain.Product{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(in.Name),
		Type:        strings.TrimSpace(in.Type),
		Price:       in.Price,
		Description: strings.TrimSpace(in.Description),
		Image:       strings.TrimSpace(in.Image),
		Alcohol:     in.Alcohol,
		CreatedAt:   s.now().UTC(),
	}
	if err := validate(p); err != nil {
		return nil, err
	}

	sctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.products.Create(sctx, p); err != nil {
		s.log.Error().Err(err).Msg("create product failed")
		return nil, fmt.Errorf("create product: %w", ErrStoreUnavailable)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.log.Warn().Err(err).Msg("catalog cache invalidate failed")
		}
	}
	s.log.Info().Str("product_id", p.ID).Str("name", p.Name).Msg("product created")
	return p, nil
}

func validate(p *domain.Product) error {
	switch {
	case p.Name == "":
		return &ValidationError{Field: "name", Message: "is required"}
	case p.Type == "":
		return &ValidationError{Field: "type", Message: "is required"}
	case p.Price <= 0:
		return &ValidationError{Field: "price", Message: "must be greater than 0"}
	case p.Alcohol < 0:
		return &ValidationError{Field: "alcohol", Message: "must not be negative"}
	}
	return nil
}
