// Package seed loads the sample storefront catalog.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"craft-beer-store/backend/internal/catalog/domain"
	"craft-beer-store/backend/internal/catalog/repository"
)

// Products returns the sample beers.
func Products() []domain.Product {
	return []domain.Product{
		{
			Name: "IPA Artesanal", Type: "IPA", Price: 5500, Alcohol: 6.5,
			Description: "IPA con intenso aroma a lúpulo.",
			Image:       "https://images.unsplash.com/photo-1608270586620-248524c67de9?auto=format&fit=crop&w=400&q=80",
		},
		{
			Name: "Stout Imperial", Type: "Stout", Price: 6200, Alcohol: 8.2,
			Description: "Robusta con notas de café.",
			Image:       "https://images.unsplash.com/photo-1535958636474-b021ee8876a3?auto=format&fit=crop&w=400&q=80",
		},
		{
			Name: "Lager Premium", Type: "Lager", Price: 4800, Alcohol: 5.0,
			Description: "Suave y refrescante.",
			Image:       "https://images.unsplash.com/photo-1586996292898-71f4036c4e07?auto=format&fit=crop&w=400&q=80",
		},
	}
}

// Run inserts Products when the catalog is empty and returns how many were inserted.
// A non-empty catalog is left alone.
func Run(ctx context.Context, repo repository.Repository) (int, error) {
	n, err := repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	if n > 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	inserted := 0
	for _, p := range Products() {
		p.ID = uuid.New().String()
		p.CreatedAt = now
		if err := repo.Create(ctx, &p); err != nil {
			return inserted, fmt.Errorf("insert %s: %w", p.Name, err)
		}
		inserted++
	}
	return inserted, nil
}
