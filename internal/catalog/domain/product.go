// Package domain holds catalog types.
package domain

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Product is a beer in the catalog. Price is in whole pesos.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Price       int64     `json:"price"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Alcohol     float64   `json:"alcohol"`
	CreatedAt   time.Time `json:"created_at"`
}

// Filter narrows a product listing. Zero fields do not filter.
type Filter struct {
	// Type matches exactly.
	Type string
	// MaxPrice keeps products priced at or below it when positive.
	MaxPrice int64
	// Search matches name or description, case-insensitively, as a substring.
	Search string
}

// Normalize trims Type and Search and drops a non-positive MaxPrice.
func (f Filter) Normalize() Filter {
	f.Type = strings.TrimSpace(f.Type)
	f.Search = strings.TrimSpace(f.Search)
	if f.MaxPrice < 0 {
		f.MaxPrice = 0
	}
	return f
}

// Matches reports whether p passes the filter.
func (f Filter) Matches(p *Product) bool {
	if f.Type != "" && p.Type != f.Type {
		return false
	}
	if f.MaxPrice > 0 && p.Price > f.MaxPrice {
		return false
	}
	if f.Search != "" {
		s := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Name), s) && !strings.Contains(strings.ToLower(p.Description), s) {
			return false
		}
	}
	return true
}

// Key is a stable encoding of the filter for cache keys.
func (f Filter) Key() string {
	v := url.Values{}
	v.Set("type", f.Type)
	v.Set("max_price", strconv.FormatInt(f.MaxPrice, 10))
	v.Set("search", strings.ToLower(f.Search))
	return v.Encode()
}
