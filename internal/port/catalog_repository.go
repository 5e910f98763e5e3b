package port

import (
	"context"

	"github.com/cosmoconnect/storefront/internal/core/domain"
)

// CatalogFilter narrows a Find query; zero values match everything.
type CatalogFilter struct {
	Category string
	Featured *bool
}

type CatalogRepository interface {
	Find(ctx context.Context, filter CatalogFilter) ([]domain.Product, error)

	// FindByID returns domain.ErrNotFound for unknown ids
	FindByID(ctx context.Context, id string) (domain.Product, error)

	Create(ctx context.Context, p domain.Product) (domain.Product, error)

	// Update applies the non-nil fields and returns the updated record
	Update(ctx context.Context, id string, upd domain.ProductUpdate) (domain.Product, error)

	Delete(ctx context.Context, id string) error

	// Sample returns a uniform random sample of at most n products
	Sample(ctx context.Context, n int) ([]domain.Product, error)
}
