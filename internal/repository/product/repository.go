package product

import (
	"context"

	"knot-art-api/internal/domain"
)

// ListFilter narrows and orders catalog listings.
type ListFilter struct {
	CategoryName string
	Search       string
	// Sort is one of "price", "-price", "name", "-name", "rating",
	// "-rating", "" (newest first). Unrated products list last.
	Sort string
	// IncludeInactive is set for the admin surface; shoppers see active only.
	IncludeInactive bool
}

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	EnsureCategory(ctx context.Context, name, friendlyName string) (*domain.Category, error)
}
