package product

import (
	"context"
	"fmt"
	"strings"

	"knot-art-api/internal/domain"
	productrepo "knot-art-api/internal/repository/product"
)

// Service exposes the shop catalog: shopper-facing listing and lookup,
// plus the admin management surface.
type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filter productrepo.ListFilter) ([]domain.Product, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

// Input is the admin create/update payload.
type Input struct {
	CategoryID  *string  `json:"categoryId"`
	SKU         string   `json:"sku"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	PriceCents  int64    `json:"priceCents"`
	Rating      *float64 `json:"rating"`
	ImageURL    string   `json:"imageUrl"`
	IsActive    *bool    `json:"isActive"`
	IsNew       *bool    `json:"isNew"`
}

func (in Input) toProduct() (domain.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Product{}, fmt.Errorf("%w: name required", domain.ErrInvalidInput)
	}
	if in.PriceCents <= 0 {
		return domain.Product{}, fmt.Errorf("%w: price must be positive", domain.ErrInvalidInput)
	}
	if in.Rating != nil && (*in.Rating < 0 || *in.Rating > 5) {
		return domain.Product{}, fmt.Errorf("%w: rating must be between 0 and 5", domain.ErrInvalidInput)
	}
	p := domain.Product{
		CategoryID:  in.CategoryID,
		SKU:         strings.TrimSpace(in.SKU),
		Name:        name,
		Description: in.Description,
		PriceCents:  in.PriceCents,
		Rating:      in.Rating,
		ImageURL:    strings.TrimSpace(in.ImageURL),
		IsActive:    true,
		IsNew:       true,
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if in.IsNew != nil {
		p.IsNew = *in.IsNew
	}
	return p, nil
}

func (s *Service) Create(ctx context.Context, in Input) (*domain.Product, error) {
	p, err := in.toProduct()
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*domain.Product, error) {
	p, err := in.toProduct()
	if err != nil {
		return nil, err
	}
	p.ID = id
	return s.repo.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
