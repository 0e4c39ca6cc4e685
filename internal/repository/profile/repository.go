package profile

import (
	"context"

	"knot-art-api/internal/domain"
)

// Repository persists registered users and their delivery defaults.
type Repository interface {
	Create(ctx context.Context, p domain.Profile) (*domain.Profile, error)
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	GetByUsername(ctx context.Context, username string) (*domain.Profile, error)
	SaveDefaults(ctx context.Context, id string, d domain.DeliveryDefaults) error
}
