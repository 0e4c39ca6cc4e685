package market

import (
	"context"

	"knot-art-api/internal/domain"
)

type Repository interface {
	List(ctx context.Context, upcomingOnly bool) ([]domain.Market, error)
	GetByID(ctx context.Context, id string) (*domain.Market, error)
	Create(ctx context.Context, m domain.Market) (*domain.Market, error)
	Update(ctx context.Context, m domain.Market) (*domain.Market, error)
	Delete(ctx context.Context, id string) error

	ListComments(ctx context.Context, marketID string) ([]domain.Comment, error)
	GetComment(ctx context.Context, id string) (*domain.Comment, error)
	CreateComment(ctx context.Context, c domain.Comment) (*domain.Comment, error)
	UpdateComment(ctx context.Context, id, body string) (*domain.Comment, error)
	DeleteComment(ctx context.Context, id string) error

	SaveMarket(ctx context.Context, profileID, marketID string) error
	UnsaveMarket(ctx context.Context, profileID, marketID string) error
	ListSaved(ctx context.Context, profileID string) ([]domain.Market, error)
}
