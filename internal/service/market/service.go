package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"knot-art-api/internal/domain"
	marketrepo "knot-art-api/internal/repository/market"
)

// ErrNotOwner is returned when a user edits someone else's comment.
var ErrNotOwner = errors.New("not the comment author")

// Service manages craft-market listings, their comments and per-user
// saved market lists.
type Service struct {
	repo marketrepo.Repository
}

func New(repo marketrepo.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, upcomingOnly bool) ([]domain.Market, error) {
	return s.repo.List(ctx, upcomingOnly)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Market, error) {
	return s.repo.GetByID(ctx, id)
}

// Input is the admin create/update payload for a market.
type Input struct {
	Name      string `json:"name"`
	Location  string `json:"location"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Website   string `json:"website"`
	ImageURL  string `json:"imageUrl"`
}

func (in Input) toMarket() (domain.Market, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Market{}, fmt.Errorf("%w: name required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.Location) == "" {
		return domain.Market{}, fmt.Errorf("%w: location required", domain.ErrInvalidInput)
	}
	date, err := time.Parse("2006-01-02", in.Date)
	if err != nil {
		return domain.Market{}, fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrInvalidInput)
	}
	for _, v := range []string{in.StartTime, in.EndTime} {
		if _, err := time.Parse("15:04", v); err != nil {
			return domain.Market{}, fmt.Errorf("%w: times must be HH:MM", domain.ErrInvalidInput)
		}
	}
	return domain.Market{
		Name:      name,
		Location:  strings.TrimSpace(in.Location),
		Date:      date,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Website:   strings.TrimSpace(in.Website),
		ImageURL:  strings.TrimSpace(in.ImageURL),
	}, nil
}

func (s *Service) Create(ctx context.Context, in Input) (*domain.Market, error) {
	m, err := in.toMarket()
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, m)
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*domain.Market, error) {
	m, err := in.toMarket()
	if err != nil {
		return nil, err
	}
	m.ID = id
	return s.repo.Update(ctx, m)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) Comments(ctx context.Context, marketID string) ([]domain.Comment, error) {
	return s.repo.ListComments(ctx, marketID)
}

func (s *Service) AddComment(ctx context.Context, marketID, profileID, body string) (*domain.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: comment body required", domain.ErrInvalidInput)
	}
	if _, err := s.repo.GetByID(ctx, marketID); err != nil {
		return nil, err
	}
	return s.repo.CreateComment(ctx, domain.Comment{
		MarketID:  marketID,
		ProfileID: profileID,
		Body:      body,
	})
}

// EditComment updates a comment body. Only the author may edit.
func (s *Service) EditComment(ctx context.Context, commentID, profileID, body string) (*domain.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: comment body required", domain.ErrInvalidInput)
	}
	existing, err := s.repo.GetComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if existing.ProfileID != profileID {
		return nil, ErrNotOwner
	}
	return s.repo.UpdateComment(ctx, commentID, body)
}

// DeleteComment removes a comment. The author or an admin may delete.
func (s *Service) DeleteComment(ctx context.Context, commentID, profileID string, isAdmin bool) error {
	existing, err := s.repo.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if existing.ProfileID != profileID && !isAdmin {
		return ErrNotOwner
	}
	return s.repo.DeleteComment(ctx, commentID)
}

// Save adds a market to the user's saved list. Saving twice is a no-op.
func (s *Service) Save(ctx context.Context, profileID, marketID string) error {
	if _, err := s.repo.GetByID(ctx, marketID); err != nil {
		return err
	}
	err := s.repo.SaveMarket(ctx, profileID, marketID)
	if errors.Is(err, domain.ErrAlreadyExists) {
		return nil
	}
	return err
}

func (s *Service) Unsave(ctx context.Context, profileID, marketID string) error {
	return s.repo.UnsaveMarket(ctx, profileID, marketID)
}

func (s *Service) Saved(ctx context.Context, profileID string) ([]domain.Market, error) {
	return s.repo.ListSaved(ctx, profileID)
}
