package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"knot-art-api/internal/domain"
	profilerepo "knot-art-api/internal/repository/profile"
	tokenrepo "knot-art-api/internal/repository/token"
)

var (
	// ErrInvalidCredentials is returned when username/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = errors.New("invalid token")
)

type orderHistory interface {
	ListByProfile(ctx context.Context, profileID string) ([]domain.Order, error)
}

// Service handles registration, login and profile defaults.
type Service struct {
	repo        profilerepo.Repository
	orders      orderHistory
	tokens      *tokenManager
	accessTTL   time.Duration
	passwordMin int
	logger      *log.Logger
}

func New(repo profilerepo.Repository, orders orderHistory, tokens tokenrepo.Repository, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		repo:        repo,
		orders:      orders,
		tokens:      newTokenManager(tokens),
		accessTTL:   48 * time.Hour,
		passwordMin: 8,
		logger:      logger,
	}
}

// SignupInput captures fields expected by the signup endpoint.
type SignupInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup registers a new profile.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*domain.Profile, error) {
	username := strings.TrimSpace(strings.ToLower(in.Username))
	if username == "" {
		return nil, fmt.Errorf("%w: username required", domain.ErrInvalidInput)
	}
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: valid email required", domain.ErrInvalidInput)
	}
	password := strings.TrimSpace(in.Password)
	if len(password) < s.passwordMin {
		return nil, fmt.Errorf("%w: password too short", domain.ErrInvalidInput)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, domain.Profile{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
	})
}

// Login checks credentials and issues an access token.
func (s *Service) Login(ctx context.Context, username, password string) (string, *domain.Profile, error) {
	profile, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(ctx, profile.ID, "access", s.accessTTL)
	if err != nil {
		return "", nil, err
	}
	return token, profile, nil
}

// Authenticate resolves an access token to its profile.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.Profile, error) {
	meta, ok := s.tokens.Validate(ctx, token)
	if !ok {
		return nil, ErrInvalidToken
	}
	return s.repo.GetByID(ctx, meta.ProfileID)
}

// Logout revokes the token. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}

// GetDefaults returns the saved delivery defaults for pre-filling the
// checkout form.
func (s *Service) GetDefaults(ctx context.Context, profileID string) (*domain.DeliveryDefaults, error) {
	p, err := s.repo.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return &domain.DeliveryDefaults{
		PhoneNumber:    p.DefaultPhoneNumber,
		StreetAddress1: p.DefaultStreetAddress1,
		StreetAddress2: p.DefaultStreetAddress2,
		TownOrCity:     p.DefaultTownOrCity,
		Postcode:       p.DefaultPostcode,
		County:         p.DefaultCounty,
		Country:        p.DefaultCountry,
	}, nil
}

// SaveDefaults stores delivery defaults on the profile.
func (s *Service) SaveDefaults(ctx context.Context, profileID string, d domain.DeliveryDefaults) error {
	return s.repo.SaveDefaults(ctx, profileID, d)
}

// OrderHistory lists the profile's orders, newest first.
func (s *Service) OrderHistory(ctx context.Context, profileID string) ([]domain.Order, error) {
	return s.orders.ListByProfile(ctx, profileID)
}
