// Package checkout drives the purchase flow: summarizing the session
// bag, obtaining a payment authorization, collecting delivery details
// and turning the bag into a durable order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/mail"
	"sort"
	"strings"

	"knot-art-api/internal/cart"
	"knot-art-api/internal/domain"
	"knot-art-api/internal/pricing"
	"knot-art-api/internal/service/payment"
)

type orderRepo interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	AddLineItem(ctx context.Context, orderID string, product domain.Product, quantity int) error
	Delete(ctx context.Context, orderID string) error
	AttachProfile(ctx context.Context, orderID, profileID string) error
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type profileRepo interface {
	SaveDefaults(ctx context.Context, id string, d domain.DeliveryDefaults) error
}

type Service struct {
	carts    *cart.Store
	orders   orderRepo
	products productRepo
	profiles profileRepo
	gateway  payment.Gateway
	rule     pricing.Rule
	currency string
	logger   *log.Logger
}

func New(carts *cart.Store, orders orderRepo, products productRepo, profiles profileRepo, gateway payment.Gateway, rule pricing.Rule, currency string, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		carts:    carts,
		orders:   orders,
		products: products,
		profiles: profiles,
		gateway:  gateway,
		rule:     rule,
		currency: currency,
		logger:   logger,
	}
}

// BeginResult is everything the checkout page needs: the bag summary,
// the client secret for the payment form, and saved delivery defaults
// to pre-fill the form for an authenticated user.
type BeginResult struct {
	Summary      *cart.Summary            `json:"summary"`
	ClientSecret string                   `json:"clientSecret"`
	Prefill      *domain.DeliveryDefaults `json:"prefill,omitempty"`
}

// Begin validates the bag is non-empty and requests a payment
// authorization for its grand total. No order exists yet.
func (s *Service) Begin(ctx context.Context, sessionID string, profile *domain.Profile) (*BeginResult, error) {
	if s.carts.IsEmpty(sessionID) {
		return nil, domain.ErrEmptyCart
	}

	summary, err := s.carts.Summarize(ctx, sessionID, s.products, s.rule)
	if err != nil {
		return nil, err
	}

	intent, err := s.gateway.CreateIntent(ctx, summary.GrandTotalCents, s.currency)
	if err != nil {
		return nil, err
	}

	result := &BeginResult{Summary: summary, ClientSecret: intent.ClientSecret}
	if profile != nil {
		result.Prefill = &domain.DeliveryDefaults{
			PhoneNumber:    profile.DefaultPhoneNumber,
			StreetAddress1: profile.DefaultStreetAddress1,
			StreetAddress2: profile.DefaultStreetAddress2,
			TownOrCity:     profile.DefaultTownOrCity,
			Postcode:       profile.DefaultPostcode,
			County:         profile.DefaultCounty,
			Country:        profile.DefaultCountry,
		}
	}
	return result, nil
}

// CacheCheckoutData attaches the bag snapshot, the save-info flag and
// the requesting user to the payment intent, so a webhook arriving
// without any browser session still has everything it needs.
func (s *Service) CacheCheckoutData(ctx context.Context, sessionID, clientSecret string, saveInfo bool, username string) error {
	snapshot, err := s.carts.Serialize(sessionID)
	if err != nil {
		return err
	}
	pid := payment.PIDFromClientSecret(clientSecret)
	return s.gateway.AttachMetadata(ctx, pid, payment.Metadata{
		Cart:     snapshot,
		SaveInfo: saveInfo,
		Username: username,
	})
}

// SubmitInput is the customer/delivery form plus the payment reference.
type SubmitInput struct {
	FullName       string `json:"fullName"`
	Email          string `json:"email"`
	PhoneNumber    string `json:"phoneNumber"`
	StreetAddress1 string `json:"streetAddress1"`
	StreetAddress2 string `json:"streetAddress2"`
	TownOrCity     string `json:"townOrCity"`
	Postcode       string `json:"postcode"`
	County         string `json:"county"`
	Country        string `json:"country"`
	ClientSecret   string `json:"clientSecret"`
}

// ValidationError carries field-level messages back to the form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "invalid checkout details: " + strings.Join(keys, ", ")
}

func validate(in SubmitInput) error {
	fields := make(map[string]string)
	required := []struct {
		name  string
		value string
	}{
		{"fullName", in.FullName},
		{"email", in.Email},
		{"phoneNumber", in.PhoneNumber},
		{"streetAddress1", in.StreetAddress1},
		{"townOrCity", in.TownOrCity},
		{"country", in.Country},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			fields[f.name] = "this field is required"
		}
	}
	if _, ok := fields["email"]; !ok {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			fields["email"] = "enter a valid email address"
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Submit validates the form and creates the order with its line items.
// If any bag entry references a product that no longer exists, the
// just-created order is deleted and a FulfillmentError is returned: the
// attempt is abandoned, not repaired.
func (s *Service) Submit(ctx context.Context, sessionID string, in SubmitInput) (*domain.Order, error) {
	if s.carts.IsEmpty(sessionID) {
		return nil, domain.ErrEmptyCart
	}
	if err := validate(in); err != nil {
		return nil, err
	}

	snapshot, err := s.carts.Serialize(sessionID)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.Create(ctx, domain.Order{
		FullName:       strings.TrimSpace(in.FullName),
		Email:          strings.TrimSpace(in.Email),
		PhoneNumber:    strings.TrimSpace(in.PhoneNumber),
		StreetAddress1: strings.TrimSpace(in.StreetAddress1),
		StreetAddress2: domain.OptionalField(in.StreetAddress2),
		TownOrCity:     strings.TrimSpace(in.TownOrCity),
		Postcode:       domain.OptionalField(in.Postcode),
		County:         domain.OptionalField(in.County),
		Country:        strings.TrimSpace(in.Country),
		OriginalCart:   snapshot,
		StripePID:      payment.PIDFromClientSecret(in.ClientSecret),
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.populateLineItems(ctx, order.ID, s.carts.Items(sessionID)); err != nil {
		return nil, err
	}

	return s.orders.GetByOrderNumber(ctx, order.OrderNumber)
}

// populateLineItems creates one line item per bag entry, rolling the
// whole order back if any product has vanished from the catalog.
func (s *Service) populateLineItems(ctx context.Context, orderID string, items map[string]int) error {
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		product, err := s.products.GetByID(ctx, id)
		if err != nil {
			s.rollback(ctx, orderID)
			if errors.Is(err, domain.ErrNotFound) {
				return &domain.FulfillmentError{ProductID: id, Err: err}
			}
			return err
		}
		if err := s.orders.AddLineItem(ctx, orderID, *product, items[id]); err != nil {
			s.rollback(ctx, orderID)
			return fmt.Errorf("add line item for product %s: %w", id, err)
		}
	}
	return nil
}

func (s *Service) rollback(ctx context.Context, orderID string) {
	if err := s.orders.Delete(ctx, orderID); err != nil {
		s.logger.Printf("checkout: rollback of order %s failed: %v", orderID, err)
	}
}

// Finalize runs the post-payment success step: clear the session bag,
// attach the order to the authenticated profile and, if asked, copy the
// delivery details onto the profile defaults. Profile updates are
// best-effort; their failure never fails the order. Safe to repeat.
func (s *Service) Finalize(ctx context.Context, sessionID, orderNumber string, profile *domain.Profile, saveInfo bool) (*domain.Order, error) {
	order, err := s.orders.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	s.carts.Clear(sessionID)

	if profile != nil {
		if err := s.orders.AttachProfile(ctx, order.ID, profile.ID); err != nil {
			s.logger.Printf("checkout: attach profile %s to order %s: %v", profile.ID, order.OrderNumber, err)
		}
		if saveInfo {
			defaults := domain.DeliveryDefaults{
				PhoneNumber:    &order.PhoneNumber,
				StreetAddress1: &order.StreetAddress1,
				StreetAddress2: order.StreetAddress2,
				TownOrCity:     &order.TownOrCity,
				Postcode:       order.Postcode,
				County:         order.County,
				Country:        &order.Country,
			}
			if err := s.profiles.SaveDefaults(ctx, profile.ID, defaults); err != nil {
				s.logger.Printf("checkout: save delivery defaults for profile %s: %v", profile.ID, err)
			}
		}
	}

	return order, nil
}
