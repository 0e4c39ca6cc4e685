// Package webhook reconciles the payment processor's asynchronous
// notifications against the order ledger. Delivery is at-least-once and
// may race the browser-side checkout, so the handler is idempotent:
// look up first, with a bounded retry, and only then create.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"time"

	"knot-art-api/internal/domain"
	orderrepo "knot-art-api/internal/repository/order"
)

type orderRepo interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	AddLineItem(ctx context.Context, orderID string, product domain.Product, quantity int) error
	Delete(ctx context.Context, orderID string) error
	FindMatching(ctx context.Context, m orderrepo.Match) (*domain.Order, error)
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type profileRepo interface {
	GetByUsername(ctx context.Context, username string) (*domain.Profile, error)
	SaveDefaults(ctx context.Context, id string, d domain.DeliveryDefaults) error
}

type confirmationSender interface {
	SendOrderConfirmation(o *domain.Order) error
}

// Notification is the relevant content of a payment_intent.succeeded
// event: the payment reference, the metadata cached onto the intent
// before payment, and the billing/shipping details Stripe captured.
type Notification struct {
	PaymentIntentID string
	Cart            string
	SaveInfo        bool
	Username        string
	Email           string
	Details         domain.OrderDetails
	AmountCents     int64
}

type Service struct {
	orders   orderRepo
	products productRepo
	profiles profileRepo
	mail     confirmationSender
	attempts int
	delay    time.Duration
	logger   *log.Logger
}

func New(orders orderRepo, products productRepo, profiles profileRepo, mail confirmationSender, attempts int, delay time.Duration, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if attempts < 1 {
		attempts = 1
	}
	return &Service{
		orders:   orders,
		products: products,
		profiles: profiles,
		mail:     mail,
		attempts: attempts,
		delay:    delay,
		logger:   logger,
	}
}

// anonymousUser is the username metadata value for guest checkouts.
const anonymousUser = "AnonymousUser"

// HandlePaymentSucceeded reconciles one successful payment. It reports
// whether the order had to be created here (as opposed to found, having
// been created by the browser-side checkout). Any error means the
// caller must answer non-2xx so the processor redelivers.
func (s *Service) HandlePaymentSucceeded(ctx context.Context, n Notification) (created bool, order *domain.Order, err error) {
	profile := s.resolveProfile(ctx, n)

	match := orderrepo.Match{
		Details:         n.Details,
		GrandTotalCents: n.AmountCents,
		OriginalCart:    n.Cart,
		StripePID:       n.PaymentIntentID,
	}

	// The browser-side checkout may still be writing its order when the
	// webhook lands. Poll before concluding the order does not exist;
	// this wait loop is the only consistency mechanism between the two
	// independent creation paths.
	for attempt := 1; attempt <= s.attempts; attempt++ {
		order, err = s.orders.FindMatching(ctx, match)
		if err == nil {
			s.logger.Printf("webhook: found order %s for intent %s on attempt %d", order.OrderNumber, n.PaymentIntentID, attempt)
			s.sendConfirmation(order)
			return false, order, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return false, nil, fmt.Errorf("match order for intent %s: %w", n.PaymentIntentID, err)
		}
		if attempt < s.attempts {
			select {
			case <-time.After(s.delay):
			case <-ctx.Done():
				return false, nil, ctx.Err()
			}
		}
	}

	order, err = s.createFromNotification(ctx, n, profile)
	if err != nil {
		return false, nil, err
	}
	s.logger.Printf("webhook: created order %s for intent %s", order.OrderNumber, n.PaymentIntentID)
	s.sendConfirmation(order)
	return true, order, nil
}

// resolveProfile maps the cached username to a registered profile, and
// applies the save-info flag. Both are best-effort: a guest checkout or
// a vanished user never fails the notification.
func (s *Service) resolveProfile(ctx context.Context, n Notification) *domain.Profile {
	if n.Username == "" || n.Username == anonymousUser {
		return nil
	}
	profile, err := s.profiles.GetByUsername(ctx, n.Username)
	if err != nil {
		s.logger.Printf("webhook: username %s from intent %s did not resolve: %v", n.Username, n.PaymentIntentID, err)
		return nil
	}
	if n.SaveInfo {
		d := n.Details
		defaults := domain.DeliveryDefaults{
			PhoneNumber:    domain.OptionalField(d.PhoneNumber),
			StreetAddress1: domain.OptionalField(d.StreetAddress1),
			StreetAddress2: d.StreetAddress2,
			TownOrCity:     domain.OptionalField(d.TownOrCity),
			Postcode:       d.Postcode,
			County:         d.County,
			Country:        domain.OptionalField(d.Country),
		}
		if err := s.profiles.SaveDefaults(ctx, profile.ID, defaults); err != nil {
			s.logger.Printf("webhook: save delivery defaults for %s: %v", n.Username, err)
		}
	}
	return profile
}

// createFromNotification builds the order purely from webhook data.
// This is the steady-state path when the webhook beats the browser, or
// when the browser flow never completed. Any failure deletes the
// partially built order so redelivery starts clean.
func (s *Service) createFromNotification(ctx context.Context, n Notification, profile *domain.Profile) (*domain.Order, error) {
	items, err := parseCart(n.Cart)
	if err != nil {
		return nil, fmt.Errorf("parse cart snapshot for intent %s: %w", n.PaymentIntentID, err)
	}

	d := n.Details
	header := domain.Order{
		FullName:       d.FullName,
		Email:          n.Email,
		PhoneNumber:    d.PhoneNumber,
		StreetAddress1: d.StreetAddress1,
		StreetAddress2: d.StreetAddress2,
		TownOrCity:     d.TownOrCity,
		Postcode:       d.Postcode,
		County:         d.County,
		Country:        d.Country,
		OriginalCart:   n.Cart,
		StripePID:      n.PaymentIntentID,
	}
	if profile != nil {
		header.ProfileID = &profile.ID
	}

	order, err := s.orders.Create(ctx, header)
	if err != nil {
		return nil, fmt.Errorf("create order for intent %s: %w", n.PaymentIntentID, err)
	}

	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		product, err := s.products.GetByID(ctx, id)
		if err != nil {
			s.rollback(ctx, order.ID)
			return nil, fmt.Errorf("product %s from cart snapshot: %w", id, err)
		}
		if err := s.orders.AddLineItem(ctx, order.ID, *product, items[id]); err != nil {
			s.rollback(ctx, order.ID)
			return nil, fmt.Errorf("add line item for product %s: %w", id, err)
		}
	}

	return s.orders.GetByID(ctx, order.ID)
}

func (s *Service) rollback(ctx context.Context, orderID string) {
	if err := s.orders.Delete(ctx, orderID); err != nil {
		s.logger.Printf("webhook: rollback of order %s failed: %v", orderID, err)
	}
}

// sendConfirmation emails the customer. Redelivered notifications repeat
// the whole handler, so a retried delivery can repeat the email; that is
// accepted. A send failure is logged, never propagated.
func (s *Service) sendConfirmation(order *domain.Order) {
	if err := s.mail.SendOrderConfirmation(order); err != nil {
		s.logger.Printf("webhook: confirmation email for order %s failed: %v", order.OrderNumber, err)
	}
}

func parseCart(raw string) (map[string]int, error) {
	var items map[string]int
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errors.New("cart snapshot is empty")
	}
	return items, nil
}
