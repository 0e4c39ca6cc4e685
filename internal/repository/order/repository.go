package order

import (
	"context"

	"knot-art-api/internal/domain"
)

// Match is the idempotency key used to reconcile a payment notification
// against an order the browser-side checkout may have already created:
// all customer/delivery fields, the exact totals, the frozen cart
// snapshot and the payment reference must agree.
type Match struct {
	Details         domain.OrderDetails
	GrandTotalCents int64
	OriginalCart    string
	StripePID       string
}

type Repository interface {
	// Create inserts the order header with zero totals and assigns the
	// order number. Line items are added afterwards, one at a time.
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	// AddLineItem captures unit price x quantity and recomputes the
	// header totals in the same transaction.
	AddLineItem(ctx context.Context, orderID string, product domain.Product, quantity int) error
	// Delete removes the order and, by cascade, any line items already
	// created. This is the compensating rollback for failed fulfillment;
	// no operation edits single line items once an order exists.
	Delete(ctx context.Context, orderID string) error
	FindMatching(ctx context.Context, m Match) (*domain.Order, error)
	AttachProfile(ctx context.Context, orderID, profileID string) error
	ListByProfile(ctx context.Context, profileID string) ([]domain.Order, error)
}
