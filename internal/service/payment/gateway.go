// Package payment is the boundary to the Stripe payment processor.
package payment

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
)

// Metadata is attached to a payment intent before the customer submits
// payment, so the webhook can reconstruct the purchase even when no
// browser session survives.
type Metadata struct {
	Cart     string
	SaveInfo bool
	Username string
}

// Intent is one payment authorization held by the processor.
type Intent struct {
	ID           string
	ClientSecret string
}

// Gateway creates payment authorizations and attaches checkout metadata
// to them. Errors are fatal to the current checkout attempt; retry
// authority for notifications belongs to the processor, not to us.
type Gateway interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string) (*Intent, error)
	AttachMetadata(ctx context.Context, intentID string, md Metadata) error
}

type stripeGateway struct {
	logger *log.Logger
}

// NewStripe configures the global Stripe client key and returns a
// Gateway backed by the Stripe API.
func NewStripe(secretKey string, logger *log.Logger) Gateway {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	stripe.Key = secretKey
	return &stripeGateway{logger: logger}
}

func (g *stripeGateway) CreateIntent(ctx context.Context, amountCents int64, currency string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
	}
	params.Context = ctx

	pi, err := paymentintent.New(params)
	if err != nil {
		g.logger.Printf("payment gateway: create intent amount=%d error=%v", amountCents, err)
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	g.logger.Printf("payment gateway: created intent id=%s amount=%d", pi.ID, amountCents)
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// AttachMetadata is idempotent: Stripe overwrites metadata keys on
// repeated modification of the same intent.
func (g *stripeGateway) AttachMetadata(ctx context.Context, intentID string, md Metadata) error {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	params.AddMetadata("cart", md.Cart)
	params.AddMetadata("save_info", strconv.FormatBool(md.SaveInfo))
	params.AddMetadata("username", md.Username)

	if _, err := paymentintent.Update(intentID, params); err != nil {
		g.logger.Printf("payment gateway: attach metadata intent=%s error=%v", intentID, err)
		return fmt.Errorf("attach metadata to intent %s: %w", intentID, err)
	}
	return nil
}

// PIDFromClientSecret extracts the payment intent id from a client
// secret of the form "pi_..._secret_...".
func PIDFromClientSecret(clientSecret string) string {
	if i := strings.Index(clientSecret, "_secret"); i >= 0 {
		return clientSecret[:i]
	}
	return clientSecret
}
