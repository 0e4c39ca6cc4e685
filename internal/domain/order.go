package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Order is the durable record of one purchase attempt. original_cart and
// stripe_pid together identify the attempt when the payment processor's
// webhook has to be matched to an order that may or may not exist yet.
type Order struct {
	ID                string          `json:"id"`
	OrderNumber       string          `json:"orderNumber"`
	ProfileID         *string         `json:"-"`
	FullName          string          `json:"fullName"`
	Email             string          `json:"email"`
	PhoneNumber       string          `json:"phoneNumber"`
	StreetAddress1    string          `json:"streetAddress1"`
	StreetAddress2    *string         `json:"streetAddress2,omitempty"`
	TownOrCity        string          `json:"townOrCity"`
	Postcode          *string         `json:"postcode,omitempty"`
	County            *string         `json:"county,omitempty"`
	Country           string          `json:"country"`
	CreatedAt         time.Time       `json:"createdAt"`
	OrderTotalCents   int64           `json:"orderTotalCents"`
	DeliveryCostCents int64           `json:"deliveryCostCents"`
	GrandTotalCents   int64           `json:"grandTotalCents"`
	OriginalCart      string          `json:"-"`
	StripePID         string          `json:"-"`
	LineItems         []OrderLineItem `json:"lineItems,omitempty"`
}

// OrderLineItem is one purchased catalog item. The total is captured as
// unit price times quantity when the line is created, so later catalog
// price changes never alter a historical order.
type OrderLineItem struct {
	ID             string `json:"id"`
	OrderID        string `json:"orderId"`
	ProductID      string `json:"productId"`
	ProductName    string `json:"productName,omitempty"`
	Quantity       int    `json:"quantity"`
	LineTotalCents int64  `json:"lineTotalCents"`
}

// NewOrderNumber returns a random 32-character uppercase hex token.
func NewOrderNumber() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// OrderDetails carries the customer/delivery fields collected at
// checkout or extracted from a payment notification.
type OrderDetails struct {
	FullName       string
	Email          string
	PhoneNumber    string
	StreetAddress1 string
	StreetAddress2 *string
	TownOrCity     string
	Postcode       *string
	County         *string
	Country        string
}

// OptionalField normalizes an address sub-field: empty or blank strings
// become nil rather than stored empty strings.
func OptionalField(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
