package httpserver

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	stripe "github.com/stripe/stripe-go/v81"
	stripewh "github.com/stripe/stripe-go/v81/webhook"

	"knot-art-api/internal/domain"
	webhooksvc "knot-art-api/internal/service/webhook"
)

const maxWebhookBody = int64(65536)

type webhookHandler struct {
	reconciler *webhooksvc.Service
	secret     string
	logger     *log.Logger
}

func newWebhookHandler(reconciler *webhooksvc.Service, secret string, logger *log.Logger) *webhookHandler {
	return &webhookHandler{reconciler: reconciler, secret: secret, logger: logger}
}

// handle receives Stripe event deliveries. Stripe retries on any
// non-2xx answer, so only errors that a redelivery could actually fix
// are allowed to produce one.
func (h *webhookHandler) handle(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		badRequest(c, "unreadable payload")
		return
	}

	event, err := h.parseEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.logger.Printf("webhook: rejected delivery: %v", err)
		badRequest(c, "invalid payload")
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			badRequest(c, "malformed payment intent")
			return
		}
		created, order, err := h.reconciler.HandlePaymentSucceeded(c.Request.Context(), notificationFromIntent(&pi))
		if err != nil {
			h.logger.Printf("webhook: intent %s not reconciled: %v", pi.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "order could not be reconciled"})
			return
		}
		status := "verified existing order"
		if created {
			status = "created order from webhook"
		}
		c.JSON(http.StatusOK, gin.H{"status": status, "orderNumber": order.OrderNumber})

	case "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			badRequest(c, "malformed payment intent")
			return
		}
		h.logger.Printf("webhook: payment failed for intent %s", pi.ID)
		c.JSON(http.StatusOK, gin.H{"status": "payment failure noted"})

	default:
		h.logger.Printf("webhook: unhandled event type %s", event.Type)
		c.JSON(http.StatusOK, gin.H{"status": "event type not handled"})
	}
}

// parseEvent verifies the delivery signature when a signing secret is
// configured; without one the payload is trusted as-is.
func (h *webhookHandler) parseEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	if h.secret != "" {
		return stripewh.ConstructEvent(payload, sigHeader, h.secret)
	}
	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return stripe.Event{}, err
	}
	return event, nil
}

// notificationFromIntent pulls the reconciliation inputs off the
// payment intent: the metadata cached before confirmation, the shipping
// details Stripe captured, and the charged amount.
func notificationFromIntent(pi *stripe.PaymentIntent) webhooksvc.Notification {
	n := webhooksvc.Notification{
		PaymentIntentID: pi.ID,
		Cart:            pi.Metadata["cart"],
		SaveInfo:        pi.Metadata["save_info"] == "true",
		Username:        pi.Metadata["username"],
		Email:           pi.ReceiptEmail,
		AmountCents:     pi.Amount,
	}
	if pi.Shipping != nil {
		n.Details.FullName = pi.Shipping.Name
		n.Details.PhoneNumber = pi.Shipping.Phone
		if addr := pi.Shipping.Address; addr != nil {
			n.Details.StreetAddress1 = addr.Line1
			n.Details.StreetAddress2 = domain.OptionalField(addr.Line2)
			n.Details.TownOrCity = addr.City
			n.Details.Postcode = domain.OptionalField(addr.PostalCode)
			n.Details.County = domain.OptionalField(addr.State)
			n.Details.Country = addr.Country
		}
	}
	n.Details.Email = n.Email
	return n
}
