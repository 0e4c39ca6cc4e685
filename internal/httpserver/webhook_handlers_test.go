package httpserver

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func succeededEvent(cart string, amount int64) string {
	object := fmt.Sprintf(`{
		"id": "pi_test",
		"amount": %d,
		"receipt_email": "jan@example.com",
		"metadata": {"cart": %q, "save_info": "false", "username": "AnonymousUser"},
		"shipping": {
			"name": "Jan Kowalski",
			"phone": "+44123456789",
			"address": {
				"line1": "1 High Street",
				"city": "Bristol",
				"country": "GB"
			}
		}
	}`, amount, cart)
	return fmt.Sprintf(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":%s}}`, object)
}

func TestWebhook_CreatesOrderFromNotification(t *testing.T) {
	env := newTestEnv()
	seedHanging(env)

	rec := doJSON(env, http.MethodPost, "/checkout/wh", succeededEvent(`{"prod-a":2}`, 4400), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "created order from webhook") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	if len(env.orders.orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(env.orders.orders))
	}
	if len(env.mail.sent) != 1 {
		t.Fatalf("expected 1 confirmation email, got %d", len(env.mail.sent))
	}
}

func TestWebhook_RedeliveryConverges(t *testing.T) {
	env := newTestEnv()
	seedHanging(env)
	payload := succeededEvent(`{"prod-a":2}`, 4400)

	first := doJSON(env, http.MethodPost, "/checkout/wh", payload, nil)
	if first.Code != http.StatusOK {
		t.Fatalf("first delivery: %d body=%s", first.Code, first.Body.String())
	}

	second := doJSON(env, http.MethodPost, "/checkout/wh", payload, nil)
	if second.Code != http.StatusOK {
		t.Fatalf("second delivery: %d body=%s", second.Code, second.Body.String())
	}
	if !strings.Contains(second.Body.String(), "verified existing order") {
		t.Fatalf("expected redelivery to find the order, got %s", second.Body.String())
	}
	if len(env.orders.orders) != 1 {
		t.Fatalf("expected exactly 1 order after redelivery, got %d", len(env.orders.orders))
	}
	// A repeated delivery repeats the confirmation email; that is accepted.
	if len(env.mail.sent) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(env.mail.sent))
	}
}

func TestWebhook_FindsBrowserCreatedOrder(t *testing.T) {
	env := newTestEnv()
	seedHanging(env)

	doJSON(env, http.MethodPost, "/cart/add/prod-a", `{"quantity":2}`, nil)
	doJSON(env, http.MethodPost, "/checkout/cache", `{"clientSecret":"pi_test_secret_abc","saveInfo":false}`, nil)
	rec := doJSON(env, http.MethodPost, "/checkout", submitBody, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(env, http.MethodPost, "/checkout/wh", succeededEvent(`{"prod-a":2}`, 4400), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("webhook: %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "verified existing order") {
		t.Fatalf("expected webhook to find the browser order, got %s", rec.Body.String())
	}
	if len(env.orders.orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(env.orders.orders))
	}
}

func TestWebhook_PaymentFailedAcknowledged(t *testing.T) {
	env := newTestEnv()

	payload := `{"id":"evt_2","type":"payment_intent.payment_failed","data":{"object":{"id":"pi_test"}}}`
	rec := doJSON(env, http.MethodPost, "/checkout/wh", payload, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(env.orders.orders) != 0 {
		t.Fatal("expected no order for a failed payment")
	}
}

func TestWebhook_UnknownEventAcknowledged(t *testing.T) {
	env := newTestEnv()

	payload := `{"id":"evt_3","type":"charge.refunded","data":{"object":{"id":"ch_1"}}}`
	rec := doJSON(env, http.MethodPost, "/checkout/wh", payload, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "not handled") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestWebhook_GarbagePayload(t *testing.T) {
	env := newTestEnv()

	rec := doJSON(env, http.MethodPost, "/checkout/wh", "not json", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestWebhook_UnfulfillableCartAnswersError(t *testing.T) {
	env := newTestEnv()

	// Cart names a product that does not exist; the order cannot be
	// built, so the answer must be non-2xx to force a redelivery.
	rec := doJSON(env, http.MethodPost, "/checkout/wh", succeededEvent(`{"ghost":1}`, 4400), nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d body=%s", rec.Code, rec.Body.String())
	}
	if len(env.orders.orders) != 0 {
		t.Fatal("expected partial order rolled back")
	}
}
