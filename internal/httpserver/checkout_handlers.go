package httpserver

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	checkoutsvc "knot-art-api/internal/service/checkout"
)

type checkoutHandler struct {
	checkout        *checkoutsvc.Service
	stripePublicKey string
	logger          *log.Logger
}

func newCheckoutHandler(checkout *checkoutsvc.Service, stripePublicKey string, logger *log.Logger) *checkoutHandler {
	return &checkoutHandler{checkout: checkout, stripePublicKey: stripePublicKey, logger: logger}
}

// begin opens the checkout: summarizes the bag and creates the payment
// intent the client will confirm. An empty bag sends the shopper back
// to the catalog.
func (h *checkoutHandler) begin(c *gin.Context) {
	profile, _ := currentProfile(c)
	result, err := h.checkout.Begin(c.Request.Context(), sessionID(c), profile)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"summary":         result.Summary,
		"clientSecret":    result.ClientSecret,
		"stripePublicKey": h.stripePublicKey,
		"prefill":         result.Prefill,
	})
}

type cacheRequest struct {
	ClientSecret string `json:"clientSecret"`
	SaveInfo     bool   `json:"saveInfo"`
}

// cache stores the bag snapshot and user context on the payment intent
// before the client confirms it, so the webhook can reconstruct the
// purchase without a browser session.
func (h *checkoutHandler) cache(c *gin.Context) {
	var req cacheRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.ClientSecret == "" {
		badRequest(c, "clientSecret is required")
		return
	}

	username := "AnonymousUser"
	if profile, ok := currentProfile(c); ok {
		username = profile.Username
	}

	if err := h.checkout.CacheCheckoutData(c.Request.Context(), sessionID(c), req.ClientSecret, req.SaveInfo, username); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cached"})
}

func (h *checkoutHandler) submit(c *gin.Context) {
	var in checkoutsvc.SubmitInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	order, err := h.checkout.Submit(c.Request.Context(), sessionID(c), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"orderNumber": order.OrderNumber, "order": order})
}

// success is the post-payment landing step. Repeating it for the same
// order is harmless.
func (h *checkoutHandler) success(c *gin.Context) {
	profile, _ := currentProfile(c)
	saveInfo := c.Query("save_info") == "true"

	order, err := h.checkout.Finalize(c.Request.Context(), sessionID(c), c.Param("orderNumber"), profile, saveInfo)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "order processed, a confirmation email will be sent to " + order.Email,
		"order":   order,
	})
}
