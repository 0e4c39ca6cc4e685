package httpserver

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"knot-art-api/internal/cart"
	"knot-art-api/internal/pricing"
	productrepo "knot-art-api/internal/repository/product"
)

type cartHandler struct {
	carts    *cart.Store
	products productrepo.Repository
	rule     pricing.Rule
	logger   *log.Logger
}

func newCartHandler(carts *cart.Store, products productrepo.Repository, rule pricing.Rule, logger *log.Logger) *cartHandler {
	return &cartHandler{carts: carts, products: products, rule: rule, logger: logger}
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *cartHandler) show(c *gin.Context) {
	summary, err := h.carts.Summarize(c.Request.Context(), sessionID(c), h.products, h.rule)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *cartHandler) add(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.Quantity <= 0 {
		badRequest(c, "quantity must be positive")
		return
	}

	product, err := h.products.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	qty, err := h.carts.Add(sessionID(c), product.ID, product.Name, req.Quantity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"productId": product.ID, "quantity": qty})
}

func (h *cartHandler) adjust(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	product, err := h.products.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.carts.SetQuantity(sessionID(c), product.ID, req.Quantity)
	stored := req.Quantity
	if stored < 0 {
		stored = 0
	}
	c.JSON(http.StatusOK, gin.H{"productId": product.ID, "quantity": stored})
}

func (h *cartHandler) remove(c *gin.Context) {
	if err := h.carts.Remove(sessionID(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
