package httpserver

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"knot-art-api/internal/domain"
	checkoutsvc "knot-art-api/internal/service/checkout"
	marketsvc "knot-art-api/internal/service/market"
)

// respondError maps service errors onto HTTP statuses. Anything not
// recognized is a 500 with the detail kept in the log, not the body.
func respondError(c *gin.Context, logger *log.Logger, err error) {
	var capErr *domain.CartCapError
	var validationErr *checkoutsvc.ValidationError
	var fulfillErr *domain.FulfillmentError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrEmptyCart):
		c.Header("Location", "/products")
		c.JSON(http.StatusSeeOther, gin.H{"error": "your bag is empty"})
	case errors.Is(err, marketsvc.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "not the comment author"})
	case errors.As(err, &capErr):
		c.JSON(http.StatusConflict, gin.H{"error": capErr.Error()})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid checkout details", "fields": validationErr.Fields})
	case errors.As(err, &fulfillErr):
		c.JSON(http.StatusConflict, gin.H{"error": fulfillErr.Error()})
	default:
		logger.Printf("http: unhandled error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
