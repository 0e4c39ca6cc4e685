package httpserver

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	productrepo "knot-art-api/internal/repository/product"
	productsvc "knot-art-api/internal/service/product"
)

type catalogHandler struct {
	catalog *productsvc.Service
	logger  *log.Logger
}

func newCatalogHandler(catalog *productsvc.Service, logger *log.Logger) *catalogHandler {
	return &catalogHandler{catalog: catalog, logger: logger}
}

func (h *catalogHandler) list(c *gin.Context) {
	filter := productrepo.ListFilter{
		CategoryName: c.Query("category"),
		Search:       c.Query("q"),
		Sort:         c.Query("sort"),
	}
	if profile, ok := currentProfile(c); ok && profile.IsAdmin {
		filter.IncludeInactive = c.Query("include_inactive") == "true"
	}

	products, err := h.catalog.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
}

func (h *catalogHandler) get(c *gin.Context) {
	product, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *catalogHandler) categories(c *gin.Context) {
	categories, err := h.catalog.Categories(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *catalogHandler) create(c *gin.Context) {
	var in productsvc.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	product, err := h.catalog.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *catalogHandler) update(c *gin.Context) {
	var in productsvc.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	product, err := h.catalog.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *catalogHandler) delete(c *gin.Context) {
	if err := h.catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
