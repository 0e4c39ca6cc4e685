package httpserver

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	marketsvc "knot-art-api/internal/service/market"
)

type marketHandler struct {
	markets *marketsvc.Service
	logger  *log.Logger
}

func newMarketHandler(markets *marketsvc.Service, logger *log.Logger) *marketHandler {
	return &marketHandler{markets: markets, logger: logger}
}

func (h *marketHandler) list(c *gin.Context) {
	upcomingOnly := c.Query("all") != "true"
	markets, err := h.markets.List(c.Request.Context(), upcomingOnly)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"markets": markets})
}

func (h *marketHandler) get(c *gin.Context) {
	market, err := h.markets.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, market)
}

func (h *marketHandler) create(c *gin.Context) {
	var in marketsvc.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	market, err := h.markets.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, market)
}

func (h *marketHandler) update(c *gin.Context) {
	var in marketsvc.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	market, err := h.markets.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, market)
}

func (h *marketHandler) delete(c *gin.Context) {
	if err := h.markets.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type commentRequest struct {
	Body string `json:"body"`
}

func (h *marketHandler) comments(c *gin.Context) {
	comments, err := h.markets.Comments(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

func (h *marketHandler) addComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	profile, _ := currentProfile(c)
	comment, err := h.markets.AddComment(c.Request.Context(), c.Param("id"), profile.ID, req.Body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *marketHandler) editComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	profile, _ := currentProfile(c)
	comment, err := h.markets.EditComment(c.Request.Context(), c.Param("id"), profile.ID, req.Body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *marketHandler) deleteComment(c *gin.Context) {
	profile, _ := currentProfile(c)
	if err := h.markets.DeleteComment(c.Request.Context(), c.Param("id"), profile.ID, profile.IsAdmin); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *marketHandler) save(c *gin.Context) {
	profile, _ := currentProfile(c)
	if err := h.markets.Save(c.Request.Context(), profile.ID, c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

func (h *marketHandler) unsave(c *gin.Context) {
	profile, _ := currentProfile(c)
	if err := h.markets.Unsave(c.Request.Context(), profile.ID, c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *marketHandler) saved(c *gin.Context) {
	profile, _ := currentProfile(c)
	markets, err := h.markets.Saved(c.Request.Context(), profile.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"markets": markets})
}
