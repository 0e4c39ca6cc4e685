package httpserver

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"knot-art-api/internal/domain"
	profilesvc "knot-art-api/internal/service/profile"
)

type profileHandler struct {
	profiles *profilesvc.Service
	logger   *log.Logger
}

func newProfileHandler(profiles *profilesvc.Service, logger *log.Logger) *profileHandler {
	return &profileHandler{profiles: profiles, logger: logger}
}

func (h *profileHandler) signup(c *gin.Context) {
	var in profilesvc.SignupInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	profile, err := h.profiles.Signup(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, profile)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *profileHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	token, profile, err := h.profiles.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "profile": profile})
}

func (h *profileHandler) logout(c *gin.Context) {
	token, _ := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if err := h.profiles.Logout(c.Request.Context(), token); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *profileHandler) show(c *gin.Context) {
	profile, _ := currentProfile(c)
	defaults, err := h.profiles.GetDefaults(c.Request.Context(), profile.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile, "defaults": defaults})
}

func (h *profileHandler) saveDefaults(c *gin.Context) {
	var d domain.DeliveryDefaults
	if err := c.ShouldBindJSON(&d); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	profile, _ := currentProfile(c)
	if err := h.profiles.SaveDefaults(c.Request.Context(), profile.ID, d); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

func (h *profileHandler) orders(c *gin.Context) {
	profile, _ := currentProfile(c)
	orders, err := h.profiles.OrderHistory(c.Request.Context(), profile.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
