package httpserver

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"knot-art-api/internal/domain"
	profilesvc "knot-art-api/internal/service/profile"
)

const (
	sessionCookie = "cart_session"
	ctxSessionKey = "session_id"
	ctxProfileKey = "profile"
)

// cartSession ensures every request carries a shopping session id,
// issuing a cookie on first contact.
func cartSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(sessionCookie)
		if err != nil || id == "" {
			id = uuid.NewString()
			c.SetCookie(sessionCookie, id, 60*60*24*30, "/", "", false, true)
		}
		c.Set(ctxSessionKey, id)
		c.Next()
	}
}

// authenticate resolves an optional bearer token into a profile. Requests
// without a token, or with a stale one, continue anonymously.
func authenticate(profiles *profilesvc.Service, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.Next()
			return
		}
		profile, err := profiles.Authenticate(c.Request.Context(), token)
		if err != nil {
			logger.Printf("auth: token rejected: %v", err)
			c.Next()
			return
		}
		c.Set(ctxProfileKey, profile)
		c.Next()
	}
}

func requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentProfile(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, ok := currentProfile(c)
		if !ok || !profile.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(ctxSessionKey)
}

func currentProfile(c *gin.Context) (*domain.Profile, bool) {
	v, ok := c.Get(ctxProfileKey)
	if !ok {
		return nil, false
	}
	profile, ok := v.(*domain.Profile)
	return profile, ok && profile != nil
}
