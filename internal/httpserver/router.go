package httpserver

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"knot-art-api/internal/cart"
	"knot-art-api/internal/pricing"
	productrepo "knot-art-api/internal/repository/product"
	checkoutsvc "knot-art-api/internal/service/checkout"
	marketsvc "knot-art-api/internal/service/market"
	productsvc "knot-art-api/internal/service/product"
	profilesvc "knot-art-api/internal/service/profile"
	webhooksvc "knot-art-api/internal/service/webhook"
)

// Deps carries the wired services the router hands to handlers.
type Deps struct {
	Carts    *cart.Store
	Products productrepo.Repository
	Rule     pricing.Rule

	Checkout *checkoutsvc.Service
	Webhook  *webhooksvc.Service
	Catalog  *productsvc.Service
	Markets  *marketsvc.Service
	Profiles *profilesvc.Service

	StripeWebhookSecret string
	StripePublicKey     string
}

func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Stripe-Signature"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", healthHandler)
	router.GET("/ready", readyHandler(db))

	router.Use(cartSession())
	router.Use(authenticate(deps.Profiles, logger))

	catalog := newCatalogHandler(deps.Catalog, logger)
	router.GET("/products", catalog.list)
	router.GET("/products/:id", catalog.get)
	router.GET("/categories", catalog.categories)

	admin := router.Group("/", requireAuth(), requireAdmin())
	admin.POST("/products", catalog.create)
	admin.PUT("/products/:id", catalog.update)
	admin.DELETE("/products/:id", catalog.delete)

	bag := newCartHandler(deps.Carts, deps.Products, deps.Rule, logger)
	router.GET("/cart", bag.show)
	router.POST("/cart/add/:id", bag.add)
	router.POST("/cart/adjust/:id", bag.adjust)
	router.POST("/cart/remove/:id", bag.remove)

	checkout := newCheckoutHandler(deps.Checkout, deps.StripePublicKey, logger)
	router.GET("/checkout", checkout.begin)
	router.POST("/checkout/cache", checkout.cache)
	router.POST("/checkout", checkout.submit)
	router.GET("/checkout/success/:orderNumber", checkout.success)

	wh := newWebhookHandler(deps.Webhook, deps.StripeWebhookSecret, logger)
	router.POST("/checkout/wh", wh.handle)

	markets := newMarketHandler(deps.Markets, logger)
	router.GET("/markets", markets.list)
	router.GET("/markets/:id", markets.get)
	router.GET("/markets/:id/comments", markets.comments)
	admin.POST("/markets", markets.create)
	admin.PUT("/markets/:id", markets.update)
	admin.DELETE("/markets/:id", markets.delete)

	authed := router.Group("/", requireAuth())
	authed.POST("/markets/:id/comments", markets.addComment)
	authed.PUT("/comments/:id", markets.editComment)
	authed.DELETE("/comments/:id", markets.deleteComment)
	authed.POST("/markets/:id/save", markets.save)
	authed.DELETE("/markets/:id/save", markets.unsave)

	profiles := newProfileHandler(deps.Profiles, logger)
	router.POST("/signup", profiles.signup)
	router.POST("/login", profiles.login)
	authed.POST("/logout", profiles.logout)
	authed.GET("/profile", profiles.show)
	authed.PUT("/profile/defaults", profiles.saveDefaults)
	authed.GET("/profile/orders", profiles.orders)
	authed.GET("/profile/saved-markets", markets.saved)

	return router, nil
}
