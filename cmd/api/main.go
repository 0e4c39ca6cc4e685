package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"knot-art-api/internal/cart"
	"knot-art-api/internal/config"
	"knot-art-api/internal/db"
	"knot-art-api/internal/httpserver"
	"knot-art-api/internal/pricing"
	marketrepo "knot-art-api/internal/repository/market"
	orderrepo "knot-art-api/internal/repository/order"
	productrepo "knot-art-api/internal/repository/product"
	profilerepo "knot-art-api/internal/repository/profile"
	tokenrepo "knot-art-api/internal/repository/token"
	checkoutsvc "knot-art-api/internal/service/checkout"
	"knot-art-api/internal/service/mailer"
	marketsvc "knot-art-api/internal/service/market"
	"knot-art-api/internal/service/payment"
	productsvc "knot-art-api/internal/service/product"
	profilesvc "knot-art-api/internal/service/profile"
	webhooksvc "knot-art-api/internal/service/webhook"
)

func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	rule := pricing.Rule{
		FreeDeliveryThresholdCents: cfg.FreeDeliveryThresholdCents,
		DeliveryPercentage:         cfg.DeliveryPercentage,
	}

	productRepo := productrepo.NewPostgres(dbpool, logger)
	orderRepo := orderrepo.NewPostgres(dbpool, rule, logger)
	profileRepo := profilerepo.NewPostgres(dbpool, logger)
	tokenRepo := tokenrepo.NewPostgres(dbpool)
	marketRepo := marketrepo.NewPostgres(dbpool, logger)

	carts := cart.NewStore()
	gateway := payment.NewStripe(cfg.StripeSecretKey, logger)

	var mail mailer.Mailer
	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom, logger)
	} else {
		mail = mailer.NewDisabled(logger)
	}

	productService := productsvc.New(productRepo)
	profileService := profilesvc.New(profileRepo, orderRepo, tokenRepo, logger)
	marketService := marketsvc.New(marketRepo)
	checkoutService := checkoutsvc.New(carts, orderRepo, productRepo, profileRepo, gateway, rule, cfg.Currency, logger)
	webhookService := webhooksvc.New(orderRepo, productRepo, profileRepo, mail, cfg.WebhookLookupAttempts, cfg.WebhookLookupDelay, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Carts:    carts,
		Products: productRepo,
		Rule:     rule,

		Checkout: checkoutService,
		Webhook:  webhookService,
		Catalog:  productService,
		Markets:  marketService,
		Profiles: profileService,

		StripeWebhookSecret: cfg.StripeWebhookSecret,
		StripePublicKey:     cfg.StripePublicKey,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
