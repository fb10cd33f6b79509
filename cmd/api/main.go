package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"equity/internal/billing"
	"equity/internal/config"
	"equity/internal/database"
	"equity/internal/events"
	"equity/internal/logger"
	"equity/internal/middleware"
	"equity/internal/server"
	"equity/internal/services"
	"equity/internal/tokenstore"
	"equity/internal/validator"
)

// @title           Equity API
// @version         1.0
// @description     Equity is a portfolio tracker: users record the assets they hold, see them summarised by sector and manage a premium subscription.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const (
	shutdownTimeout = 10 * time.Second
	purgeInterval   = time.Hour
)

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.JWT.SecretGenerated {
		log.Warn("JWT_SECRET not set; generated a random secret, tokens will not survive a restart")
	}

	validator.Register()

	dbManager, err := database.NewManager(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	db := dbManager.DB()

	store, err := tokenstore.Open(ctx, cfg.JWT, cfg.Redis, db)
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}
	if dbStore, ok := store.(*tokenstore.DBStore); ok {
		go purgeRevokedTokens(ctx, dbStore)
	}
	issuer := middleware.NewTokenIssuer(cfg.JWT, store)

	var provider billing.Provider
	if cfg.BillingConfigured() {
		provider = billing.NewStripeProvider(cfg.Stripe)
	} else {
		log.Warn("STRIPE_SECRET_KEY not set; subscription endpoints will report billing as not configured")
	}

	publisher, err := events.Open(cfg.AMQP)
	if err != nil {
		return fmt.Errorf("failed to connect to message broker: %w", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warnf("publisher close error: %v", err)
		}
	}()

	// Initialize services
	guard := services.NewOwnershipGuard(db)
	router := server.NewRouter(server.Deps{
		Config:        cfg,
		Issuer:        issuer,
		Health:        dbManager,
		Users:         services.NewUserService(db),
		Assets:        services.NewAssetService(db, guard),
		Subscriptions: services.NewSubscriptionService(db, guard, provider, cfg.Stripe.PriceID, publisher),
		Audit:         services.NewAuditService(db),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Equity backend server on port %s", cfg.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// purgeRevokedTokens deletes expired revocation rows until ctx is done.
func purgeRevokedTokens(ctx context.Context, store *tokenstore.DBStore) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.Purge(ctx)
			if err != nil {
				logger.Get().Warnw("failed to purge revoked tokens", "error", err)
				continue
			}
			if n > 0 {
				logger.Get().Debugw("purged revoked tokens", "count", n)
			}
		}
	}
}
