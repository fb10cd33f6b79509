// Package server assembles the HTTP surface: middleware chain, routes and
// operational endpoints.
package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"equity/internal/config"
	_ "equity/internal/docs" // Import swagger docs
	"equity/internal/handlers"
	"equity/internal/middleware"
	"equity/internal/services"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Config        *config.Config
	Issuer        *middleware.TokenIssuer
	Health        handlers.Pinger
	Users         services.UserServicer
	Assets        services.AssetServicer
	Subscriptions services.SubscriptionServicer
	Audit         services.AuditServicer

	// Registry receives the HTTP and runtime collectors and is served on
	// /metrics. A fresh registry is created when nil.
	Registry *prometheus.Registry
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config

	registry := d.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(registry)

	authHandler := handlers.NewAuthHandler(d.Users, d.Audit, d.Issuer)
	assetHandler := handlers.NewAssetHandler(d.Assets, d.Audit)
	subscriptionHandler := handlers.NewSubscriptionHandler(d.Subscriptions, d.Audit)
	healthHandler := handlers.NewHealthHandler(d.Health)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(metrics.Handler())
	router.Use(middleware.ErrorHandler())
	router.Use(CORS(cfg.CORSOrigins))

	// Operational endpoints
	router.GET("/metrics", middleware.APIKeyMiddleware(cfg.MetricsAPIKey),
		gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api")
	api.GET("/health", healthHandler.Health)

	// Public auth routes
	limiter := middleware.NewIPRateLimiter(cfg.RateLimit.AuthPerSecond, cfg.RateLimit.AuthBurst)
	api.POST("/register", middleware.RateLimit(limiter), authHandler.Register)
	api.POST("/login", middleware.RateLimit(limiter), authHandler.Login)
	api.POST("/logout", middleware.OptionalAuth(d.Issuer), authHandler.Logout)

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(d.Issuer))

	protected.GET("/me", authHandler.Me)

	protected.POST("/subscribe", subscriptionHandler.Subscribe)
	protected.GET("/check-subscription", subscriptionHandler.CheckSubscription)
	protected.POST("/cancel-subscription", subscriptionHandler.CancelSubscription)

	equity := protected.Group("/equity")
	equity.GET("/assets", assetHandler.ListAssets)
	equity.POST("/assets", assetHandler.CreateAsset)
	equity.PUT("/assets/:id", assetHandler.UpdateAsset)
	equity.DELETE("/assets/:id", assetHandler.DeleteAsset)
	equity.GET("/summary", assetHandler.GetSummary)

	return router
}
