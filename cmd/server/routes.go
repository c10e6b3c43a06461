package main

import (
	"context"
	"net/http"
	"time"

	_ "github.com/d2bcart/backend/docs"
	"github.com/d2bcart/backend/internal/bootstrap"
	"github.com/d2bcart/backend/internal/domain/identity"
	"github.com/d2bcart/backend/internal/infrastructure/logger"
	"github.com/d2bcart/backend/internal/infrastructure/persistence"
	"github.com/d2bcart/backend/internal/interfaces/http/handler"
	"github.com/d2bcart/backend/internal/interfaces/http/middleware"
	"github.com/d2bcart/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// newEngine builds the gin engine with the global middleware stack and every
// route of the marketplace
func newEngine(app *bootstrap.App) *gin.Engine {
	cfg, log := app.Config, app.Logger

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order matters: the request ID is needed by recovery and request logs,
	// and tracing must see the final status.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.SecureWithConfig(middleware.DefaultSecurityConfig()))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.SpanErrorMarker())
	if cfg.Telemetry.Profiling.Enabled {
		engine.Use(middleware.ProfilingWithConfig(middleware.DefaultProfilingConfig()))
	}

	if cfg.HTTP.RateLimitEnabled {
		engine.Use(middleware.RateLimit(newLimiter(app, "d2b:rl:api:", cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow), log))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	engine.GET("/health", healthHandler(app.DB))
	mountAPIDocs(engine)

	s := app.Services
	webhookHandler := handler.NewWebhookHandler(s.Checkout, s.Shipping, s.Conversations)
	webhooks := engine.Group("/webhooks")
	webhooks.POST("/razorpay", webhookHandler.Razorpay)
	webhooks.POST("/shiprocket", webhookHandler.Shiprocket)
	webhooks.GET("/whatsapp", webhookHandler.VerifyWhatsApp)
	webhooks.POST("/whatsapp", webhookHandler.WhatsApp)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	registerAPI(r, app)
	r.Setup()

	return engine
}

func registerAPI(r *router.Router, app *bootstrap.App) {
	cfg, log, s := app.Config, app.Logger, app.Services

	authHandler := handler.NewAuthHandler(s.Auth, s.Users)
	catalogHandler := handler.NewCatalogHandler(s.Products, s.Categories)
	cartHandler := handler.NewCartHandler(s.Carts)
	checkoutHandler := handler.NewCheckoutHandler(s.Checkout)
	orderHandler := handler.NewOrderHandler(s.Orders, s.Shipping)
	productHandler := handler.NewManufacturerProductHandler(s.Products, s.Importer, cfg.Storage.MaxUploadBytes>>20)
	payoutHandler := handler.NewPayoutHandler(s.Payouts)
	adminCatalogHandler := handler.NewAdminCatalogHandler(s.Products, s.Categories, s.CatalogPDF)
	adminHandler := handler.NewAdminHandler(s.Dashboard, s.Users, app.Scheduler)
	marketingHandler := handler.NewMarketingHandler(s.Conversations, s.Campaigns, s.Attribution)

	requireAuth := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:  app.JWT,
		Revocations: app.Revocations,
		Logger:      log,
	})
	retailer := middleware.RequireRole(string(identity.RoleRetailer))
	manufacturer := middleware.RequireRole(string(identity.RoleManufacturer))
	admin := middleware.RequireRole(string(identity.RoleAdmin))

	// Login and registration get a tighter per-IP budget
	authLimit := middleware.RateLimit(newLimiter(app, "d2b:rl:auth:", cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow), log)

	authRoutes := router.NewDomainGroup("auth", "/auth")
	authRoutes.POST("/register", authLimit, authHandler.Register)
	authRoutes.POST("/login", authLimit, authHandler.Login)
	authRoutes.POST("/refresh", authHandler.Refresh)
	authRoutes.POST("/logout", authHandler.Logout)
	me := authRoutes.Group("me", "/me").Use(requireAuth)
	me.GET("", authHandler.Me)
	me.PUT("", authHandler.UpdateProfile)
	me.PUT("/bank-account", authHandler.UpdateBankAccount)

	catalogRoutes := router.NewDomainGroup("catalog", "/catalog").
		Use(middleware.OptionalJWTAuthMiddleware(app.JWT))
	catalogRoutes.GET("/products", catalogHandler.ListProducts)
	catalogRoutes.GET("/products/:ref", catalogHandler.GetProduct)
	catalogRoutes.GET("/categories", catalogHandler.ListCategories)

	cartRoutes := router.NewDomainGroup("cart", "/cart").Use(requireAuth, retailer)
	cartRoutes.GET("", cartHandler.Get)
	cartRoutes.DELETE("", cartHandler.Clear)
	cartRoutes.POST("/items", cartHandler.AddItem)
	cartRoutes.PUT("/items/:productId", cartHandler.UpdateItem)
	cartRoutes.DELETE("/items/:productId", cartHandler.RemoveItem)
	cartRoutes.POST("/sync", cartHandler.Sync)

	checkoutRoutes := router.NewDomainGroup("checkout", "/checkout").Use(requireAuth, retailer)
	checkoutRoutes.GET("/quote", checkoutHandler.Quote)
	checkoutRoutes.POST("", checkoutHandler.Create)
	checkoutRoutes.POST("/verify", checkoutHandler.Verify)

	orderRoutes := router.NewDomainGroup("orders", "/orders").Use(requireAuth)
	orderRoutes.GET("", orderHandler.List)
	orderRoutes.GET("/:id", orderHandler.Get)
	orderRoutes.POST("/:id/cancel", orderHandler.Cancel)
	orderRoutes.GET("/:id/tracking", orderHandler.Track)

	shippingRoutes := router.NewDomainGroup("shipping", "/shipping").Use(requireAuth)
	shippingRoutes.GET("/rates", orderHandler.Rates)

	mfrRoutes := router.NewDomainGroup("manufacturer", "/manufacturer").Use(requireAuth, manufacturer)
	products := mfrRoutes.Group("products", "/products")
	products.GET("", productHandler.List)
	products.POST("", productHandler.Create)
	products.GET("/import/template", productHandler.ImportTemplate)
	products.POST("/import", productHandler.Import)
	products.GET("/:id", productHandler.Get)
	products.PUT("/:id", productHandler.Update)
	products.DELETE("/:id", productHandler.Archive)
	products.PATCH("/:id/stock", productHandler.UpdateStock)
	products.POST("/:id/submit", productHandler.Submit)
	products.POST("/:id/images/upload-url", productHandler.RequestImageUpload)
	products.POST("/:id/images", productHandler.AttachImage)
	products.DELETE("/:id/images", productHandler.RemoveImage)
	mfrOrders := mfrRoutes.Group("orders", "/orders")
	mfrOrders.GET("", orderHandler.List)
	mfrOrders.POST("/:id/confirm", orderHandler.Confirm)
	mfrOrders.POST("/:id/pack", orderHandler.MarkPacked)
	mfrOrders.POST("/:id/ship", orderHandler.Ship)
	mfrPayouts := mfrRoutes.Group("payouts", "/payouts")
	mfrPayouts.GET("", payoutHandler.ListMine)
	mfrPayouts.GET("/summary", payoutHandler.MySummary)

	adminRoutes := router.NewDomainGroup("admin", "/admin").Use(requireAuth, admin)
	adminRoutes.GET("/dashboard", adminHandler.Dashboard)
	adminRoutes.GET("/users", adminHandler.ListUsers)
	adminRoutes.POST("/users/:id/verify", adminHandler.VerifyManufacturer)
	adminRoutes.PUT("/users/:id/active", adminHandler.SetActive)
	adminRoutes.GET("/jobs", adminHandler.ListJobs)
	adminRoutes.POST("/jobs/:name/run", adminHandler.RunJob)

	adminRoutes.GET("/products", adminCatalogHandler.ListProducts)
	adminRoutes.POST("/products/:id/approve", adminCatalogHandler.Approve)
	adminRoutes.POST("/products/:id/reject", adminCatalogHandler.Reject)
	adminRoutes.PUT("/products/:id/margin", adminCatalogHandler.SetMargin)
	adminRoutes.POST("/categories", adminCatalogHandler.CreateCategory)
	adminRoutes.PUT("/categories/:id", adminCatalogHandler.UpdateCategory)
	adminRoutes.DELETE("/categories/:id", adminCatalogHandler.DeleteCategory)
	adminRoutes.POST("/catalog/pdf", adminCatalogHandler.GenerateCatalogPDF)

	adminRoutes.GET("/orders", orderHandler.List)
	adminRoutes.GET("/orders/export", orderHandler.Export)
	adminRoutes.GET("/orders/:id", orderHandler.Get)
	adminRoutes.PATCH("/orders/:id/status", orderHandler.UpdateStatus)
	adminRoutes.POST("/orders/:id/ship", orderHandler.Ship)

	adminRoutes.GET("/payouts", payoutHandler.List)
	adminRoutes.GET("/payouts/summary", payoutHandler.Summary)
	adminRoutes.POST("/payouts/:id/paid", payoutHandler.MarkPaid)
	adminRoutes.POST("/payouts/:id/hold", payoutHandler.Hold)
	adminRoutes.POST("/payouts/:id/release", payoutHandler.Release)

	mkt := adminRoutes.Group("marketing", "/marketing")
	mkt.GET("/contacts", marketingHandler.ListContacts)
	mkt.GET("/contacts/:id/messages", marketingHandler.Conversation)
	mkt.POST("/contacts/:id/messages", marketingHandler.SendManual)
	mkt.POST("/contacts/:id/release", marketingHandler.ReleaseTakeover)
	mkt.POST("/contacts/:id/catalog", marketingHandler.ShareCatalog)
	mkt.GET("/campaigns", marketingHandler.ListCampaigns)
	mkt.POST("/campaigns", marketingHandler.CreateCampaign)
	mkt.GET("/campaigns/:id", marketingHandler.GetCampaign)
	mkt.POST("/campaigns/:id/schedule", marketingHandler.ScheduleCampaign)
	mkt.POST("/campaigns/:id/cancel", marketingHandler.CancelCampaign)
	mkt.GET("/attribution", marketingHandler.Attribution)

	r.Register(authRoutes).
		Register(catalogRoutes).
		Register(cartRoutes).
		Register(checkoutRoutes).
		Register(orderRoutes).
		Register(shippingRoutes).
		Register(mfrRoutes).
		Register(adminRoutes)

	log.Info("Routes registered",
		zap.Int("auth", authRoutes.RouteCount()),
		zap.Int("manufacturer", mfrRoutes.RouteCount()),
		zap.Int("admin", adminRoutes.RouteCount()),
	)
}

// newLimiter shares counters through Redis when it is enabled so limits hold
// across instances
func newLimiter(app *bootstrap.App, prefix string, limit int, window time.Duration) middleware.Limiter {
	if app.Redis != nil {
		return middleware.NewRedisRateLimiter(app.Redis, prefix, limit, window)
	}
	return middleware.NewRateLimiter(limit, window)
}

// healthHandler reports database reachability
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			logger.FromGin(c).Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}

// mountAPIDocs serves Swagger UI and the OpenAPI document under /swagger
func mountAPIDocs(engine *gin.Engine) {
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
