// Package bootstrap wires repositories, adapters and application services from
// configuration. The HTTP server and the operator CLI share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"

	adminapp "github.com/d2bcart/backend/internal/application/admin"
	cartapp "github.com/d2bcart/backend/internal/application/cart"
	catalogapp "github.com/d2bcart/backend/internal/application/catalog"
	identityapp "github.com/d2bcart/backend/internal/application/identity"
	marketingapp "github.com/d2bcart/backend/internal/application/marketing"
	payoutapp "github.com/d2bcart/backend/internal/application/payout"
	shippingapp "github.com/d2bcart/backend/internal/application/shipping"
	tradeapp "github.com/d2bcart/backend/internal/application/trade"
	"github.com/d2bcart/backend/internal/domain/identity"
	"github.com/d2bcart/backend/internal/domain/marketing"
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/domain/shipping"
	"github.com/d2bcart/backend/internal/domain/trade"
	"github.com/d2bcart/backend/internal/infrastructure/auth"
	"github.com/d2bcart/backend/internal/infrastructure/cache"
	"github.com/d2bcart/backend/internal/infrastructure/config"
	"github.com/d2bcart/backend/internal/infrastructure/event"
	"github.com/d2bcart/backend/internal/infrastructure/gemini"
	"github.com/d2bcart/backend/internal/infrastructure/metaads"
	"github.com/d2bcart/backend/internal/infrastructure/persistence"
	"github.com/d2bcart/backend/internal/infrastructure/printing"
	"github.com/d2bcart/backend/internal/infrastructure/razorpay"
	"github.com/d2bcart/backend/internal/infrastructure/scheduler"
	"github.com/d2bcart/backend/internal/infrastructure/shiprocket"
	"github.com/d2bcart/backend/internal/infrastructure/storage"
	"github.com/d2bcart/backend/internal/infrastructure/telemetry"
	"github.com/d2bcart/backend/internal/infrastructure/whatsapp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services holds every application service
type Services struct {
	Auth           *identityapp.AuthService
	Users          *identityapp.UserService
	Products       *catalogapp.ProductService
	Categories     *catalogapp.CategoryService
	CatalogPDF     *catalogapp.CatalogPDFService
	Importer       *catalogapp.ProductImportService
	Carts          *cartapp.CartService
	Checkout       *tradeapp.CheckoutService
	Orders         *tradeapp.OrderService
	Shipping       *shippingapp.Service
	Payouts        *payoutapp.Service
	Conversations  *marketingapp.ConversationService
	Campaigns      *marketingapp.CampaignService
	AbandonedCarts *marketingapp.AbandonedCartService
	Attribution    *marketingapp.AttributionService
	Dashboard      *adminapp.DashboardService
}

// App is the wired marketplace
type App struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *persistence.Database
	Redis       *redis.Client
	JWT         *auth.JWTService
	Revocations auth.RevocationList
	Events      *event.InMemoryEventBus
	Scheduler   *scheduler.Scheduler
	Services    Services

	closers []func(ctx context.Context) error
}

// New connects to the database and optional Redis, builds adapters for the
// configured integrations and wires the application services. Integrations
// without credentials are left out; the services report them unavailable.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, metrics *telemetry.BusinessMetrics) (*App, error) {
	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Logger: log, DB: db}
	app.onClose(func(context.Context) error { return db.Close() })

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:          cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		IncludeVariables: !cfg.App.IsProduction(),
		DBName:           cfg.Database.DBName,
	}, log); err != nil {
		log.Warn("Failed to enable database tracing", zap.Error(err))
	}

	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			_ = app.Close(ctx)
			return nil, err
		}
		app.Redis = client
		app.onClose(func(context.Context) error { return client.Close() })
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	app.Events = event.NewInMemoryEventBus(log)
	app.wire(ctx, metrics)
	app.subscribe()
	if err := app.registerJobs(); err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	return app, nil
}

func (a *App) onClose(fn func(ctx context.Context) error) {
	a.closers = append(a.closers, fn)
}

func (a *App) wire(ctx context.Context, metrics *telemetry.BusinessMetrics) {
	cfg, log := a.Config, a.Logger
	gdb := a.DB.DB

	userRepo := persistence.NewGormUserRepository(gdb)
	productRepo := persistence.NewGormProductRepository(gdb)
	categoryRepo := persistence.NewGormCategoryRepository(gdb)
	cartRepo := persistence.NewGormCartRepository(gdb)
	orderRepo := persistence.NewGormOrderRepository(gdb)
	attemptRepo := persistence.NewGormPaymentAttemptRepository(gdb)
	shipmentRepo := persistence.NewGormShipmentRepository(gdb)
	payoutRepo := persistence.NewGormPayoutRepository(gdb)
	contactRepo := persistence.NewGormContactRepository(gdb)
	messageRepo := persistence.NewGormMessageRepository(gdb)
	campaignRepo := persistence.NewGormCampaignRepository(gdb)
	txScope := persistence.NewGormTransactionScope(gdb)

	// Shared stores: Redis when enabled, process memory otherwise
	var (
		idempotency shared.IdempotencyStore
		rateCache   shipping.RateCache
		tokenCache  cache.TokenCache
	)
	if a.Redis != nil {
		a.Revocations = auth.NewRedisRevocationList(a.Redis)
		idempotency = cache.NewRedisIdempotencyStoreWithClient(a.Redis, "d2b:webhook:")
		rateCache = cache.NewRedisRateCache(a.Redis, log)
		tokenCache = cache.NewRedisTokenCache(a.Redis)
	} else {
		a.Revocations = auth.NewInMemoryRevocationList()
		store := cache.NewInMemoryIdempotencyStore()
		a.onClose(func(context.Context) error { return store.Close() })
		idempotency = store
		rateCache = cache.NewInMemoryRateCache()
		tokenCache = cache.NewInMemoryTokenCache()
	}

	a.JWT = auth.NewJWTService(cfg.JWT)

	var objects catalogapp.ObjectStorage
	if cfg.Storage.Enabled {
		s3, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Warn("Object storage disabled", zap.Error(err))
		} else {
			objects = s3
		}
	}

	renderer := printing.NewChromedpRenderer(printing.ChromedpConfig{
		RemoteURL: cfg.Printing.ChromeURL,
		Timeout:   cfg.Printing.Timeout,
		NoSandbox: os.Geteuid() == 0,
		Logger:    log,
	})
	a.onClose(func(context.Context) error { return renderer.Close() })
	// The built-in template always parses
	catalogTemplate, _ := printing.NewTemplateEngine("")

	var gateway trade.PaymentGateway
	if rp, err := razorpay.NewClient(cfg.Razorpay); err == nil {
		gateway = rp
	} else {
		log.Warn("Online payments disabled", zap.Error(err))
	}

	var aggregator shipping.Aggregator
	if sr, err := shiprocket.NewClient(cfg.Shiprocket, tokenCache, log); err == nil {
		aggregator = sr
	} else {
		log.Warn("Courier booking disabled, flat shipping applies", zap.Error(err))
	}

	var (
		messenger marketing.Messenger
		channel   marketing.InboundChannel
	)
	if wa, err := whatsapp.NewClient(cfg.WhatsApp); err == nil {
		messenger, channel = wa, wa
	} else {
		log.Warn("WhatsApp messaging disabled", zap.Error(err))
	}

	var replier marketing.ReplyGenerator
	if cfg.AI.Enabled() {
		if r, err := gemini.NewResponder(ctx, cfg.AI, ""); err == nil {
			replier = r
		} else {
			log.Warn("AI auto-responder disabled", zap.Error(err))
		}
	}

	var sink marketing.ConversionSink
	if ads, err := metaads.NewClient(cfg.Ads, ""); err == nil {
		sink = ads
	} else if !errors.Is(err, metaads.ErrNotConfigured) {
		log.Warn("Conversions API disabled", zap.Error(err))
	}

	s := &a.Services
	s.Users = identityapp.NewUserService(userRepo, a.Events, log)
	s.Auth = identityapp.NewAuthService(userRepo, a.JWT, a.Revocations, a.Events, log)
	s.Categories = catalogapp.NewCategoryService(categoryRepo, log)
	s.Products = catalogapp.NewProductService(productRepo, categoryRepo, userRepo, objects, a.Events,
		catalogapp.ProductServiceConfig{
			DefaultMarginPercent: cfg.Marketplace.DefaultMarginPercent,
			PresignExpiry:        cfg.Storage.PresignExpiry,
		}, log)
	s.Importer = catalogapp.NewProductImportService(productRepo, categoryRepo, cfg.Marketplace.DefaultMarginPercent, log)
	s.CatalogPDF = catalogapp.NewCatalogPDFService(productRepo, categoryRepo, userRepo, objects, renderer, catalogTemplate,
		catalogapp.CatalogPDFConfig{
			StoreName:   cfg.App.SupportName,
			ContactLine: cfg.App.PublicURL,
			LinkExpiry:  cfg.Storage.PresignExpiry,
		}, log)
	s.Carts = cartapp.NewCartService(cartRepo, productRepo, userRepo, log)

	s.Orders = tradeapp.NewOrderService(orderRepo, txScope, a.Events, cfg.Marketplace.PayoutHold, log)
	s.Shipping = shippingapp.NewService(aggregator, rateCache, shipmentRepo, orderRepo, s.Orders, productRepo, userRepo, metrics,
		shippingapp.Config{
			Strategy:       shipping.ParseStrategy(cfg.Shiprocket.Strategy),
			MaxDays:        cfg.Shiprocket.MaxDays,
			RateCacheTTL:   cfg.Shiprocket.RateCacheTTL,
			FlatRate:       cfg.Shiprocket.FlatRate,
			PickupLocation: cfg.Shiprocket.PickupLocation,
			WebhookToken:   cfg.Shiprocket.WebhookToken,
		}, log)
	materializer := tradeapp.NewMaterializer(attemptRepo, orderRepo, txScope, a.Events, metrics, log)
	s.Checkout = tradeapp.NewCheckoutService(cartRepo, userRepo, attemptRepo, orderRepo,
		cartapp.NewPricer(productRepo, userRepo), gateway, s.Shipping, materializer, idempotency, metrics,
		tradeapp.CheckoutConfig{
			AdvancePercent: cfg.Marketplace.AdvancePercent,
			AttemptTTL:     cfg.Marketplace.PaymentAttemptTTL,
			FlatShipping:   cfg.Shiprocket.FlatRate,
		}, log)
	s.Payouts = payoutapp.NewService(payoutRepo, log)

	s.Conversations = marketingapp.NewConversationService(contactRepo, messageRepo, productRepo, messenger, channel, replier,
		s.CatalogPDF, metrics,
		marketingapp.ConversationConfig{
			HumanTakeoverCooldown: cfg.Marketing.HumanTakeoverCooldown,
			StoreInfo:             cfg.AI.StoreInfo,
			SupportName:           cfg.App.SupportName,
		}, log)
	s.Campaigns = marketingapp.NewCampaignService(campaignRepo, contactRepo, messageRepo, messenger, metrics,
		marketingapp.CampaignConfig{
			Concurrency: cfg.Marketing.CampaignConcurrency,
			BatchSize:   cfg.Marketing.CampaignBatchSize,
			StaleAfter:  cfg.Marketing.CampaignStaleAfter,
		}, log)
	s.AbandonedCarts = marketingapp.NewAbandonedCartService(cartRepo, userRepo, contactRepo, messageRepo, messenger, metrics,
		marketingapp.AbandonedCartConfig{
			After:     cfg.Marketing.AbandonedCartAfter,
			MaxAge:    cfg.Marketing.AbandonedCartMaxAge,
			Template:  cfg.WhatsApp.AbandonedCartTemplate,
			Language:  cfg.WhatsApp.TemplateLanguage,
			PublicURL: cfg.App.PublicURL,
		}, log)
	s.Attribution = marketingapp.NewAttributionService(orderRepo, userRepo, sink, cfg.App.PublicURL, log)
	s.Dashboard = adminapp.NewDashboardService(userRepo, productRepo, orderRepo, payoutRepo, log)
}

// subscribe connects cross-context event handlers
func (a *App) subscribe() {
	a.Events.Subscribe(event.NewHandlerFunc(a.Services.Conversations.HandleUserRegistered, identity.EventTypeUserRegistered))
	a.Events.Subscribe(event.NewHandlerFunc(a.Services.Attribution.HandleOrderPlaced, trade.EventTypeOrderPlaced))
}

// Start starts the event bus and, when enabled, the job scheduler
func (a *App) Start(ctx context.Context) error {
	if err := a.Events.Start(ctx); err != nil {
		return fmt.Errorf("failed to start event bus: %w", err)
	}
	a.onClose(a.Events.Stop)
	if err := a.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	a.onClose(a.Scheduler.Stop)
	return nil
}

// Close releases resources in reverse order of acquisition
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
