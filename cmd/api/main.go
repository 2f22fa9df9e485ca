package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	"github.com/mercantile/storefront/api"
	"github.com/mercantile/storefront/api/routes"
	"github.com/mercantile/storefront/internal/cart"
	"github.com/mercantile/storefront/internal/checkout"
	"github.com/mercantile/storefront/internal/orders"
	product "github.com/mercantile/storefront/internal/products"
	"github.com/mercantile/storefront/internal/reviews"
	stripewebhook "github.com/mercantile/storefront/internal/webhooks/stripe"
	"github.com/mercantile/storefront/pkg/config"
	"github.com/mercantile/storefront/pkg/db"
	"github.com/mercantile/storefront/pkg/logger"
	"github.com/mercantile/storefront/pkg/metrics"
	"github.com/mercantile/storefront/pkg/migrate"
	"github.com/mercantile/storefront/pkg/pubsub"
	"github.com/mercantile/storefront/pkg/redis"
	pkgstripe "github.com/mercantile/storefront/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTPMetrics(registry)
	cartMetrics := metrics.NewCartMetrics(registry)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	deliveryFee, err := cfg.Cart.DeliveryFeeAmount()
	requireResource(ctx, logg, "delivery fee", err)

	cartStore, err := cart.NewStore(cfg.Cart.Store, cart.StoreDeps{
		Redis:  redisClient,
		DB:     dbClient.DB(),
		TTL:    cfg.Cart.TTL,
		Logger: logg,
	})
	requireResource(ctx, logg, "cart store", err)

	productRepo := product.NewRepository(dbClient.DB())
	productService, err := product.NewService(productRepo)
	requireResource(ctx, logg, "product service", err)

	cartService, err := cart.NewService(cart.ServiceParams{
		Store:       cartStore,
		Catalog:     productService,
		DeliveryFee: deliveryFee,
		Logger:      logg,
		Metrics:     cartMetrics,
	})
	requireResource(ctx, logg, "cart service", err)

	reviewService, err := reviews.NewService(
		reviews.NewRepository(dbClient.DB()),
		func(tx *gorm.DB) reviews.ProductRatings { return productRepo.WithTx(tx) },
		dbClient,
	)
	requireResource(ctx, logg, "review service", err)

	orderRepo := orders.NewRepository(dbClient.DB())
	orderService, err := orders.NewService(orderRepo)
	requireResource(ctx, logg, "order service", err)

	var events orders.EventPublisher = orders.NoopPublisher{}
	if cfg.PubSub.Enabled() {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.PubSub, logg)
		requireResource(ctx, logg, "pubsub", err)
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(ctx, "error closing pubsub", err)
			}
		}()
		publisher, err := orders.NewPubSubPublisher(pubsubClient, cfg.PubSub.OrdersTopic, logg)
		requireResource(ctx, logg, "order events publisher", err)
		events = publisher
	}

	deps := routes.Dependencies{
		Config:      cfg,
		Logger:      logg,
		Gatherer:    registry,
		HTTP:        httpMetrics,
		DBPinger:    dbClient,
		RedisPinger: redisClient,
		Redis:       redisClient,
		Products:    productService,
		Reviews:     reviewService,
		Cart:        cartService,
		Orders:      orderService,
	}

	if cfg.Stripe.Enabled() {
		stripeClient, err := pkgstripe.NewClient(ctx, cfg.Stripe, logg)
		requireResource(ctx, logg, "stripe", err)

		checkoutRepo := checkout.NewRepository(dbClient.DB())
		checkoutService, err := checkout.NewService(checkout.ServiceParams{
			Repo:    checkoutRepo,
			Ledgers: cartService,
			Catalog: productService,
			Gateway: stripeClient,
			Logger:  logg,
		})
		requireResource(ctx, logg, "checkout service", err)

		finalizer, err := checkout.NewFinalizer(checkout.FinalizerParams{
			Tx:        dbClient,
			Checkouts: checkoutRepo,
			Orders:    orderRepo,
			Ledgers:   cartService,
			Events:    events,
			Logger:    logg,
			Metrics:   checkoutMetrics,
		})
		requireResource(ctx, logg, "checkout finalizer", err)

		webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
			Finalizer: finalizer,
			Checkouts: checkoutService,
			Logger:    logg,
		})
		requireResource(ctx, logg, "stripe webhook service", err)

		guard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Eventing.WebhookIdempotencyTTL, "")
		requireResource(ctx, logg, "stripe webhook guard", err)

		deps.Checkout = checkoutService
		deps.Stripe = stripeClient
		deps.StripeWebhook = webhookService
		deps.StripeWebhookGuard = guard
	} else {
		logg.Warn(ctx, "stripe is not configured, checkout is disabled")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}

	server := api.NewServer(port, routes.NewRouter(deps), logg)
	if err := server.Run(ctx); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(logg.WithField(ctx, "resource", resource), "failed to bootstrap resource", err)
	os.Exit(1)
}
