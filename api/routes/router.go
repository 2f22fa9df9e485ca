package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mercantile/storefront/api/controllers"
	webhookcontrollers "github.com/mercantile/storefront/api/controllers/webhooks"
	"github.com/mercantile/storefront/api/middleware"
	"github.com/mercantile/storefront/internal/cart"
	checkoutsvc "github.com/mercantile/storefront/internal/checkout"
	"github.com/mercantile/storefront/internal/orders"
	product "github.com/mercantile/storefront/internal/products"
	"github.com/mercantile/storefront/internal/reviews"
	stripewebhook "github.com/mercantile/storefront/internal/webhooks/stripe"
	"github.com/mercantile/storefront/pkg/config"
	"github.com/mercantile/storefront/pkg/enums"
	"github.com/mercantile/storefront/pkg/logger"
	"github.com/mercantile/storefront/pkg/metrics"
	"github.com/mercantile/storefront/pkg/redis"
	pkgstripe "github.com/mercantile/storefront/pkg/stripe"
)

// RedisStore is the redis surface the HTTP layer needs.
type RedisStore interface {
	redis.IdempotencyStore
	redis.RateLimiter
}

// Dependencies are the services behind the HTTP surface. Checkout, the
// webhook service and the Stripe client are nil when payments are disabled.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	Gatherer prometheus.Gatherer
	HTTP     *metrics.HTTPMetrics

	DBPinger    controllers.Pinger
	RedisPinger controllers.Pinger
	Redis       RedisStore

	Products product.Service
	Reviews  reviews.Service
	Cart     cart.Service
	Checkout checkoutsvc.Service
	Orders   orders.Service

	Stripe             *pkgstripe.Client
	StripeWebhook      *stripewebhook.Service
	StripeWebhookGuard *stripewebhook.IdempotencyGuard
}

func NewRouter(deps Dependencies) http.Handler {
	cfg, logg := deps.Config, deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTP),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	var idempotencyStore redis.IdempotencyStore
	var limiter redis.RateLimiter
	if deps.Redis != nil {
		idempotencyStore, limiter = deps.Redis, deps.Redis
	}
	promoPolicy := middleware.RateLimitPolicy{
		Name:   "promo",
		Limit:  cfg.RateLimit.PromoLimit,
		Window: cfg.RateLimit.PromoWindow,
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, logg,
			controllers.Dependency{Name: "database", Pinger: deps.DBPinger},
			controllers.Dependency{Name: "redis", Pinger: deps.RedisPinger},
		))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		if deps.StripeWebhook != nil && deps.Stripe != nil && deps.StripeWebhookGuard != nil {
			r.Post("/stripe", webhookcontrollers.StripeWebhook(deps.StripeWebhook, deps.Stripe, deps.StripeWebhookGuard, logg))
			return
		}
		r.Post("/stripe", webhookcontrollers.StripeWebhook(nil, nil, nil, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWT, logg))
		r.Use(middleware.CartSession(cfg.Cart, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.Products, logg))
			r.Get("/{productId}", controllers.GetProduct(deps.Products, logg))
			r.Get("/{productId}/reviews", controllers.ListReviews(deps.Reviews, logg))
			r.With(middleware.Auth(cfg.JWT, logg)).Post("/{productId}/reviews", controllers.CreateReview(deps.Reviews, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(deps.Cart, logg))
			r.Delete("/", controllers.ClearCart(deps.Cart, logg))
			r.Post("/items", controllers.AddCartItem(deps.Cart, logg))
			r.Patch("/items/{productId}", controllers.UpdateCartItem(deps.Cart, logg))
			r.Delete("/items/{productId}", controllers.RemoveCartItem(deps.Cart, logg))
			r.With(middleware.RateLimit(promoPolicy, limiter, logg)).Post("/promo", controllers.ApplyPromo(deps.Cart, logg))
		})

		r.Post("/checkout", controllers.StartCheckout(deps.Checkout, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Get("/orders", controllers.ListMyOrders(deps.Orders, logg))
			r.Get("/orders/{orderId}", controllers.GetOrder(deps.Orders, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminListProducts(deps.Products, logg))
			r.Post("/", controllers.AdminCreateProduct(deps.Products, logg))
			r.Get("/{productId}", controllers.AdminGetProduct(deps.Products, logg))
			r.Patch("/{productId}", controllers.AdminUpdateProduct(deps.Products, logg))
			r.Delete("/{productId}", controllers.AdminDeleteProduct(deps.Products, logg))
		})
		r.Get("/orders", controllers.AdminListOrders(deps.Orders, logg))
		r.Get("/orders/{orderId}", controllers.GetOrder(deps.Orders, logg))
	})

	return r
}
