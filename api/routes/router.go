package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/offline"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/redis"
)

// Dependencies are the services the HTTP surface is wired to. Redis, DB, Receipts and
// Gatherer are optional.
type Dependencies struct {
	Sessions controllers.Sessions
	Catalog  *catalog.Catalog
	Receipts controllers.ReceiptReader
	Offline  *offline.Policy
	Redis    *redis.Client
	DB       controllers.Pinger
	Gatherer prometheus.Gatherer
	Now      func() time.Time
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Offline == nil {
		deps.Offline = offline.NewPolicy(cfg.Offline, cfg.Catalog.PublicPath)
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	ready := map[string]controllers.Pinger{}
	if deps.DB != nil {
		ready["db"] = deps.DB
	}
	if deps.Redis != nil {
		ready["redis"] = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(logg, ready))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Get(cfg.Catalog.PublicPath, controllers.CatalogDocument(deps.Catalog))
	r.Get("/offline/manifest", controllers.OfflineManifest(deps.Offline))

	// the limiter and idempotency store stay untyped nil without redis
	var (
		limiter interface {
			FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
		}
		idemStore middleware.IdempotencyStore
	)
	if deps.Redis != nil {
		limiter = deps.Redis
		idemStore = deps.Redis
	}
	idem := func(ttl time.Duration) func(http.Handler) http.Handler {
		return middleware.Idempotent(idemStore, ttl, logg)
	}
	paymentLimit := middleware.RateLimit(
		middleware.NewRateLimitPolicy("payment", cfg.App.RateWindow, cfg.App.RateLimit),
		limiter,
		logg,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/products", controllers.CatalogProducts(deps.Catalog, logg))
			r.Get("/products/{productID}", controllers.CatalogProduct(deps.Catalog, logg))
			r.Get("/categories", controllers.CatalogCategories(deps.Catalog))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(cfg.Session, logg, deps.Now))

			r.Get("/session", controllers.SessionView(deps.Sessions, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.SessionView(deps.Sessions, logg))
				r.Delete("/", controllers.CartClear(deps.Sessions, logg))
				r.Post("/items", controllers.CartAddItem(deps.Sessions, logg))
				r.Patch("/items/{productID}", controllers.CartUpdateQuantity(deps.Sessions, logg))
				r.Delete("/items/{productID}", controllers.CartRemoveItem(deps.Sessions, logg))
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Post("/open", controllers.CheckoutOpen(deps.Sessions, logg))
				r.Post("/shipping", controllers.CheckoutSubmitShipping(deps.Sessions, logg))
				r.Post("/back", controllers.CheckoutBack(deps.Sessions, logg))
				r.Post("/validate", controllers.CheckoutValidate(logg))
				r.Put("/shipping-method", controllers.CheckoutShippingMethod(deps.Sessions, logg))
			})

			r.Route("/payment", func(r chi.Router) {
				r.Get("/order-request", controllers.PaymentOrderRequest(deps.Sessions, logg))
				r.Group(func(r chi.Router) {
					r.Use(paymentLimit)
					r.With(idem(middleware.DefaultIdempotencyTTL)).Post("/orders", controllers.PaymentCreateOrder(deps.Sessions, logg))
					r.With(idem(middleware.CaptureIdempotencyTTL)).Post("/orders/{orderID}/approve", controllers.PaymentApprove(deps.Sessions, logg))
					r.With(idem(middleware.DefaultIdempotencyTTL)).Post("/orders/{orderID}/cancel", controllers.PaymentCancel(deps.Sessions, logg))
					r.Post("/orders/{orderID}/error", controllers.PaymentError(deps.Sessions, logg))
				})
			})

			r.Route("/receipts", func(r chi.Router) {
				r.Get("/", controllers.ReceiptsList(deps.Receipts, logg))
				r.Get("/{orderID}", controllers.ReceiptForOrder(deps.Receipts, cfg.Payment.ProviderName(), logg))
			})
		})
	})

	if cfg.App.StaticDir != "" {
		r.Handle("/*", offline.Static(deps.Offline, http.Dir(cfg.App.StaticDir)))
	}

	return r
}
