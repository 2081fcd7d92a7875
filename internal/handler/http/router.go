package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

// NewRouter creates the diagnostics router: health, metrics and a local
// control surface over the cart controller and the locale state.
func NewRouter(
	cart CartController,
	locales LocaleSwitcher,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("diagnostics"))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	cartHandler := NewCartHandler(cart, logger)
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", cartHandler.GetCart)
		r.Post("/refresh", cartHandler.Refresh)
		r.Post("/items", cartHandler.AddItem)
		r.Get("/items/{itemId}/state", cartHandler.ItemState)
		r.Patch("/items/{itemId}", cartHandler.ChangeQuantity)
		r.Delete("/items/{itemId}", cartHandler.RemoveItem)
		r.Post("/coupon", cartHandler.ApplyCoupon)
	})

	localeHandler := NewLocaleHandler(locales, logger)
	r.Get("/locale", localeHandler.GetLocale)
	r.Put("/locale", localeHandler.SetLocale)

	return r
}
