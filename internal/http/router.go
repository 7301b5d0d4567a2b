package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewRouter wires the cart API the storefront UI talks to.
func NewRouter(handler *CartHandler, logger zerolog.Logger, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/cart", func(r chi.Router) {
		r.Use(OwnerMiddleware)
		r.Use(LoggerMiddleware(logger))

		r.Get("/", handler.GetCart)
		r.Delete("/", handler.ClearCart)

		r.Post("/items", handler.AddItem)
		r.Delete("/items", handler.RemoveSelectedItems)
		r.Patch("/items/{id}", handler.UpdateQuantity)
		r.Delete("/items/{id}", handler.RemoveItem)
		r.Post("/items/{id}/restore", handler.RestoreItem)

		r.Post("/coupon", handler.ApplyCoupon)
		r.Delete("/coupon", handler.RemoveCoupon)

		r.Post("/selection/{id}", handler.ToggleSelectItem)
		r.Put("/selection", handler.SelectAllItems)
		r.Delete("/selection", handler.DeselectAllItems)
		r.Post("/selection/toggle", handler.ToggleSelectAll)

		r.Post("/reconcile", handler.Reconcile)
	})

	return otelhttp.NewHandler(r, "cart-api")
}
