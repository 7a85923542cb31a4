package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

type Services struct {
	Catalog  CatalogService
	Cart     CartService
	Checkout CheckoutService
	Accounts AccountService
	Contact  ContactService
	Reviews  ReviewService
	// Ready reports whether backing stores answer. Nil means always ready.
	Ready func(ctx context.Context) error
}

func NewRouter(cfg RouterConfig, svc Services, sessions *SessionManager, log *slog.Logger) http.Handler {
	catalogHandler := NewCatalogHandler(svc.Catalog, cfg.RequestTimeout, log)
	cartHandler := NewCartHandler(svc.Cart, cfg.RequestTimeout, log)
	checkoutHandler := NewCheckoutHandler(svc.Checkout, cfg.RequestTimeout, cfg.MaxBodyBytes, log)
	accountHandler := NewAccountHandler(svc.Accounts, sessions, cfg.RequestTimeout, cfg.MaxBodyBytes, log)
	contactHandler := NewContactHandler(svc.Contact, cfg.RequestTimeout, cfg.MaxBodyBytes, log)
	reviewHandler := NewReviewHandler(svc.Reviews, cfg.RequestTimeout, cfg.MaxBodyBytes, log)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready != nil {
			if err := svc.Ready(r.Context()); err != nil {
				log.WarnContext(r.Context(), "health check failed", "error", err)
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(sessions.Middleware)

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/register", accountHandler.Register)
			r.Post("/login", accountHandler.Login)
			r.Post("/logout", accountHandler.Logout)
			r.Post("/forgot", accountHandler.Forgot)
			r.Post("/otp", accountHandler.VerifyOTP)
			r.Post("/reset", accountHandler.Reset)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireUser)

			r.Get("/products", catalogHandler.ListProducts)
			r.Get("/products/{product_id}", catalogHandler.GetProduct)
			r.Get("/shop", catalogHandler.Shop)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)
				r.Post("/items/{product_id}", cartHandler.AddItem)
				r.Delete("/items/{product_id}", cartHandler.RemoveItem)
			})

			r.Post("/checkout", checkoutHandler.Submit)
			r.Get("/checkout/{checkout_id}", checkoutHandler.GetCheckout)
			r.Post("/contact", contactHandler.Submit)
			r.Get("/reviews", reviewHandler.List)
			r.Post("/reviews", reviewHandler.Submit)
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
