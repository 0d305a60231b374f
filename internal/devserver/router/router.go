package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ticketing-front/internal/config"
	"ticketing-front/internal/devserver/handler"
	"ticketing-front/internal/devserver/live"
	"ticketing-front/internal/devserver/metrics"
	"ticketing-front/internal/devserver/middleware"
)

type Handlers struct {
	Auth   *handler.AuthHandler
	Offer  *handler.OfferHandler
	Order  *handler.OrderHandler
	Ticket *handler.TicketHandler
	Live   *live.Hub
	// Health is called by /health when set.
	Health func(ctx context.Context) error
}

func New(cfg *config.DevServer, authMiddleware *middleware.AuthMiddleware, h Handlers, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(m.Middleware)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if h.Health != nil {
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			if err := h.Health(ctx); err != nil {
				slog.Warn("health check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("unavailable"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Group(func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", h.Auth.Register)
			auth.Post("/login", h.Auth.Login)
			auth.Post("/otp/verify", h.Auth.VerifyOTP)
		})

		api.Get("/api/offers", h.Offer.Public)
		api.Get("/api/tickets/verify", h.Ticket.Verify)
		api.Get("/api/tickets/{ticketId}/qr.png", h.Order.QRCode)

		api.Group(func(private chi.Router) {
			private.Use(authMiddleware.RequireAuth)

			private.Get("/api/me", h.Auth.Me)
			private.Post("/api/order/checkout", h.Order.Checkout)
			private.Get("/api/order/orders", h.Order.Orders)
			private.Get("/api/order/{orderId}/tickets", h.Order.Tickets)
			private.With(authMiddleware.RequireRoles("ADMIN", "AGENT")).Post("/api/tickets/consume", h.Ticket.Consume)

			private.Route("/api/admin", func(admin chi.Router) {
				admin.Use(authMiddleware.RequireRoles("ADMIN"))

				admin.Get("/offers", h.Offer.List)
				admin.Post("/offers", h.Offer.Create)
				admin.Put("/offers/{id}", h.Offer.Update)
				admin.Patch("/offers/{id}/active", h.Offer.SetActive)
				admin.Delete("/offers/{id}", h.Offer.Delete)
				admin.Get("/sales", h.Ticket.Sales)
				admin.Get("/events", h.Live.ServeHTTP)
			})
		})
	})

	return r
}
