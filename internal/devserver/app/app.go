package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ticketing-front/internal/config"
	"ticketing-front/internal/devserver/database"
	"ticketing-front/internal/devserver/event"
	"ticketing-front/internal/devserver/handler"
	"ticketing-front/internal/devserver/live"
	"ticketing-front/internal/devserver/metrics"
	"ticketing-front/internal/devserver/middleware"
	"ticketing-front/internal/devserver/repository"
	"ticketing-front/internal/devserver/repository/postgres"
	"ticketing-front/internal/devserver/router"
	"ticketing-front/internal/devserver/seed"
	"ticketing-front/internal/devserver/service"
)

const (
	shutdownTimeout = 10 * time.Second
	otpCleanupEvery = time.Minute
)

type App struct {
	server  *http.Server
	handler http.Handler
	bus     *event.InMemoryBus
	metrics *metrics.Metrics
	hub     *live.Hub
	otps    repository.OTPStore
	db      *database.DB
}

// New wires the backend: in memory, or on PostgreSQL when
// cfg.DatabaseURL is set. A nil sender writes one-time codes to the log.
func New(ctx context.Context, cfg *config.DevServer, sender service.CodeSender) (*App, error) {
	data, err := seed.Load(cfg.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load seed: %w", err)
	}

	stores, db, err := openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	application, err := build(ctx, cfg, sender, data, stores, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return application, nil
}

func openStores(ctx context.Context, cfg *config.DevServer) (repository.Stores, *database.DB, error) {
	if cfg.DatabaseURL == "" {
		slog.Info("using in-memory stores")
		return repository.NewMemoryStores(), nil, nil
	}

	db, err := database.New(ctx, cfg.DatabaseURL, database.Options{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
	if err != nil {
		return repository.Stores{}, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return repository.Stores{}, nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	slog.Info("database ready")
	return postgres.NewStores(db.Pool), db, nil
}

func build(ctx context.Context, cfg *config.DevServer, sender service.CodeSender, data *seed.Data, stores repository.Stores, db *database.DB) (*App, error) {
	bus := event.NewBus()
	appMetrics := metrics.New()
	if err := appMetrics.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "ticketing_event_subscriber_drops",
		Help: "Events missed by slow subscribers still connected",
	}, func() float64 { return float64(bus.Dropped()) })); err != nil {
		return nil, fmt.Errorf("failed to register bus metrics: %w", err)
	}

	authService, err := service.NewAuthService(cfg.JWTSecret, cfg.JWTTTL, cfg.OTPTTL, stores.Users, stores.OTPs, sender, bus)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}
	catalogService := service.NewCatalogService(stores.Offers, stores.Orders, bus)
	orderService := service.NewOrderService(stores.Users, stores.Offers, stores.Orders, bus)
	gateService := service.NewGateService(stores.Orders, bus)
	salesService := service.NewSalesService(stores.Offers, stores.Orders)

	seeded, err := catalogService.Seed(ctx, data.OfferInputs())
	if err != nil {
		return nil, fmt.Errorf("failed to seed offers: %w", err)
	}
	for _, user := range data.Users {
		if err := authService.SeedUser(ctx, user.Email, user.Password, user.FirstName, user.LastName, user.Roles); err != nil {
			return nil, fmt.Errorf("failed to seed user %s: %w", user.Email, err)
		}
	}
	slog.Info("seed loaded", "offers", seeded, "users", len(data.Users))

	hub := live.NewHub(bus, cfg.CORSOrigins)
	authMiddleware := middleware.NewAuthMiddleware(authService)
	handlers := router.Handlers{
		Auth:   handler.NewAuthHandler(authService),
		Offer:  handler.NewOfferHandler(catalogService),
		Order:  handler.NewOrderHandler(orderService),
		Ticket: handler.NewTicketHandler(gateService, salesService),
		Live:   hub,
	}
	if db != nil {
		handlers.Health = db.Health
		if err := appMetrics.Register(db.Collector()); err != nil {
			return nil, fmt.Errorf("failed to register pool metrics: %w", err)
		}
	}
	appRouter := router.New(cfg, authMiddleware, handlers, appMetrics)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      appRouter,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return &App{
		server:  server,
		handler: appRouter,
		bus:     bus,
		metrics: appMetrics,
		hub:     hub,
		otps:    stores.OTPs,
		db:      db,
	}, nil
}

// Close ends event subscriptions and releases the database pool, if any.
func (a *App) Close() {
	a.bus.Close()
	a.db.Close()
}

// Handler exposes the router, for httptest servers.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Start runs the background workers until ctx is done.
func (a *App) Start(ctx context.Context) {
	go a.metrics.Observe(ctx, a.bus)
	go a.hub.Run(ctx)
	go a.cleanOTPs(ctx)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.server.Addr, err)
	}

	return a.Serve(ctx, listener)
}

// Serve owns the app: the database pool is closed when it returns.
func (a *App) Serve(ctx context.Context, listener net.Listener) error {
	defer a.Close()
	workers, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	a.Start(workers)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", listener.Addr().String())
		serveErr <- a.server.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func (a *App) cleanOTPs(ctx context.Context) {
	ticker := time.NewTicker(otpCleanupEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, err := a.otps.CleanExpired(ctx, now)
			if err != nil {
				slog.Warn("otp cleanup failed", "error", err)
				continue
			}
			if removed > 0 {
				slog.Debug("expired otp codes removed", "count", removed)
			}
		}
	}
}
