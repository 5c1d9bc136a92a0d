package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"pushpulse/internal/config"
	"pushpulse/internal/dataprocessing"
	"pushpulse/internal/errors"
	"pushpulse/internal/infrastructure"
	appmiddleware "pushpulse/internal/middleware"
	"pushpulse/internal/services"
	"pushpulse/internal/session"
	transporthttp "pushpulse/internal/transport/http"
	"pushpulse/internal/websocket"
)

// Application is the fully wired dashboard server.
type Application struct {
	cfg     *config.Config
	logger  *slog.Logger
	router  chi.Router
	server  *http.Server
	hub     *websocket.Hub
	metrics *infrastructure.Metrics
	service *services.DashboardService
}

// New builds the application from configuration. The logger must
// already be initialized.
func New(cfg *config.Config, logger *slog.Logger) *Application {
	if logger == nil {
		logger = slog.Default()
	}

	metrics := infrastructure.NewMetrics()
	store := session.NewStore(logger)
	summarizer := dataprocessing.NewSummarizer(logger, nil)
	hub := websocket.NewHub(logger)

	service := services.NewDashboardService(logger, store, summarizer, metrics, cfg.Upload)

	app := &Application{
		cfg:     cfg,
		logger:  logger,
		hub:     hub,
		metrics: metrics,
		service: service,
	}
	app.router = app.buildRouter()
	app.server = &http.Server{
		Addr:           cfg.ListenAddr(),
		Handler:        app.router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}
	return app
}

// Router exposes the assembled handler, mainly for tests.
func (a *Application) Router() http.Handler {
	return a.router
}

func (a *Application) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(appmiddleware.RequestID)
	r.Use(appmiddleware.RealIP)
	r.Use(appmiddleware.StructuredLogger(a.logger))
	r.Use(appmiddleware.Recoverer(a.logger))
	r.Use(appmiddleware.SecurityHeaders)
	r.Use(appmiddleware.Compress(5))

	if a.cfg.Security.EnableCORS {
		r.Use(appmiddleware.CORS(appmiddleware.CORSConfig{
			AllowedOrigins: a.cfg.Security.AllowedOrigins,
			ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
			Logger:         a.logger,
		}))
	}

	if a.cfg.Security.RateLimit.Enabled {
		limiter := appmiddleware.NewRateLimiter(
			a.cfg.Security.RateLimit.RPS,
			a.cfg.Security.RateLimit.Burst,
			a.logger,
		)
		r.Use(limiter.Handler)
	}

	errorHandler := errors.NewErrorHandler(a.logger, false)
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	dashboard := transporthttp.NewDashboardHandler(
		a.service,
		a.hub,
		a.logger,
		errorHandler,
		a.cfg.Upload.SeriesPoints,
		a.cfg.Upload.TopCampaigns,
	)
	health := transporthttp.NewHealthHandler()

	r.Get("/healthz", health.Healthz)
	r.Get("/metrics", a.metrics.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", health.Version)
		r.Mount("/session", dashboard.Routes())
	})

	return r
}

// Run starts the hub and the HTTP server, blocking until the context is
// cancelled or a termination signal arrives, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go a.hub.Run(ctx)

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("server starting", slog.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	a.logger.Info("server stopped")
	return nil
}
