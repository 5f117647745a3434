// Package app wires configuration, logging, services, middleware and routes
// into a runnable HTTP application.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mergecli/internal/config"
	"mergecli/internal/infrastructure"
	customMiddleware "mergecli/internal/middleware"
	"mergecli/internal/services"
	transporthttp "mergecli/internal/transport/http"
)

// Application is the dependency container for the web server.
type Application struct {
	config *config.Config
	logger *slog.Logger
	router *chi.Mux
	server *http.Server

	mergeService *services.MergeService
	startTime    time.Time
}

// NewApplication builds the application: configuration, logger, services,
// router, server.
func NewApplication(configFile string) (*Application, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	app := &Application{
		config:    cfg,
		logger:    logger,
		startTime: time.Now(),
	}

	app.mergeService = services.NewMergeService(cfg.Pipeline.KeyColumn, logger)
	app.setupRouter()
	app.createServer()

	return app, nil
}

// setupRouter configures the middleware chain and all routes.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.StructuredLogger(a.logger))
	r.Use(customMiddleware.Recoverer(a.logger))
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.Compress(5))

	if a.config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins: a.config.Security.AllowedOrigins,
		}))
	}

	r.Get("/healthz", a.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		if a.config.Security.RateLimit.Enabled {
			limiter := customMiddleware.NewRateLimiter(
				a.config.Security.RateLimit.RPS,
				a.config.Security.RateLimit.Burst,
				a.logger,
			)
			r.Use(limiter.Handler)
		}

		handler := transporthttp.NewMergeHandler(a.mergeService, a.config.Server.MaxUploadBytes, a.logger)
		r.Mount("/", handler.Routes())
	})

	a.router = r
}

func (a *Application) handleHealthz(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status":         "ok",
		"uptime_seconds": time.Since(a.startTime).Seconds(),
	})
}

func (a *Application) createServer() {
	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}
}

// Run starts the server and blocks until interrupted, then shuts down
// gracefully within the configured timeout.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.mergeService.StartJanitor(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server starting",
			slog.String("addr", a.server.Addr),
			slog.String("key_column", a.config.Pipeline.KeyColumn),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	a.logger.Info("server stopped")
	return nil
}
