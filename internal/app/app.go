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

	"retailcast/internal/config"
	apperrors "retailcast/internal/errors"
	"retailcast/internal/exporter"
	"retailcast/internal/infrastructure"
	customMiddleware "retailcast/internal/middleware"
	"retailcast/internal/services"
	httptransport "retailcast/internal/transport/http"
)

// Application wires configuration, logging, metrics, services, and the
// HTTP transport into a runnable server.
type Application struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *infrastructure.MetricsProviders
	Router  chi.Router
	Server  *http.Server

	forecastService *services.ForecastService
}

// NewApplication builds a fully wired application from configuration
func NewApplication(cfg *config.Config) (*Application, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	metrics, err := infrastructure.InitializeMetrics()
	if err != nil {
		return nil, fmt.Errorf("initialize metrics: %w", err)
	}

	businessMetrics, err := infrastructure.CreateBusinessMetrics(metrics.Meter)
	if err != nil {
		return nil, fmt.Errorf("create business metrics: %w", err)
	}

	a := &Application{
		Config:          cfg,
		Logger:          logger,
		Metrics:         metrics,
		forecastService: services.NewForecastService(logger, businessMetrics),
	}

	a.setupRouter(businessMetrics)
	a.createServer()
	return a, nil
}

// ForecastService exposes the shared forecast service, mainly for tests
func (a *Application) ForecastService() *services.ForecastService {
	return a.forecastService
}

func (a *Application) setupRouter(businessMetrics *infrastructure.BusinessMetrics) {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.BusinessMetricsMiddleware(businessMetrics))
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.Compress(5))

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
				Logger:         a.Logger,
			}))
		}
		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		r.Use(customMiddleware.Timeout(a.Config.Forecast.RequestTimeout, a.Logger))

		errorHandler := apperrors.NewErrorHandler(a.Logger, false)
		forecastHandler := httptransport.NewForecastHandler(
			a.forecastService,
			exporter.NewForecastExporter(a.Logger),
			a.Logger,
			errorHandler,
			a.Config.Forecast.MaxUploadBytes,
		)
		healthHandler := httptransport.NewHealthHandler(infrastructure.ServiceVersion)

		r.Route("/api", func(r chi.Router) {
			r.Mount("/", forecastHandler.Routes())
		})
		r.Mount("/health", healthHandler.Routes())

		r.NotFound(errorHandler.NotFound)
		r.MethodNotAllowed(errorHandler.MethodNotAllowed)
	})

	// outside the middleware group to keep scrapes cheap
	if a.Metrics.PrometheusHTTP != nil {
		r.Handle("/metrics", a.Metrics.PrometheusHTTP)
	}

	a.Router = r
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start begins serving HTTP traffic. Server errors cancel the given
// context via cancel so the caller can unwind.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "starting application",
		slog.String("name", infrastructure.ServiceName),
		slog.String("version", infrastructure.ServiceVersion),
		slog.Int("port", a.Config.Server.Port),
		slog.String("log_level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	return nil
}

// Stop gracefully shuts down the server and flushes telemetry
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.Metrics != nil && a.Metrics.MeterProvider != nil {
		if err := a.Metrics.MeterProvider.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "error shutting down metrics",
				slog.String("error", err.Error()))
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}

	a.Logger.InfoContext(ctx, "application shutdown complete")
	return nil
}

// Run serves until an interrupt or termination signal arrives
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}
