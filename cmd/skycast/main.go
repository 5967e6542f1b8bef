package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/skycastapp/skycast/internal/api/http"
	"github.com/skycastapp/skycast/internal/config"
	"github.com/skycastapp/skycast/internal/geocode"
	"github.com/skycastapp/skycast/internal/location"
	"github.com/skycastapp/skycast/internal/metrics"
	"github.com/skycastapp/skycast/internal/scheduler"
	"github.com/skycastapp/skycast/internal/weather"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := setupLogger(cfg.Env)

	// Separate registry so tests and the default registry never collide.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	// Shared HTTP client for outbound provider calls; per-call deadlines come
	// from contexts, so no client-level timeout here.
	httpClient := &http.Client{}

	geoProvider, err := geocode.NewProvider(geocode.ProviderConfig{
		Type:   geocode.ProviderType(cfg.GeocodeProvider),
		APIKey: cfg.GeocodeAPIKey,
		Logger: logger,
	})
	if err != nil {
		log.Fatalf("failed to create geocoding provider: %v", err)
	}
	logger.Info("geocoding provider initialized", "type", cfg.GeocodeProvider)

	resolver := location.NewResolver(location.ResolverConfig{
		Logger:           logger,
		Metrics:          appMetrics,
		Device:           nil, // no device position source in the server build
		IP:               location.NewIPAPILocator(httpClient, logger),
		Geocoder:         geoProvider,
		DefaultLatitude:  cfg.DefaultLatitude,
		DefaultLongitude: cfg.DefaultLongitude,
		DefaultCity:      cfg.DefaultCity,
		DefaultCountry:   cfg.DefaultCountry,
		CacheTTL:         cfg.LocationCacheTTL,
		DeviceTimeout:    cfg.DeviceTimeout,
		IPTimeout:        cfg.IPTimeout,
	})

	weatherCache := weather.NewCache(cfg.WeatherCacheSize, cfg.WeatherCacheTTL, cfg.WeatherCacheEnabled)
	weatherClient := weather.NewClient(httpClient, cfg.WeatherTimeout, logger)
	weatherSvc := weather.NewService(weatherCache, weatherClient, appMetrics, logger)

	refresher := scheduler.New(resolver, weatherSvc, cfg.Units, cfg.RefreshInterval, logger)
	if err := refresher.Start(); err != nil {
		log.Fatalf("failed to start refresher: %v", err)
	}
	defer refresher.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "skycast",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "skycast",
		})
	})

	httpapi.RegisterRoutes(app, weatherSvc, resolver)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go startMonitoringServer(ctx, logger, reg, cfg.MetricsPort)

	go func() {
		logger.Info("starting server", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received, stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", "error", err)
	}
}

// startMonitoringServer serves Prometheus metrics on a dedicated port,
// separate from the public API.
func startMonitoringServer(ctx context.Context, log *slog.Logger, reg *prometheus.Registry, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	log.InfoContext(ctx, "starting monitoring server", "port", port)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		log.ErrorContext(ctx, "monitoring server failed", "error", err)
	}
}

// setupLogger initializes the logger for the configured environment.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "local":
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:     slog.LevelDebug,
			AddSource: true,
		}))
	case "development":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	default:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		}))
	}
}
