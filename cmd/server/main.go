package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"weather-dashboard/internal/config"
	"weather-dashboard/internal/handlers"
	"weather-dashboard/internal/repository"
	"weather-dashboard/internal/services"
	"weather-dashboard/internal/views"
	"weather-dashboard/internal/weatherapi"
	"weather-dashboard/pkg/database"
	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("weather-dashboard", version, logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting weather dashboard", logging.Fields{
		"version":        version,
		"server_host":    cfg.Server.Host,
		"server_port":    cfg.Server.Port,
		"db_driver":      cfg.Database.Driver,
		"legacy_units":   cfg.Dashboard.LegacyUnitConversion,
		"default_city":   cfg.Dashboard.DefaultCityName,
		"frame_interval": cfg.Globe.FrameInterval.String(),
	})

	metricsCollector := metrics.NewCollector("weather_dashboard", prometheus.DefaultRegisterer)

	// Preference store
	db, err := database.Open(cfg.Database.Connection(), logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to open preference store", logging.Fields{}, err)
	}
	defer db.Close()

	prefsRepo := repository.NewPreferencesRepository(db, logger, metricsCollector)
	if err := prefsRepo.EnsureSchema(ctx); err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to prepare preference schema", logging.Fields{}, err)
	}

	// Upstream client and shared state
	client := weatherapi.NewClient(cfg.Weather, logger, metricsCollector)
	active := services.NewActiveCity(cfg.Dashboard.DefaultCity())
	cities := services.NewCityService(client, logger, metricsCollector)
	settings := services.NewSettingsService(prefsRepo, active, logger, metricsCollector)

	// Views
	viewOpts := views.Options{
		Location:             cfg.Dashboard.Location(),
		LegacyUnitConversion: cfg.Dashboard.LegacyUnitConversion,
	}
	dashboard := views.NewDashboardView(client, cities, active, logger, metricsCollector, viewOpts)
	forecast := views.NewForecastView(client, cities, active, logger, metricsCollector, viewOpts)
	globeView := views.NewGlobeView(ctx, client, cities, active, logger, metricsCollector, viewOpts, views.GlobeOptions{
		Width:         cfg.Globe.Width,
		Height:        cfg.Globe.Height,
		FrameInterval: cfg.Globe.FrameInterval,
	})

	settings.Register(dashboard)
	settings.Register(forecast)
	settings.Register(globeView)
	settings.Load(ctx)

	// Handlers
	shell, err := handlers.NewShell(dashboard, forecast, globeView, settings, cities, active, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to load page templates", logging.Fields{}, err)
	}
	weatherHandler := handlers.NewWeatherHandler(client, cities, active, globeView, prefsRepo, cfg.Dashboard.Location(), logger, metricsCollector)

	// Setup router
	router := mux.NewRouter()
	router.Use(handlers.RequestID, handlers.Instrument(logger, metricsCollector))

	weatherHandler.RegisterRoutes(router)
	shell.RegisterRoutes(router)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           handlers.Wrap(router, cfg.Server, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}
	shell.Close(shutdownCtx)

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
