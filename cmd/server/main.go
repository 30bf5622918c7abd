package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"viewing-wrapped/internal/app"
	"viewing-wrapped/internal/config"
	"viewing-wrapped/internal/handlers"
	"viewing-wrapped/pkg/logging"
	"viewing-wrapped/pkg/metrics"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "Path to a YAML config file")
	pflag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := app.NewLogger(cfg.Logging, "wrapped-server")

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting viewing dashboard server", logging.Fields{
		"version":      app.Version,
		"server_host":  cfg.Server.Host,
		"server_port":  cfg.Server.Port,
		"history_path": cfg.Data.HistoryPath,
		"genres_path":  cfg.Data.GenresPath,
		"year":         cfg.Dashboard.Year,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("viewing_wrapped", prometheus.DefaultRegisterer)

	pipeline, err := app.NewPipeline(ctx, cfg, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to open event store", logging.Fields{}, err)
	}
	defer pipeline.Close()

	// Load, aggregate and render once before listening
	review, err := pipeline.Review(ctx)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to build year in review", logging.Fields{
			"history_path": cfg.Data.HistoryPath,
			"genres_path":  cfg.Data.GenresPath,
		}, err)
	}

	doc, err := pipeline.Render(review)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to render dashboard", logging.Fields{}, err)
	}

	dashboardHandler := handlers.NewDashboardHandler(doc, pipeline.Repo, cfg.Dashboard.Year, logger, metricsCollector)

	// Setup router
	router := mux.NewRouter()
	router.Use(handlers.RequestID, handlers.Instrument(logger, metricsCollector))

	dashboardHandler.RegisterRoutes(router)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address":        server.Addr,
			"document_bytes": doc.Len(),
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

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
