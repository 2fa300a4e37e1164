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
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tankboard/internal/config"
	"tankboard/internal/handlers"
	"tankboard/internal/repository"
	"tankboard/internal/services"
	"tankboard/internal/simulation"
	"tankboard/pkg/kv"
	"tankboard/pkg/logging"
	"tankboard/pkg/metrics"
)

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

	// Initialize logger
	logger := logging.NewStructuredLogger("tankboard-api", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting tank board API server", logging.Fields{
		"version":     "1.0.0",
		"server_host": cfg.Server.Host,
		"server_port": cfg.Server.Port,
		"redis_url":   cfg.Redis.URL,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("tankboard")

	// Initialize key-value store
	store, err := kv.NewRedisKV(&kv.Config{
		URL:         cfg.Redis.URL,
		DialTimeout: cfg.Redis.DialTimeout,
		OpTimeout:   cfg.Redis.OpTimeout,
	}, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to connect to key-value store", logging.Fields{}, err)
	}
	defer store.Close()

	// Initialize repository
	tankRepo := repository.NewTankRepository(store, logger, cfg.Simulation.StateTTL)

	// Initialize temperature engine
	engine := simulation.NewEngine(simulation.Config{
		BucketSeconds:    cfg.Simulation.BucketSeconds,
		MaxStepPerBucket: cfg.Simulation.MaxStepPerBucket,
		Cooldown:         time.Duration(cfg.Simulation.CooldownDays) * 24 * time.Hour,
		MaxDailyCoolRate: cfg.Simulation.MaxDailyCoolRate,
		Salt:             cfg.Simulation.Salt,
	})

	// Initialize services
	boardService := services.NewBoardService(tankRepo, engine, logger, metricsCollector)
	adminService := services.NewAdminService(tankRepo, engine, logger, metricsCollector)

	// Initialize handlers
	tankHandler := handlers.NewTankHandler(boardService, adminService, tankRepo, cfg.Admin.Token, logger, metricsCollector)

	// Setup router
	router := mux.NewRouter()

	// Register routes
	tankHandler.RegisterRoutes(router)

	// API documentation
	router.HandleFunc("/api/docs", handlers.SwaggerUI).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", handlers.OpenAPISpec).Methods("GET")

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

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

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
