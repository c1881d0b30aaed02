package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andeantel/pdp-analytics/backend/internal/api"
	"github.com/andeantel/pdp-analytics/backend/internal/config"
	"github.com/andeantel/pdp-analytics/backend/internal/filestore"
	"github.com/andeantel/pdp-analytics/backend/internal/metrics"
	"github.com/andeantel/pdp-analytics/backend/internal/pipeline"
	"github.com/andeantel/pdp-analytics/backend/internal/report"
	"github.com/andeantel/pdp-analytics/backend/internal/retry"
	"github.com/andeantel/pdp-analytics/backend/internal/storage"
	"github.com/andeantel/pdp-analytics/backend/internal/warehouse"
	"github.com/andeantel/pdp-analytics/backend/pkg/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("log_level", cfg.LogLevel).
		Msg("starting PDP analytics server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connected-time store (DynamoDB or in-memory per DYNAMO_MODE)
	store, err := storage.NewStore(ctx, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	// Generated workbook directory
	files, err := filestore.NewManager(cfg.OutputDir, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize file store")
	}
	defer files.Close()

	// Warehouse source and extraction gateway
	if cfg.WarehouseProjectID == "" {
		log.Fatal().Msg("WAREHOUSE_PROJECT_ID is required")
	}
	source, err := warehouse.NewBigQuerySource(ctx, warehouse.BigQueryConfig{
		ProjectID:       cfg.WarehouseProjectID,
		Dataset:         cfg.WarehouseDataset,
		Table:           cfg.WarehouseTable,
		Location:        cfg.WarehouseLocation,
		CredentialsPath: cfg.WarehouseCredentials,
	}, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create warehouse client")
	}
	defer source.Close()

	retryPolicy := warehouse.DefaultRetryPolicy(cfg.MaxRetries, cfg.RetryBackoff, cfg.RetryBackoffCap)
	gateway := warehouse.NewGateway(source, retryPolicy, cfg.MaxConcurrentQueries, cfg.QueryTimeout, log.Logger)

	// Report pipeline. The upsert retry has no Retryable predicate:
	// storage errors are opaque, so every failure gets the bounded
	// backoff rather than only warehouse-classified transients.
	renderer := report.NewRenderer(log.Logger)
	upsertPolicy := retry.Policy{
		MaxAttempts:    cfg.MaxRetries,
		InitialBackoff: cfg.RetryBackoff,
		MaxBackoff:     cfg.RetryBackoffCap,
	}
	pipe := pipeline.New(gateway, store, renderer, files, upsertPolicy, log.Logger)

	pdpHandler := api.NewPDPHandler(pipe, files, log.Logger)

	// Create router
	r := chi.NewRouter()

	// Add middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	r.Get("/health", healthHandler)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/pdp", func(r chi.Router) {
		r.Post("/process", pdpHandler.Process)
		r.Get("/download/{filename}", pdpHandler.Download)
		r.Delete("/cleanup/{filename}", pdpHandler.Cleanup)
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // report generation can be slow
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"pdp-analytics-backend"}`)
}
