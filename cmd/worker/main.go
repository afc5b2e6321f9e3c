package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"matchcast/ingestion/internal/api"
	"matchcast/ingestion/internal/cache"
	"matchcast/ingestion/internal/client"
	"matchcast/ingestion/internal/config"
	"matchcast/ingestion/internal/ingest"
	"matchcast/ingestion/internal/metrics"
	"matchcast/ingestion/internal/parser"
	"matchcast/ingestion/internal/repository"
	"matchcast/ingestion/internal/scheduler"
	"matchcast/ingestion/internal/store"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Setup logger
	setupLogger()

	log.Info().Msg("Starting Matchcast Broadcast Ingestion Worker")

	// Load configuration
	cfg := config.MustLoad()
	log.Info().
		Str("env", cfg.AppEnv).
		Str("log_level", cfg.LogLevel).
		Str("schedule_url", cfg.ScheduleURL).
		Msg("Configuration loaded")

	// Create context that listens for cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	// Initialize fetch client and parsers
	fetchClient := client.NewClient(cfg.FetchTimeout, cfg.InsecureSkipVerify)
	pageParser := parser.NewParser(cfg.BaseURL)
	snapshotStore := store.NewStore(cfg.SnapshotPath)
	log.Info().Str("snapshot", cfg.SnapshotPath).Msg("Fetch client and snapshot store initialized")

	session := ingest.NewSession(cfg, fetchClient, pageParser, snapshotStore)

	// Optional run-history database
	if cfg.DatabaseEnabled() {
		db, err := repository.NewDatabase(ctx, repository.Config{
			Host:     cfg.DatabaseHost,
			Port:     strconv.Itoa(cfg.DatabasePort),
			User:     cfg.DatabaseUser,
			Password: cfg.DatabasePassword,
			Database: cfg.DatabaseName,
			SSLMode:  cfg.DatabaseSSLMode,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to database - continuing without run history")
		} else {
			defer db.Close()
			if err := db.Runs.EnsureSchema(ctx); err != nil {
				log.Warn().Err(err).Msg("Failed to ensure run history schema - continuing without run history")
			} else {
				session.WithRunHistory(db.Runs)
				log.Info().Msg("Run history database connected")
			}
		}
	}

	// Optional Redis snapshot mirror
	if cfg.RedisEnabled() {
		redisCache, err := cache.NewRedisCache(cache.Config{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisKey,
			TTL:      cfg.RedisTTL,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without snapshot mirror")
		} else {
			defer redisCache.Close()
			session.WithCache(redisCache)
		}
	}

	// Start metrics HTTP server
	if cfg.EnableMetrics {
		go startMetricsServer(cfg.MetricsPort)
	}

	// Update system uptime metric
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SystemUptime.Set(time.Since(startTime).Seconds())
			case <-ctx.Done():
				return
			}
		}
	}()

	// Start the read-only API server
	apiServer := api.NewServer(snapshotStore, cfg.APIPort)
	go func() {
		if err := apiServer.Start(); err != nil {
			log.Error().Err(err).Msg("API server stopped unexpectedly")
			cancel()
		}
	}()

	// Create and start scheduler
	sched := scheduler.NewScheduler(cfg, session)

	if cfg.EnableScheduler {
		log.Info().Msg("Starting scheduler...")
		if err := sched.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to start scheduler")
		}
	}

	// Run initial ingestion if enabled, so the API has data before the
	// first scheduled fire
	if cfg.InitialSyncEnabled {
		log.Info().Msg("Running initial ingestion...")
		if _, err := session.RunOnce(ctx); err != nil {
			log.Error().Err(err).Msg("Initial ingestion failed, continuing anyway...")
		} else {
			log.Info().Msg("Initial ingestion completed successfully")
		}
	}

	// Keep running until context is cancelled
	<-ctx.Done()

	// Graceful shutdown
	log.Info().Msg("Shutting down scheduler...")
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API server shutdown failed")
	}

	log.Info().Msg("Worker shutdown complete")
}

// setupLogger configures the zerolog logger
func setupLogger() {
	// Pretty console logging in development
	if os.Getenv("APP_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	// Set log level
	level := zerolog.InfoLevel
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		parsedLevel, err := zerolog.ParseLevel(lvl)
		if err == nil {
			level = parsedLevel
		}
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("level", level.String()).
		Msg("Logger initialized")
}

// startMetricsServer starts the Prometheus metrics endpoint
func startMetricsServer(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	log.Info().Str("addr", addr).Msg("Metrics server listening")

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("Metrics server stopped unexpectedly")
	}
}
