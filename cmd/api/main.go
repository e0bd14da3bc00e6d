// Package main is the entry point for the recommendation API server.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/gatherly/recs/internal/api"
	"github.com/gatherly/recs/internal/auth"
	"github.com/gatherly/recs/internal/cache"
	"github.com/gatherly/recs/internal/config"
	"github.com/gatherly/recs/internal/health"
	"github.com/gatherly/recs/internal/history"
	"github.com/gatherly/recs/internal/middleware"
	"github.com/gatherly/recs/internal/recommend"
	"github.com/gatherly/recs/internal/scoring"
	"github.com/gatherly/recs/internal/upstream"
)

func main() {
	help := flag.Bool("help", false, "display help message")
	configPath := flag.String("config", "", "path to optional YAML config file")
	flag.Parse()

	if *help {
		fmt.Println("Recommendation API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config error:", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "config", cfg.LogSummary())

	// Scoring weights, with optional calibration overrides.
	weights, err := scoring.LoadCalibration(cfg.WeightsPath)
	if err != nil {
		logger.Warn("calibration unavailable, using default weights", "error", err)
	}
	scorer := scoring.NewScorer(weights)

	// Metrics registry shared by all components.
	registry := prometheus.NewRegistry()

	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(registry); err != nil {
		logger.Error("failed to register HTTP metrics", "error", err)
		os.Exit(1)
	}
	engineMetrics := recommend.NewMetrics()
	if err := engineMetrics.Register(registry); err != nil {
		logger.Error("failed to register engine metrics", "error", err)
		os.Exit(1)
	}

	// Cache: redis when configured, in-process otherwise.
	var store cache.Store
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		store = cache.NewRedisStore(redisClient, logger)
		logger.Info("using redis cache", "addr", cfg.RedisAddr)
	} else {
		store = cache.NewMemoryStore()
		logger.Warn("REDIS_ADDR not set, using in-process cache")
	}

	// History persistence: optional, disabled without a database.
	var db *sql.DB
	var sink history.Sink
	var recorder *history.Recorder
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		historyMetrics := history.NewMetrics()
		if err := historyMetrics.Register(registry); err != nil {
			logger.Error("failed to register history metrics", "error", err)
			os.Exit(1)
		}
		sink = history.NewPostgresSink(db, logger)
		recorder = history.NewRecorder(sink, cfg.HistoryQueueSize, historyMetrics, logger)
	} else {
		logger.Warn("DATABASE_URL not set, recommendation history disabled")
	}

	// Upstream service clients.
	eventClient := upstream.NewEventClient(cfg.EventServiceURL, logger)
	userClient := upstream.NewUserClient(cfg.UserServiceURL, cfg.DefaultInterests, logger)

	engine := recommend.NewEngine(
		recommend.Config{
			DefaultPageSize:   cfg.DefaultPageSize,
			MaxPageSize:       cfg.MaxPageSize,
			DefaultRadiusKm:   cfg.DefaultRadiusKm,
			CandidatePoolSize: cfg.CandidatePoolSize,
			TTL: cache.TTLConfig{
				UserRecommendations: cfg.UserCacheTTL(),
				Trending:            cfg.TrendingCacheTTL(),
				Similar:             cfg.SimilarCacheTTL(),
				Category:            cfg.CategoryCacheTTL(),
			},
		},
		eventClient,
		eventClient,
		userClient,
		store,
		recorder,
		scorer,
		engineMetrics,
		logger,
	)

	jwtService := auth.NewJWTService(cfg.JWTSecret)

	// Handlers.
	recHandlers := api.NewRecommendationHandlers(engine)
	feedbackHandlers := api.NewFeedbackHandlers(sink)

	healthConfig := api.HealthHandlersConfig{
		EventServiceChecker: health.NewUpstreamChecker("event-service", cfg.EventServiceURL),
		UserServiceChecker:  health.NewUpstreamChecker("user-service", cfg.UserServiceURL),
	}
	if redisClient != nil {
		healthConfig.RedisChecker = health.NewRedisChecker(redisClient)
	}
	if db != nil {
		healthConfig.DBChecker = health.NewDBChecker(db)
	}
	healthHandlers := api.NewHealthHandlers(healthConfig)

	// Routes.
	mux := http.NewServeMux()
	requireAuth := middleware.Auth(jwtService)

	mux.Handle("/api/recommendations/events", requireAuth(http.HandlerFunc(recHandlers.GetPersonalized)))
	mux.HandleFunc("/api/recommendations/trending", recHandlers.GetTrending)
	mux.HandleFunc("/api/recommendations/similar/", recHandlers.GetSimilar)
	mux.Handle("/api/recommendations/category/", requireAuth(http.HandlerFunc(recHandlers.GetByCategory)))
	mux.Handle("/api/recommendations/cache", requireAuth(http.HandlerFunc(recHandlers.InvalidateCache)))
	mux.Handle("/api/recommendations/feedback/", requireAuth(http.HandlerFunc(feedbackHandlers.Record)))

	mux.HandleFunc("/health", healthHandlers.Health)
	mux.HandleFunc("/ready", healthHandlers.Ready)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Apply middleware: RequestID -> Logging -> HTTPMetrics
	handler := middleware.RequestID(middleware.Logging(logger)(middleware.HTTPMetrics(httpMetrics)(mux)))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Run the history recorder until shutdown.
	recorderCtx, stopRecorder := context.WithCancel(context.Background())
	recorderDone := make(chan struct{})
	if recorder != nil {
		go func() {
			defer close(recorderDone)
			if err := recorder.Run(recorderCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("history recorder stopped", "error", err)
			}
		}()
	} else {
		close(recorderDone)
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Stop the recorder after the server so in-flight requests can enqueue,
	// then wait for it to flush its queue.
	stopRecorder()
	select {
	case <-recorderDone:
	case <-time.After(10 * time.Second):
		logger.Warn("history recorder did not flush in time")
	}

	logger.Info("server stopped")
}
