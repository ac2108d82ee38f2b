package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kognita/dimrank/internal/config"
	dbRedis "github.com/kognita/dimrank/internal/db/redis"
	"github.com/kognita/dimrank/internal/domain"
	logpkg "github.com/kognita/dimrank/internal/logger"
	"github.com/kognita/dimrank/internal/metrics"
	"github.com/kognita/dimrank/internal/repository/chunkmeta"
	"github.com/kognita/dimrank/internal/repository/embcache"
	"github.com/kognita/dimrank/internal/repository/simindex"
	chiTransport "github.com/kognita/dimrank/internal/transport/chi"
	openaiEmb "github.com/kognita/dimrank/internal/transport/openai"
	alignuc "github.com/kognita/dimrank/internal/usecase/align"
	filteruc "github.com/kognita/dimrank/internal/usecase/filter"
	healthuc "github.com/kognita/dimrank/internal/usecase/health"
	profileuc "github.com/kognita/dimrank/internal/usecase/profile"
	rankuc "github.com/kognita/dimrank/internal/usecase/rank"
	"github.com/kognita/dimrank/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting dimrank API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("default_strategy", cfg.Ranking.DefaultStrategy),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register ranking metrics explicitly (no init())
	metrics.RegisterRankingMetrics()

	// Embedder chain: OpenAI provider -> two-tier cache
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	var embedder domain.Embedder = embcache.New(
		base, store,
		cfg.Ranking.QueryCacheSize,
		time.Duration(cfg.Ranking.CacheTTLSec)*time.Second,
		cfg.Storage.KeyPrefix,
		metrics.EmbeddingCacheTotal,
		logger,
	)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Repositories over the chunk store and similarity index
	index := simindex.New(store, cfg.Storage.KeyPrefix)
	chunks := chunkmeta.New(store, cfg.Storage.KeyPrefix)

	// Ranking collaborators
	registry, err := profileuc.NewRegistry(cfg.Ranking.Profiles)
	if err != nil {
		logger.Fatal("Failed to load scoring profiles", zap.Error(err))
	}
	detector := profileuc.NewDetector(registry, cfg.Ranking.ProfileConfidenceThreshold)

	parser, err := filteruc.NewParser(
		cfg.Ranking.Filters,
		cfg.Ranking.EnableFilterParsing == nil || *cfg.Ranking.EnableFilterParsing,
		cfg.Ranking.ConfidenceThreshold,
	)
	if err != nil {
		logger.Fatal("Failed to build filter parser", zap.Error(err))
	}

	aligner := alignuc.NewCalculator(cfg.Ranking)
	controller := rankuc.NewController(cfg.Ranking, logger)

	rankSvc := rankuc.New(
		cfg.Ranking, embedder, index, chunks,
		registry, detector, parser, aligner, controller, logger,
	)
	logger.Info("Ranking engine assembled",
		zap.Int("profiles", len(registry.Profiles())),
		zap.Int("filter_phrases", len(cfg.Ranking.Filters)),
	)

	// Health service
	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(base), controller)

	// Create chi server
	server := chiTransport.NewServer(rankSvc, registry, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
