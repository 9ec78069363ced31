package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/seo-optimizer/llm-audit/analyzer"
	"github.com/seo-optimizer/llm-audit/api"
	"github.com/seo-optimizer/llm-audit/cache"
	"github.com/seo-optimizer/llm-audit/config"
	"github.com/seo-optimizer/llm-audit/fetcher"
	"github.com/seo-optimizer/llm-audit/logging"
	"github.com/seo-optimizer/llm-audit/metrics"
	"github.com/seo-optimizer/llm-audit/middleware"
	"github.com/seo-optimizer/llm-audit/stats"
)

const (
	shutdownTimeout    = 10 * time.Second
	maintenanceEvery   = time.Hour
	visitorIdleTimeout = 10 * time.Minute
	retainMonths       = 12
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reportCache, err := newCache(ctx, cfg, logger)
	if err != nil {
		return err
	}

	storage, err := stats.NewStorage(cfg.DataDir, stats.WithLogger(logger.Named("stats")))
	if err != nil {
		return fmt.Errorf("failed to initialize statistics: %w", err)
	}

	requestStats, err := logging.NewRequestStats(filepath.Join(cfg.DataDir, "requests.json"))
	if err != nil {
		logger.Warn("Failed to load request statistics, starting fresh", zap.Error(err))
	}

	m := metrics.New("seoaudit")

	pageFetcher := fetcher.New(
		fetcher.WithRelay(cfg.RelayURL),
		fetcher.WithTimeout(cfg.FetchTimeout),
		fetcher.WithMaxBytes(cfg.FetchMaxBytes),
		fetcher.WithUserAgent(cfg.UserAgent),
	)

	seoAnalyzer := analyzer.New(pageFetcher,
		analyzer.WithCache(reportCache, cfg.CacheTTL),
		analyzer.WithStats(storage),
		analyzer.WithMetrics(m),
		analyzer.WithLogger(logger.Named("analyzer")),
	)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)

	router := api.NewRouter(&api.Server{
		Auditor:      seoAnalyzer,
		RequestStats: requestStats,
		Storage:      storage,
		Metrics:      m,
		RateLimiter:  rateLimiter,
		Logger:       logger.Named("http"),
		DevMode:      cfg.DevMode,
	})

	go maintain(ctx, rateLimiter, storage)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			zap.String("addr", "http://localhost:"+cfg.Port),
			zap.String("cache", cfg.CacheBackend),
			zap.Bool("relay", cfg.RelayURL != ""))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			_ = seoAnalyzer.Shutdown()
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
	if err := requestStats.Save(); err != nil {
		logger.Error("Failed to save request statistics", zap.Error(err))
	}
	if err := seoAnalyzer.Shutdown(); err != nil {
		logger.Error("Analyzer shutdown failed", zap.Error(err))
	}

	return nil
}

func newCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.Cache, error) {
	switch cfg.CacheBackend {
	case config.CacheRedis:
		c, err := cache.NewRedis(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger.Named("cache"))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return c, nil
	case config.CacheNone:
		return cache.Nop{}, nil
	default:
		return cache.NewMemory(cfg.CacheMaxEntries, 5*time.Minute), nil
	}
}

// maintain forgets idle rate-limit clients and prunes old monthly
// statistics until ctx is done.
func maintain(ctx context.Context, rl *middleware.RateLimiter, storage *stats.Storage) {
	ticker := time.NewTicker(maintenanceEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Cleanup(visitorIdleTimeout)
			storage.Cleanup(retainMonths)
		}
	}
}
