// cmd/board-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"libstatus-board/internal/common/config"
	"libstatus-board/internal/common/database"
	"libstatus-board/internal/common/logger"
	"libstatus-board/internal/common/observability"
	"libstatus-board/internal/handlers"
	"libstatus-board/internal/models"

	sr "libstatus-board/internal/workers/ai-conversation/study-recommendation"
	ls "libstatus-board/internal/workers/data-access/location-status"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting board server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("model", cfg.APIs.GenAI.Model),
	)
	if cfg.APIs.GenAI.APIKey == "" {
		zapLog.Warn("no model credential configured, every recommendation will fall back")
	}

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	catalog := models.DefaultCatalog()

	store := ls.NewStore(ls.LoadConfig(cfg), redis.Client, catalog, log)

	recommender := sr.NewHandler(
		sr.LoadConfig(cfg),
		catalog,
		&studyRecommendationLoggerAdapter{log},
		sr.WithObservability(obs),
	)

	server := handlers.NewServer(recommender, store, redis, log)

	httpServer := &http.Server{
		Addr: cfg.Server.Address,
		Handler: server.Router(handlers.RouterConfig{
			CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
			RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
			MetricsHandler:     promhttp.Handler(),
		}),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("Board server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("board server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining connections...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down board server", zap.Error(err))
	}

	zapLog.Info("Board server stopped")
}

type studyRecommendationLoggerAdapter struct {
	logger.Logger
}

func (a *studyRecommendationLoggerAdapter) With(fields map[string]interface{}) sr.Logger {
	return &studyRecommendationLoggerAdapter{a.Logger.With(fields)}
}
