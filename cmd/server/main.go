package main

import (
	"context"
	"delivery-times-service/internal/adapters/cache"
	"delivery-times-service/internal/adapters/repositories"
	"delivery-times-service/internal/api"
	"delivery-times-service/internal/config"
	"delivery-times-service/internal/platform/obs"
	"delivery-times-service/internal/ports"
	"delivery-times-service/internal/services"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
)

// main is the application composition root.
// It wires concrete adapters (SQLite or Postgres, a stats cache) behind ports
// and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	log := obs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := repositories.OpenStorage(ctx, repositories.StorageOptions{
		Postgres:       cfg.UsePostgres(),
		DatabaseURL:    cfg.DatabaseURL,
		SQLitePath:     cfg.SQLitePath,
		ConnectTimeout: cfg.DBConnectTimeout,
	})
	if err != nil {
		return err
	}
	defer storage.Close()
	log.Info("storage ready", "postgres", storage.Postgres)

	clock := clockwork.NewRealClock()

	statsCache, closeCache, err := openStatsCache(ctx, cfg, storage, clock)
	if err != nil {
		return err
	}
	defer closeCache()
	log.Info("stats cache ready", "backend", cfg.CacheBackend, "ttl", cfg.StatsCacheTTL)

	metrics := obs.NewMetrics()
	svc := services.NewAggregationService(storage.Reports, statsCache, clock, log, metrics, cfg.StatsCacheTTL)

	router := api.NewRouter(api.RouterDeps{
		Service:        svc,
		Storage:        storage.Reports,
		Log:            log,
		Metrics:        metrics,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openStatsCache(
	ctx context.Context,
	cfg *config.Config,
	storage *repositories.Storage,
	clock clockwork.Clock,
) (ports.StatsCache, func(), error) {
	noClose := func() {}

	switch cfg.CacheBackend {
	case config.CacheNone:
		return cache.NoopCache{}, noClose, nil
	case config.CacheSQL:
		if storage.Postgres {
			return cache.NewSQLStatsCache(storage.DB, clock), noClose, nil
		}
		return cache.NewSqliteStatsCache(storage.DB, clock), noClose, nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCacheFromURL(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return rc, func() { _ = rc.Close() }, nil
	default:
		return cache.NewMemoryCache(clock), noClose, nil
	}
}
