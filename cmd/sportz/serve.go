package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/pscheid92/sportz/internal/adapter/httpserver"
	"github.com/pscheid92/sportz/internal/adapter/metrics"
	"github.com/pscheid92/sportz/internal/adapter/postgres"
	"github.com/pscheid92/sportz/internal/adapter/redis"
	"github.com/pscheid92/sportz/internal/app"
	"github.com/pscheid92/sportz/internal/broadcast"
	"github.com/pscheid92/sportz/internal/domain"
	"github.com/pscheid92/sportz/internal/platform/config"
	"github.com/pscheid92/sportz/internal/platform/logging"
	"github.com/pscheid92/sportz/internal/platform/retry"
	"github.com/pscheid92/sportz/internal/platform/version"
)

const (
	startupTimeout  = time.Minute
	shutdownTimeout = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and WebSocket server",
	RunE:  runServe,
}

var startupRetry = retry.Policy{
	MaxAttempts:    8,
	InitialBackoff: 500 * time.Millisecond,
	MaxBackoff:     8 * time.Second,
	OnRetry: func(attempt int, err error, backoff time.Duration) {
		slog.Warn("Dependency not ready, retrying", "attempt", attempt, "backoff", backoff, "error", err)
	},
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	info := version.Get()
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", info.Version, "commit", info.Commit)

	clock := clockwork.NewRealClock()
	registry := metrics.NewRegistry()

	startupCtx, cancel := context.WithTimeout(cmd.Context(), startupTimeout)
	defer cancel()

	pool, err := connectDB(startupCtx, cfg, postgres.NewMetricsTracer(metrics.NewDatabaseMetrics(registry)))
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := postgres.RunMigrationsWithLock(startupCtx, pool); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	healthChecks := []httpserver.HealthCheck{
		{Name: "postgres", Check: pool.Ping},
	}

	var listCache domain.ListCache
	if cfg.CacheEnabled() {
		redisClient, err := connectRedis(startupCtx, cfg, metrics.NewRedisMetrics(registry))
		if err != nil {
			return err
		}
		defer func() { _ = redisClient.Close() }()

		listCache = redis.NewListCache(redisClient, cfg.CacheTTL, metrics.NewCacheMetrics(registry))
		healthChecks = append(healthChecks, httpserver.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	} else {
		slog.Info("REDIS_URL not set, list cache disabled")
	}

	hub := broadcast.NewHub(broadcast.Options{
		HeartbeatInterval: cfg.HeartbeatInterval,
		MaxPayloadBytes:   cfg.MaxPayloadBytes,
		SendBufferSize:    cfg.SendBufferSize,
		WriteTimeout:      cfg.WriteTimeout,
		CheckOrigin:       broadcast.NewCheckOrigin(cfg.AppURL, cfg.IsDevelopment()),
		Limits: broadcast.NewConnectionLimits(clock,
			cfg.MaxWebSocketConnections, cfg.MaxConnectionsPerIP,
			cfg.ConnectionRate, cfg.ConnectionBurst),
	}, clock, metrics.NewWebSocketMetrics(registry))
	hub.Start()

	appSvc := app.NewService(postgres.NewMatchRepo(pool), postgres.NewCommentaryRepo(pool), listCache, hub, clock)

	srv := httpserver.NewServer(cfg, appSvc, hub, registry, metrics.NewHTTPMetrics(registry), healthChecks)

	done := runGracefulShutdown(srv, hub)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	return nil
}

// runGracefulShutdown stops the HTTP listener first so no new sockets arrive,
// then closes every WebSocket with a going-away frame.
func runGracefulShutdown(srv *httpserver.Server, hub *broadcast.Hub) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		hub.Stop()
		slog.Info("WebSocket connections closed")

		close(done)
	}()

	return done
}

func connectDB(ctx context.Context, cfg *config.Config, tracer pgx.QueryTracer) (*pgxpool.Pool, error) {
	pool, err := retry.Do(ctx, startupRetry, retry.Always, func(ctx context.Context) (*pgxpool.Pool, error) {
		return postgres.Connect(ctx, cfg.DatabaseURL, tracer)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return pool, nil
}

func connectRedis(ctx context.Context, cfg *config.Config, m *metrics.RedisMetrics) (*goredis.Client, error) {
	client, err := retry.Do(ctx, startupRetry, retry.Always, func(ctx context.Context) (*goredis.Client, error) {
		return redis.NewClient(ctx, cfg.RedisURL, m)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}
