package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/nlsentiment/internal/adapter/httpserver"
	"github.com/pscheid92/nlsentiment/internal/adapter/metrics"
	"github.com/pscheid92/nlsentiment/internal/adapter/postgres"
	"github.com/pscheid92/nlsentiment/internal/adapter/redis"
	"github.com/pscheid92/nlsentiment/internal/app"
	"github.com/pscheid92/nlsentiment/internal/platform/config"
	"github.com/pscheid92/nlsentiment/internal/platform/logging"
	"github.com/pscheid92/nlsentiment/internal/platform/retry"
	"github.com/pscheid92/nlsentiment/internal/platform/version"
	goredis "github.com/redis/go-redis/v9"
)

func runGracefulShutdown(srv *httpserver.Server, cancelBackground context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		cancelBackground()
		close(done)
	}()

	return done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// startupRetryPolicy gives PostgreSQL and Redis time to come up alongside
// the server, e.g. in docker compose.
func startupRetryPolicy(dependency string) retry.Policy {
	return retry.Policy{
		MaxAttempts:    8,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			slog.Warn("Dependency not ready, retrying", "dependency", dependency, "attempt", attempt, "backoff", backoff, "error", err)
		},
	}
}

func setupDB(cfg *config.Config, m *metrics.DBMetrics) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := retry.Do(ctx, startupRetryPolicy("postgres"), func(ctx context.Context) (*pgxpool.Pool, error) {
		return postgres.Connect(ctx, cfg.DatabaseURL, m)
	})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(ctx context.Context, cfg *config.Config, hooks ...goredis.Hook) *goredis.Client {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	client, err := retry.Do(ctx, startupRetryPolicy("redis"), func(ctx context.Context) (*goredis.Client, error) {
		return redis.NewClient(ctx, cfg.RedisURL, hooks...)
	})
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func healthChecks(pool *pgxpool.Pool, rdb *goredis.Client) []httpserver.HealthCheck {
	return []httpserver.HealthCheck{
		{Name: "postgres", Check: pool.Ping},
		{Name: "redis", Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
	}
}

func registerBuildInfo(reg prometheus.Registerer) {
	info := version.Get()
	buildInfo := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "nlsentiment",
		Name:      "build_info",
		Help:      "Build information of the running binary.",
	}, []string{"version", "commit", "go_version"})
	buildInfo.WithLabelValues(info.Version, info.Commit, info.GoVersion).Set(1)
	reg.MustRegister(buildInfo)
}

func main() {
	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Get().String())

	reg := metrics.NewRegistry()
	registerBuildInfo(reg)
	dbMetrics := metrics.NewDBMetrics(reg)
	cacheMetrics := metrics.NewCacheMetrics(reg)
	reconcileMetrics := metrics.NewReconcileMetrics(reg)
	httpMetrics := metrics.NewHTTPMetrics(reg)
	redisMetrics := metrics.NewRedisMetrics(reg)

	pool := setupDB(cfg, dbMetrics)
	defer pool.Close()

	bgCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	redisClient := setupRedis(bgCtx, cfg, redis.NewMetricsHook(redisMetrics))
	// Installed after startup so connection retries cannot trip it.
	redisClient.AddHook(redis.NewCircuitBreakerHook(cacheMetrics))
	defer func() { _ = redisClient.Close() }()

	// Construct repositories
	contentTypeRepo := postgres.NewContentTypeRepo(pool)
	fieldRepo := postgres.NewFieldRepo(pool)
	formDisplayRepo := postgres.NewFormDisplayRepo(pool)
	settingsRepo := postgres.NewSettingsRepo(pool)

	settingsCache := redis.NewSettingsCacheRepo(redisClient, settingsRepo, cfg.SettingsCacheTTL, cacheMetrics)
	invalidator := redis.NewSettingsInvalidator(redisClient, settingsCache)
	go invalidator.Start(bgCtx)

	provisioner := app.NewSentimentFieldProvisioner(fieldRepo, formDisplayRepo)
	reconciler := app.NewReconciler(provisioner, settingsRepo, clockwork.NewRealClock(), reconcileMetrics)
	appSvc := app.NewService(contentTypeRepo, fieldRepo, settingsRepo, settingsCache, provisioner, invalidator, reconciler)

	srv, err := httpserver.NewServer(cfg, appSvc,
		httpserver.WithDebouncer(redis.NewSubmissionDebouncer(redisClient)),
		httpserver.WithMetrics(httpMetrics, metrics.Handler(reg)),
		httpserver.WithHealthChecks(healthChecks(pool, redisClient)...),
	)
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	done := runGracefulShutdown(srv, cancelBackground)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
