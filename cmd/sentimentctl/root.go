package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/nlsentiment/internal/adapter/metrics"
	"github.com/pscheid92/nlsentiment/internal/adapter/postgres"
	"github.com/pscheid92/nlsentiment/internal/adapter/redis"
	"github.com/pscheid92/nlsentiment/internal/app"
	"github.com/pscheid92/nlsentiment/internal/domain"
	"github.com/pscheid92/nlsentiment/internal/platform/config"
	"github.com/pscheid92/nlsentiment/internal/platform/logging"
	"github.com/pscheid92/nlsentiment/internal/platform/version"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const connectTimeout = 10 * time.Second

// cliCacheTTL keeps the CLI's process-local settings cache short; the
// process only lives for one command.
const cliCacheTTL = time.Second

type rootOptions struct {
	databaseURL string
	redisURL    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "sentimentctl",
		Short:        "Administer the Google NL sentiment settings",
		Version:      version.Get().String(),
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.LoadCLI()
			if err != nil {
				return err
			}
			logging.InitLogger(cfg.LogLevel, "tint")
			if opts.databaseURL == "" {
				opts.databaseURL = cfg.DatabaseURL
			}
			if opts.redisURL == "" {
				opts.redisURL = cfg.RedisURL
			}
			if opts.databaseURL == "" {
				return errors.New("database URL required (--database-url or DATABASE_URL)")
			}
			return nil
		},
	}
	cmd.SetVersionTemplate(`{{printf "sentimentctl %s\n" .Version}}`)

	cmd.PersistentFlags().StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL URL (default $DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&opts.redisURL, "redis-url", "", "Redis URL used to notify running servers (default $REDIS_URL)")

	cmd.AddCommand(newShowCmd(opts), newApplyCmd(opts), newMigrateCmd(opts))
	return cmd
}

// session bundles the connections and services one command needs.
type session struct {
	pool    *pgxpool.Pool
	rdb     *goredis.Client
	service *app.Service
}

func (r *session) Close() {
	if r.rdb != nil {
		_ = r.rdb.Close()
	}
	r.pool.Close()
}

func connect(ctx context.Context, opts *rootOptions) (*session, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := postgres.Connect(ctx, opts.databaseURL, nil)
	if err != nil {
		return nil, err
	}
	rt := &session{pool: pool}

	reg := prometheus.NewRegistry()
	settingsRepo := postgres.NewSettingsRepo(pool)
	fieldRepo := postgres.NewFieldRepo(pool)

	var (
		source      domain.SettingsSource = storeSource{repo: settingsRepo}
		invalidator domain.SettingsCacheInvalidator
	)
	if opts.redisURL != "" {
		rdb, err := redis.NewClient(ctx, opts.redisURL)
		if err != nil {
			pool.Close()
			return nil, err
		}
		rt.rdb = rdb
		cache := redis.NewSettingsCacheRepo(rdb, settingsRepo, cliCacheTTL, metrics.NewCacheMetrics(reg))
		source = cache
		invalidator = redis.NewSettingsInvalidator(rdb, cache)
	} else {
		slog.Warn("No Redis URL configured; running servers keep cached settings until they expire")
	}

	provisioner := app.NewSentimentFieldProvisioner(fieldRepo, postgres.NewFormDisplayRepo(pool))
	reconciler := app.NewReconciler(provisioner, settingsRepo, clockwork.NewRealClock(), metrics.NewReconcileMetrics(reg))
	rt.service = app.NewService(postgres.NewContentTypeRepo(pool), fieldRepo, settingsRepo, source, provisioner, invalidator, reconciler)

	return rt, nil
}

// storeSource reads settings straight from the repository.
type storeSource struct {
	repo domain.SettingsRepository
}

func (s storeSource) GetSettings(ctx context.Context) (domain.Settings, error) {
	settings, err := s.repo.Get(ctx)
	if errors.Is(err, domain.ErrSettingsNotFound) {
		return domain.DefaultSettings(), nil
	}
	if err != nil {
		return domain.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return *settings, nil
}
