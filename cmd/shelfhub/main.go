package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/shelfhub/shelfhub/pkg/api"
	"github.com/shelfhub/shelfhub/pkg/auth"
	"github.com/shelfhub/shelfhub/pkg/catalog"
	"github.com/shelfhub/shelfhub/pkg/config"
	"github.com/shelfhub/shelfhub/pkg/observability"
	"github.com/shelfhub/shelfhub/pkg/rbac"
	"github.com/shelfhub/shelfhub/pkg/seed"
	"github.com/shelfhub/shelfhub/pkg/social"
	"github.com/shelfhub/shelfhub/pkg/storage"
)

// notificationRetention is how long read notifications are kept before the
// nightly purge removes them.
const notificationRetention = 30 * 24 * time.Hour

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger(observability.ErrorLevel, os.Stderr).WithError(err).Error("invalid configuration")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout).
		WithField("service", "shelfhub")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Error("shutdown with error")
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *observability.Logger) error {
	db, err := storage.Connect(ctx, storage.ConnectionConfig{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnectTimeout:  cfg.Database.ConnectTimeout,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := storage.RunMigrations(ctx, db); err != nil {
		return err
	}
	logger.Info("migrations applied")

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("redis unreachable, caching disabled")
			redisClient = nil
		}
	}

	users := auth.NewStore(db)
	groups := rbac.NewStore(db)
	cat := catalog.NewStore(db)
	soc := social.NewStore(db)

	seeder := seed.NewSeeder(users, groups, cat, logger)
	if err := seeder.Run(ctx, cfg); err != nil {
		return err
	}
	logger.Info("seed data ensured")

	registry := prometheus.NewRegistry()
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	deps := api.Deps{DB: db, Redis: redisClient, Logger: logger, Metrics: metrics}
	server := api.NewServer(cfg, deps)
	health := api.NewHealthServer(cfg, deps, registry)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@hourly", func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		purged, err := soc.PurgeReadNotifications(jobCtx, time.Now().UTC().Add(-notificationRetention))
		if err != nil {
			logger.WithError(err).Warn("notification purge failed")
			return
		}
		if purged > 0 {
			logger.WithField("purged", purged).Info("purged read notifications")
		}
	}); err != nil {
		return err
	}
	if metrics != nil {
		if _, err := scheduler.AddFunc("@every 1m", func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			refreshEntityGauges(jobCtx, logger, metrics, users, cat, soc)
		}); err != nil {
			return err
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Start(gctx) })
	g.Go(func() error { return health.Start(gctx) })
	return g.Wait()
}

func refreshEntityGauges(ctx context.Context, logger *observability.Logger, metrics *observability.Metrics, users *auth.Store, cat *catalog.Store, soc *social.Store) {
	if count, err := users.CountUsers(ctx); err != nil {
		logger.WithError(err).Warn("failed to count users")
	} else {
		metrics.UsersTotal.Set(float64(count))
	}
	if count, err := cat.CountBooks(ctx); err != nil {
		logger.WithError(err).Warn("failed to count books")
	} else {
		metrics.BooksTotal.Set(float64(count))
	}
	if count, err := soc.CountAllLikes(ctx); err != nil {
		logger.WithError(err).Warn("failed to count likes")
	} else {
		metrics.LikesTotal.Set(float64(count))
	}
	if count, err := soc.CountNotifications(ctx); err != nil {
		logger.WithError(err).Warn("failed to count notifications")
	} else {
		metrics.NotificationsTotal.Set(float64(count))
	}
}
