// Package app builds the service graph shared by the HTTP server and the
// filterctl commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/cache"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/config"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/events"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/logger"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/metrics"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/services"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/store"
)

type App struct {
	Config  *config.Config
	DB      *gorm.DB
	Redis   *redis.Client
	Metrics *metrics.Metrics
	Store   store.Store
	Cache   cache.MetadataCache
	// Activity persists the admin audit trail.
	Activity *store.GormStore

	Sync     *services.SyncService
	Metadata *services.MetadataService
	Search   *services.SearchService
	Admin    *services.FilterAdminService
	Products *services.ProductService
	JWT      *services.JWTService

	producer *events.Producer
	log      *zerolog.Logger
}

// New connects to Postgres (migrating the schema) and Redis when configured,
// then wires the services. Product events go to Kafka when brokers are set,
// otherwise facets are resynced inline.
func New(cfg *config.Config, reg prometheus.Registerer) (*App, error) {
	a := &App{Config: cfg, log: logger.WithComponent("app")}

	db, err := config.OpenDB(cfg)
	if err != nil {
		return nil, err
	}
	a.DB = db
	if err := store.AutoMigrate(db); err != nil {
		a.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	client, err := config.ConnectRedis(cfg.RedisURL)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Redis = client

	a.Metrics = metrics.New(reg)
	gormStore := store.NewGormStore(db)
	a.Store = gormStore
	a.Activity = gormStore
	if a.Redis != nil {
		a.Cache = cache.NewRedisCache(a.Redis, cfg.CacheTTL)
	} else {
		a.Cache = cache.NewMemoryCache(cfg.CacheTTL)
	}

	a.Sync = services.NewSyncService(a.Store, a.Cache, a.Metrics, services.SyncConfig{
		Concurrency: cfg.Sync.Concurrency,
		BatchSize:   cfg.Sync.BatchSize,
	})
	a.Metadata = services.NewMetadataService(a.Store, a.Cache, a.Metrics)
	a.Search = services.NewSearchService(a.Store, a.Metrics)
	a.Admin = services.NewFilterAdminService(a.Store, a.Cache)

	var notifier services.ProductNotifier = services.InlineNotifier{Sync: a.Sync}
	if cfg.Kafka.Enabled() {
		a.producer = events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.ProductTopic, a.Metrics)
		notifier = a.producer
		a.log.Info().Strs("brokers", cfg.Kafka.Brokers).Msg("publishing product events to Kafka")
	} else {
		a.log.Warn().Msg("KAFKA_BROKERS not set, product facets are resynced inline")
	}
	a.Products = services.NewProductService(a.Store, notifier)

	if cfg.JWTSecret != "" {
		jwtSvc, err := services.NewJWTService(cfg.JWTSecret, 0)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.JWT = jwtSvc
	}
	return a, nil
}

// RequireJWT fails when no JWT secret is configured.
func (a *App) RequireJWT() error {
	if a.JWT == nil {
		return errors.New("JWT_SECRET environment variable not set")
	}
	return nil
}

// NewConsumer builds the Kafka facet worker.
func (a *App) NewConsumer() (*events.Consumer, error) {
	if !a.Config.Kafka.Enabled() {
		return nil, errors.New("KAFKA_BROKERS not set")
	}
	k := a.Config.Kafka
	return events.NewConsumer(k.Brokers, k.ProductTopic, k.ConsumerGroup, a.Sync, a.Metrics), nil
}

// Ping checks the database with a short timeout.
func (a *App) Ping(ctx context.Context) error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

func (a *App) Close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close Kafka producer")
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		config.CloseDB(a.DB)
	}
}
