package app

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/greenlogist/internal/health"
	"github.com/vladislavdragonenkov/greenlogist/internal/storage/memory"
	"github.com/vladislavdragonenkov/greenlogist/internal/storage/postgres"
	"github.com/vladislavdragonenkov/greenlogist/internal/storage/redis"
)

// runtimeDependencies — репозитории выбранного хранилища и проверки их доступности.
type runtimeDependencies struct {
	users           domain.UserRepository
	products        domain.ProductRepository
	orders          domain.OrderRepository
	shipping        domain.ShippingRepository
	placementStore  domain.PlacementStore
	outboxRepo      domain.OutboxRepository
	timelineRepo    domain.TimelineRepository
	idempotencyRepo domain.IdempotencyRepository

	// storageChecker nil для in-memory хранилища.
	storageChecker healthcheck.Checker
	redisChecker   healthcheck.Checker
	closeFn        func() error
}

func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	var (
		deps *runtimeDependencies
		err  error
	)
	switch cfg.StorageDriver {
	case StorageDriverMemory, "":
		deps = newMemoryDependencies()
		logger.Info("using in-memory storage")
	case StorageDriverPostgres:
		deps, err = newPostgresDependencies(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}

	if cfg.RedisAddr == "" {
		return deps, nil
	}
	client, err := redis.Open(ctx, redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		_ = deps.close()
		return nil, fmt.Errorf("init redis idempotency store: %w", err)
	}
	deps.idempotencyRepo = redis.NewIdempotencyRepository(client)
	deps.redisChecker = healthcheck.NewSimpleChecker("redis", client.Ping)
	storageClose := deps.closeFn
	deps.closeFn = func() error {
		var errs []error
		if storageClose != nil {
			errs = append(errs, storageClose())
		}
		errs = append(errs, client.Close())
		return errors.Join(errs...)
	}
	logger.WithField("addr", cfg.RedisAddr).Info("idempotency keys are stored in redis")
	return deps, nil
}

func newMemoryDependencies() *runtimeDependencies {
	products := memory.NewProductRepository()
	orders := memory.NewOrderRepository()
	shipping := memory.NewShippingRepository()
	return &runtimeDependencies{
		users:           memory.NewUserRepository(),
		products:        products,
		orders:          orders,
		shipping:        shipping,
		placementStore:  memory.NewPlacementStore(products, orders, shipping),
		outboxRepo:      memory.NewOutboxRepository(),
		timelineRepo:    memory.NewTimelineRepository(),
		idempotencyRepo: memory.NewIdempotencyRepository(),
	}
}

func newPostgresDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	if cfg.PostgresDSN == "" {
		return nil, errors.New("postgres storage requires a DSN")
	}
	store, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if cfg.PostgresAutoMigrate {
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		logger.Info("postgres schema is up to date")
	}
	logger.Info("using postgres storage")

	return &runtimeDependencies{
		users:           postgres.NewUserRepository(store),
		products:        postgres.NewProductRepository(store),
		orders:          postgres.NewOrderRepository(store),
		shipping:        postgres.NewShippingRepository(store),
		placementStore:  postgres.NewPlacementStore(store),
		outboxRepo:      postgres.NewOutboxRepository(store),
		timelineRepo:    postgres.NewTimelineRepository(store),
		idempotencyRepo: postgres.NewIdempotencyRepository(store),
		storageChecker:  healthcheck.NewSimpleChecker("postgres", store.Ping),
		closeFn:         store.Close,
	}, nil
}

func (d *runtimeDependencies) close() error {
	if d == nil || d.closeFn == nil {
		return nil
	}
	return d.closeFn()
}
