// Package app собирает хранилище, сервисы, транспорты и фоновые воркеры
// и управляет их жизненным циклом.
package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	healthcheck "github.com/vladislavdragonenkov/greenlogist/internal/health"
	"github.com/vladislavdragonenkov/greenlogist/internal/httpapi"
	grpcsvc "github.com/vladislavdragonenkov/greenlogist/internal/service/grpc"
	"github.com/vladislavdragonenkov/greenlogist/internal/service/idempotency"
	"github.com/vladislavdragonenkov/greenlogist/internal/service/outbox"
	"github.com/vladislavdragonenkov/greenlogist/internal/version"
)

const grpcStopTimeout = 5 * time.Second

// Run запускает gRPC и HTTP API, сервер метрик и воркеры и блокируется до отмены ctx
// или первой фатальной ошибки. При отмене ctx возвращает ctx.Err().
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	logger.WithFields(version.Fields()).Info("starting greenlogist")

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.close(); err != nil {
			logger.WithError(err).Warn("failed to close storage")
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	services, err := buildServices(deps, cfg, registry, logger)
	if err != nil {
		return err
	}

	kafkaProducer, err := initKafkaProducer(cfg.KafkaBrokers, logger)
	if err != nil {
		logger.Warn("outbox events will only be logged")
	}
	defer closeKafka(kafkaProducer, logger)
	publisher, dlqPublisher := outboxPublishers(kafkaProducer, cfg.KafkaTopic, logger)

	workerOpts := []outbox.Option{
		outbox.WithLogger(logger.WithField("component", "outbox-worker")),
		outbox.WithRegisterer(registry),
		outbox.WithPollInterval(cfg.OutboxPollInterval),
		outbox.WithBatchSize(cfg.OutboxBatchSize),
		outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
		outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
	}
	if dlqPublisher != nil {
		workerOpts = append(workerOpts, outbox.WithDLQPublisher(dlqPublisher))
	}
	outboxWorker := outbox.NewWorker(deps.outboxRepo, publisher, workerOpts...)

	cleanupWorker := idempotency.NewCleanupWorker(deps.idempotencyRepo,
		idempotency.WithLogger(logger.WithField("component", "idempotency-cleanup-worker")),
		idempotency.WithRegisterer(registry),
		idempotency.WithInterval(cfg.IdempotencyCleanupInterval),
		idempotency.WithBatchSize(cfg.IdempotencyCleanupBatchSize),
	)

	healthHandler := newHealthHandler(deps)
	healthHandler.RegisterChecker("outbox", healthcheck.NewBacklogChecker("outbox", func() (int, error) {
		stats, err := deps.outboxRepo.Stats()
		return stats.PendingCount, err
	}, cfg.OutboxMaxPending, 0))

	marketplace, err := grpcsvc.NewMarketplaceService(services, logger.WithField("layer", "grpc"))
	if err != nil {
		return err
	}
	grpcServer := grpcsvc.NewServer(marketplace, services.Auth, logger.WithField("layer", "grpc"), registry)

	router, err := httpapi.NewRouter(services, httpapi.Config{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, logger.WithField("layer", "http"), registry)
	if err != nil {
		return err
	}
	apiServer := &http.Server{Handler: router, ReadHeaderTimeout: readHeaderTimeout}

	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}
	httpLis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		_ = grpcLis.Close()
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	startMetricsServer(gctx, cfg.MetricsAddr, logger, healthHandler, registry)

	g.Go(func() error {
		logger.Infof("gRPC сервер слушает %s", grpcLis.Addr())
		return grpcServer.Serve(grpcLis)
	})
	g.Go(func() error {
		logger.Infof("HTTP API слушает %s", httpLis.Addr())
		return serveHTTP(apiServer, httpLis)
	})
	g.Go(func() error {
		outboxWorker.Run(gctx)
		return nil
	})
	g.Go(func() error {
		cleanupWorker.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("получен сигнал остановки, останавливаем серверы")
		stopGRPC(grpcServer, logger)
		shutdownHTTP(apiServer, logger)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return ctx.Err()
}

// newHealthHandler регистрирует проверки доступных хранилищ.
func newHealthHandler(deps *runtimeDependencies) *healthcheck.Handler {
	handler := healthcheck.NewHandler(version.GetVersion())
	if deps.storageChecker != nil {
		handler.RegisterChecker("storage", deps.storageChecker)
	}
	if deps.redisChecker != nil {
		handler.RegisterChecker("redis", deps.redisChecker)
	}
	return handler
}

// stopGRPC ждёт завершения активных вызовов, но не дольше grpcStopTimeout.
func stopGRPC(server *grpcsvc.Server, logger *log.Entry) {
	stopped := make(chan struct{})
	go func() {
		server.Shutdown()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(grpcStopTimeout):
		logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
		server.Stop()
	}
}
