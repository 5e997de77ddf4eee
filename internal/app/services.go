package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/greenlogist/internal/api"
	"github.com/vladislavdragonenkov/greenlogist/internal/metrics"
	"github.com/vladislavdragonenkov/greenlogist/internal/service/auth"
	"github.com/vladislavdragonenkov/greenlogist/internal/service/catalog"
	"github.com/vladislavdragonenkov/greenlogist/internal/service/idempotency"
	"github.com/vladislavdragonenkov/greenlogist/internal/service/placement"
	"github.com/vladislavdragonenkov/greenlogist/internal/service/reporting"
)

// buildServices собирает прикладные сервисы поверх выбранного хранилища.
func buildServices(deps *runtimeDependencies, cfg Config, registerer prometheus.Registerer, logger *log.Entry) (api.Services, error) {
	authSvc, err := auth.NewService(deps.users, auth.Config{
		Secret:   cfg.JWTSecret,
		TokenTTL: cfg.JWTTTL,
	}, auth.WithLogger(logger.WithField("component", "auth")))
	if err != nil {
		return api.Services{}, err
	}

	retry := placement.DefaultRetryConfig()
	if cfg.PlacementMaxAttempts > 0 {
		retry.MaxAttempts = cfg.PlacementMaxAttempts
	}
	placementSvc, err := placement.NewService(placement.Dependencies{
		Users:    deps.users,
		Products: deps.products,
		Orders:   deps.orders,
		Shipping: deps.shipping,
		Store:    deps.placementStore,
		Outbox:   deps.outboxRepo,
		Timeline: deps.timelineRepo,
	},
		placement.WithLogger(logger.WithField("component", "placement")),
		placement.WithMetrics(metrics.NewPlacementMetricsWithRegisterer(registerer)),
		placement.WithRetryConfig(retry),
	)
	if err != nil {
		return api.Services{}, fmt.Errorf("init placement service: %w", err)
	}

	return api.Services{
		Auth:      authSvc,
		Catalog:   catalog.NewService(deps.users, deps.products, catalog.WithLogger(logger.WithField("component", "catalog"))),
		Placement: placementSvc,
		Reporting: reporting.NewService(deps.users, deps.products, deps.orders, deps.shipping, deps.timelineRepo, logger.WithField("component", "reporting")),
		Idempotency: idempotency.NewGuard(deps.idempotencyRepo, idempotency.GuardConfig{
			TTL:      cfg.IdempotencyTTL,
			StatusOf: api.HTTPStatus,
			Logger:   logger.WithField("component", "idempotency"),
		}),
	}, nil
}
