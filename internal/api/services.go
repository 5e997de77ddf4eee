package api

import (
	"github.com/vladislavdragonenkov/greenlogist/internal/service/auth"
	"github.com/vladislavdragonenkov/greenlogist/internal/service/catalog"
	"github.com/vladislavdragonenkov/greenlogist/internal/service/idempotency"
	"github.com/vladislavdragonenkov/greenlogist/internal/service/placement"
	"github.com/vladislavdragonenkov/greenlogist/internal/service/reporting"
)

// Services — прикладные сервисы, которые обслуживают транспорты.
// Idempotency может быть nil: тогда idempotency-key игнорируется.
type Services struct {
	Auth        *auth.Service
	Catalog     *catalog.Service
	Placement   *placement.Service
	Reporting   *reporting.Service
	Idempotency *idempotency.Guard
}
