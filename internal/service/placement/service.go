// Package placement реализует размещение заказов и заявок на перевозку:
// проверку участников, списание остатков и смену статусов.
package placement

import (
	"errors"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
	"github.com/vladislavdragonenkov/greenlogist/internal/metrics"
)

const (
	opPlaceOrder           = "place_order"
	opSolicitTransport     = "solicit_transport"
	opUpdateOrderStatus    = "update_order_status"
	opUpdateShippingStatus = "update_shipping_status"
)

// Dependencies — хранилища, с которыми работает сервис.
// Outbox и Timeline необязательны.
type Dependencies struct {
	Users    domain.UserRepository
	Products domain.ProductRepository
	Orders   domain.OrderRepository
	Shipping domain.ShippingRepository
	Store    domain.PlacementStore
	Outbox   domain.OutboxRepository
	Timeline domain.TimelineRepository
}

func (d Dependencies) validate() error {
	switch {
	case d.Users == nil:
		return errors.New("placement: users repository is required")
	case d.Products == nil:
		return errors.New("placement: products repository is required")
	case d.Orders == nil:
		return errors.New("placement: orders repository is required")
	case d.Shipping == nil:
		return errors.New("placement: shipping repository is required")
	case d.Store == nil:
		return errors.New("placement: placement store is required")
	}
	return nil
}

// Option настраивает Service.
type Option func(*Service)

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics включает метрики размещения.
func WithMetrics(m *metrics.PlacementMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithRetryConfig задаёт политику повторов при конкурентных конфликтах.
func WithRetryConfig(cfg RetryConfig) Option {
	return func(s *Service) {
		s.retry = cfg.normalized()
	}
}

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator подменяет генератор идентификаторов.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// Service — сценарии размещения заказов и перевозок.
type Service struct {
	users    domain.UserRepository
	products domain.ProductRepository
	orders   domain.OrderRepository
	shipping domain.ShippingRepository
	store    domain.PlacementStore
	outbox   domain.OutboxRepository
	timeline domain.TimelineRepository

	metrics *metrics.PlacementMetrics
	logger  *log.Entry
	retry   RetryConfig
	now     func() time.Time
	newID   func() string
}

// NewService собирает сервис размещения.
func NewService(deps Dependencies, options ...Option) (*Service, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	s := &Service{
		users:    deps.Users,
		products: deps.Products,
		orders:   deps.Orders,
		shipping: deps.Shipping,
		store:    deps.Store,
		outbox:   deps.Outbox,
		timeline: deps.Timeline,
		logger:   log.WithField("component", "placement"),
		retry:    DefaultRetryConfig(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
	for _, option := range options {
		option(s)
	}
	return s, nil
}

// requireActor загружает пользователя и проверяет его роль.
// Отсутствующий пользователь и чужая роль неразличимы для вызывающего.
func (s *Service) requireActor(id string, role domain.UserRole) (domain.User, error) {
	user, ok, err := s.users.Find(id)
	if err != nil {
		return domain.User{}, err
	}
	if !ok || !user.HasRole(role) {
		return domain.User{}, domain.NewError(domain.ErrInvalidActor, "%s %q not found", role, id)
	}
	return user, nil
}

// requireOwnedProduct возвращает товар, если он принадлежит производителю.
func (s *Service) requireOwnedProduct(productID, producerID string) (domain.Product, error) {
	product, ok, err := s.products.Find(productID)
	if err != nil {
		return domain.Product{}, err
	}
	if !ok || !product.BelongsTo(producerID) {
		return domain.Product{}, domain.NewError(domain.ErrProductNotFound, "product %s not found for producer %s", productID, producerID)
	}
	return product, nil
}

func (s *Service) reject(operation string, err error) {
	_, code := domain.Describe(err)
	s.metrics.RecordRejected(operation, code)
}
