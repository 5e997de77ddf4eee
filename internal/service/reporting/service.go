// Package reporting отдаёт истории заказов и перевозок и сводную статистику производителя.
package reporting

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
)

// UnknownProductName подставляется в историю перевозок, если товар уже удалён.
const UnknownProductName = "Unknown Product"

// ShippingHistoryEntry — заявка на перевозку вместе с названием товара.
type ShippingHistoryEntry struct {
	Request     domain.ShippingRequest
	ProductName string
}

// Service — чтение данных для покупателей и производителей.
type Service struct {
	users    domain.UserRepository
	products domain.ProductRepository
	orders   domain.OrderRepository
	shipping domain.ShippingRepository
	timeline domain.TimelineRepository
	logger   *log.Entry
}

// NewService создаёт сервис отчётов. timeline может быть nil.
func NewService(users domain.UserRepository, products domain.ProductRepository, orders domain.OrderRepository, shipping domain.ShippingRepository, timeline domain.TimelineRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "reporting")
	}
	return &Service{
		users:    users,
		products: products,
		orders:   orders,
		shipping: shipping,
		timeline: timeline,
		logger:   logger,
	}
}

// GetOrder возвращает заказ по идентификатору.
func (s *Service) GetOrder(orderID string) (domain.Order, error) {
	order, err := s.orders.Get(strings.TrimSpace(orderID))
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// OrdersByConsumer возвращает заказы покупателя, новые первыми.
func (s *Service) OrdersByConsumer(consumerID string) ([]domain.Order, error) {
	return s.orders.ListByConsumer(strings.TrimSpace(consumerID))
}

// OrdersByProducer возвращает продажи производителя, новые первыми.
func (s *Service) OrdersByProducer(producerID string) ([]domain.Order, error) {
	return s.orders.ListByProducer(strings.TrimSpace(producerID))
}

// ShippingHistory возвращает заявки производителя, новые первыми, с названиями товаров.
func (s *Service) ShippingHistory(producerID string) ([]ShippingHistoryEntry, error) {
	requests, err := s.shipping.ListByProducer(strings.TrimSpace(producerID))
	if err != nil {
		return nil, err
	}
	names := make(map[string]string)
	history := make([]ShippingHistoryEntry, 0, len(requests))
	for _, r := range requests {
		name, ok := names[r.ProductID]
		if !ok {
			name, err = s.productName(r.ProductID)
			if err != nil {
				return nil, err
			}
			names[r.ProductID] = name
		}
		history = append(history, ShippingHistoryEntry{Request: r, ProductName: name})
	}
	return history, nil
}

// ProducerStatistics агрегирует продажи и перевозки производителя.
func (s *Service) ProducerStatistics(producerID string) (domain.ProducerStatistics, error) {
	producerID = strings.TrimSpace(producerID)
	if err := s.requireProducer(producerID); err != nil {
		return domain.ProducerStatistics{}, err
	}
	orders, err := s.orders.ListByProducer(producerID)
	if err != nil {
		return domain.ProducerStatistics{}, err
	}
	requests, err := s.shipping.ListByProducer(producerID)
	if err != nil {
		return domain.ProducerStatistics{}, err
	}
	return domain.ComputeProducerStatistics(orders, requests), nil
}

// DashboardSummary собирает данные для главного экрана производителя.
func (s *Service) DashboardSummary(producerID string) (domain.DashboardSummary, error) {
	producerID = strings.TrimSpace(producerID)
	if err := s.requireProducer(producerID); err != nil {
		return domain.DashboardSummary{}, err
	}
	products, err := s.products.ListByProducer(producerID)
	if err != nil {
		return domain.DashboardSummary{}, err
	}
	orders, err := s.orders.ListByProducer(producerID)
	if err != nil {
		return domain.DashboardSummary{}, err
	}
	requests, err := s.shipping.ListByProducer(producerID)
	if err != nil {
		return domain.DashboardSummary{}, err
	}
	return domain.ComputeDashboardSummary(products, orders, requests), nil
}

// OrderTimeline возвращает события заказа в хронологическом порядке.
func (s *Service) OrderTimeline(orderID string) ([]domain.TimelineEvent, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if s.timeline == nil {
		return []domain.TimelineEvent{}, nil
	}
	return s.timeline.List(order.ID)
}

// requireProducer отклоняет статистику для неизвестных пользователей и покупателей.
func (s *Service) requireProducer(producerID string) error {
	user, ok, err := s.users.Find(producerID)
	if err != nil {
		return err
	}
	if !ok || !user.HasRole(domain.UserRoleProducer) {
		return domain.NewError(domain.ErrInvalidActor, "producer %q not found", producerID)
	}
	return nil
}

func (s *Service) productName(productID string) (string, error) {
	product, ok, err := s.products.Find(productID)
	if err != nil {
		return "", err
	}
	if !ok {
		s.logger.WithField("product_id", productID).Debug("shipping request references a deleted product")
		return UnknownProductName, nil
	}
	return product.Name, nil
}
