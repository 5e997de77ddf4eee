package placement

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
)

// UpdateOrderStatus переводит заказ в новый статус от имени его производителя.
// При конфликте версий заказ перечитывается и переход проверяется заново.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID, producerID string, next domain.OrderStatus) (domain.Order, error) {
	start := time.Now()
	defer func() { s.metrics.RecordDuration(opUpdateOrderStatus, time.Since(start)) }()

	var (
		updated  domain.Order
		previous domain.OrderStatus
	)
	err := s.withRetry(ctx, opUpdateOrderStatus, domain.IsVersionConflict, func() error {
		order, err := s.orders.Get(orderID)
		if err != nil {
			return err
		}
		if order.ProducerID != producerID {
			return domain.NewError(domain.ErrForbidden, "order %s belongs to another producer", orderID)
		}
		previous = order.Status
		if err := order.UpdateStatus(next, s.now()); err != nil {
			return err
		}
		if err := s.orders.Save(order); err != nil {
			return err
		}
		order.Version++
		updated = order
		return nil
	})
	if err != nil {
		s.reject(opUpdateOrderStatus, err)
		return domain.Order{}, err
	}

	s.metrics.RecordStatusChange(domain.AggregateOrder, string(updated.Status))
	s.emitEvent(domain.AggregateOrder, updated.ID, domain.EventOrderStatusChanged, string(previous)+" -> "+string(updated.Status), updated.UpdatedAt, StatusChangedPayload{
		AggregateID: updated.ID,
		From:        string(previous),
		To:          string(updated.Status),
		ChangedBy:   producerID,
		OccurredAt:  updated.UpdatedAt,
	})
	s.logger.WithFields(log.Fields{
		"order_id": updated.ID,
		"from":     previous,
		"to":       updated.Status,
	}).Info("order status changed")
	return updated, nil
}

// UpdateShippingStatus двигает заявку на перевозку вперёд по жизненному циклу.
// Повторная установка текущего статуса ничего не меняет и событий не порождает.
func (s *Service) UpdateShippingStatus(ctx context.Context, requestID, producerID string, next domain.ShippingStatus) (domain.ShippingRequest, error) {
	start := time.Now()
	defer func() { s.metrics.RecordDuration(opUpdateShippingStatus, time.Since(start)) }()

	var (
		updated  domain.ShippingRequest
		previous domain.ShippingStatus
	)
	err := s.withRetry(ctx, opUpdateShippingStatus, domain.IsVersionConflict, func() error {
		request, err := s.shipping.Get(requestID)
		if err != nil {
			return err
		}
		if request.ProducerID != producerID {
			return domain.NewError(domain.ErrForbidden, "shipping request %s belongs to another producer", requestID)
		}
		previous = request.Status
		if err := request.UpdateStatus(next, s.now()); err != nil {
			return err
		}
		if request.Status == previous {
			updated = request
			return nil
		}
		if err := s.shipping.Save(request); err != nil {
			return err
		}
		request.Version++
		updated = request
		return nil
	})
	if err != nil {
		s.reject(opUpdateShippingStatus, err)
		return domain.ShippingRequest{}, err
	}
	if updated.Status == previous {
		return updated, nil
	}

	s.metrics.RecordStatusChange(domain.AggregateShipping, string(updated.Status))
	s.emitEvent(domain.AggregateShipping, updated.ID, domain.EventTransportStatusChanged, string(previous)+" -> "+string(updated.Status), updated.UpdatedAt, StatusChangedPayload{
		AggregateID: updated.ID,
		From:        string(previous),
		To:          string(updated.Status),
		ChangedBy:   producerID,
		OccurredAt:  updated.UpdatedAt,
	})
	s.logger.WithFields(log.Fields{
		"request_id": updated.ID,
		"from":       previous,
		"to":         updated.Status,
	}).Info("shipping status changed")
	return updated, nil
}
