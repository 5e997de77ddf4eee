package placement

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
)

// OrderLine — позиция заказа в том виде, в каком её видел покупатель.
type OrderLine struct {
	ProductID         string
	QuantityValue     decimal.Decimal
	QuantityUnit      string
	UnitPriceValue    decimal.Decimal
	UnitPriceCurrency string
}

// PlaceOrderCommand — запрос покупателя на заказ у одного производителя.
type PlaceOrderCommand struct {
	ConsumerID string
	ProducerID string
	Items      []OrderLine
}

// PlaceOrder проверяет заказ и атомарно списывает остатки вместе с сохранением заказа.
//
// Проверки идут в фиксированном порядке: покупатель, производитель, затем для каждой
// позиции принадлежность товара, единица измерения, остаток и цена. Пока все позиции
// не проверены, ни один товар не меняется. Проигранная гонка за остаток повторяется
// с перечитыванием каталога.
func (s *Service) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (string, error) {
	start := time.Now()
	s.metrics.InFlightStarted()
	defer func() {
		s.metrics.InFlightFinished()
		s.metrics.RecordDuration(opPlaceOrder, time.Since(start))
	}()

	var order domain.Order
	err := s.withRetry(ctx, opPlaceOrder, domain.IsStockConflict, func() error {
		built, reservations, err := s.buildOrder(cmd)
		if err != nil {
			return err
		}
		if err := s.store.CommitOrder(built, reservations); err != nil {
			if domain.IsStockConflict(err) {
				s.metrics.RecordStockConflict()
			}
			return err
		}
		order = built
		return nil
	})
	if err != nil {
		s.reject(opPlaceOrder, err)
		s.logger.WithError(err).WithFields(log.Fields{
			"consumer_id": cmd.ConsumerID,
			"producer_id": cmd.ProducerID,
		}).Info("order rejected")
		return "", err
	}

	s.metrics.RecordOrderPlaced()
	s.emitEvent(domain.AggregateOrder, order.ID, domain.EventOrderPlaced, "", order.OrderDate, OrderPlacedPayload{
		OrderID:     order.ID,
		ConsumerID:  order.ConsumerID,
		ProducerID:  order.ProducerID,
		TotalAmount: order.TotalAmount.StringFixed(2),
		Items:       len(order.Items),
		OccurredAt:  order.OrderDate,
	})
	s.logger.WithFields(log.Fields{
		"order_id":    order.ID,
		"consumer_id": order.ConsumerID,
		"producer_id": order.ProducerID,
		"total":       order.TotalAmount.String(),
	}).Info("order placed")
	return order.ID, nil
}

// buildOrder выполняет все проверки и возвращает заказ вместе с резервами остатков.
func (s *Service) buildOrder(cmd PlaceOrderCommand) (domain.Order, []domain.StockReservation, error) {
	consumerID := strings.TrimSpace(cmd.ConsumerID)
	producerID := strings.TrimSpace(cmd.ProducerID)

	if _, err := s.requireActor(consumerID, domain.UserRoleConsumer); err != nil {
		return domain.Order{}, nil, err
	}
	if _, err := s.requireActor(producerID, domain.UserRoleProducer); err != nil {
		return domain.Order{}, nil, err
	}

	items := make([]domain.OrderItem, 0, len(cmd.Items))
	reservations := make([]domain.StockReservation, 0, len(cmd.Items))
	// Остаток считается с учётом предыдущих позиций того же товара.
	remaining := make(map[string]domain.Quantity, len(cmd.Items))

	for i, line := range cmd.Items {
		product, err := s.requireOwnedProduct(strings.TrimSpace(line.ProductID), producerID)
		if err != nil {
			return domain.Order{}, nil, err
		}
		if !product.Quantity.SameUnit(line.QuantityUnit) {
			return domain.Order{}, nil, domain.NewError(domain.ErrUnitMismatch,
				"item %d: product %q is sold in %s, requested %q", i+1, product.Name, product.Quantity.Unit, line.QuantityUnit)
		}
		available, seen := remaining[product.ID]
		if !seen {
			available = product.Quantity
		}
		left, err := available.Reduce(line.QuantityValue)
		if err != nil {
			return domain.Order{}, nil, domain.NewError(domain.ErrInsufficientStock,
				"item %d: product %q has %s available, requested %s", i+1, product.Name, available, line.QuantityValue)
		}
		remaining[product.ID] = left
		if !product.Price.Matches(line.UnitPriceValue, line.UnitPriceCurrency) {
			return domain.Order{}, nil, domain.NewError(domain.ErrPriceMismatch,
				"item %d: product %q costs %s, requested %s %s", i+1, product.Name, product.Price, line.UnitPriceValue, line.UnitPriceCurrency)
		}

		reservations = append(reservations, domain.StockReservation{
			ProductID:       product.ID,
			Amount:          line.QuantityValue,
			Unit:            product.Quantity.Unit,
			ExpectedVersion: product.Version,
		})
		items = append(items, domain.OrderItem{
			ID:          s.newID(),
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    domain.Quantity{Value: line.QuantityValue, Unit: product.Quantity.Unit},
			UnitPrice:   product.Price,
		})
	}

	order, err := domain.NewOrder(s.newID(), consumerID, producerID, items, s.now())
	if err != nil {
		return domain.Order{}, nil, err
	}
	return order, reservations, nil
}
