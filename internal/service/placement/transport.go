package placement

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
)

// SolicitTransportCommand — заявка производителя на перевозку своего товара.
type SolicitTransportCommand struct {
	ProducerID          string
	ProductID           string
	QuantityValue       decimal.Decimal
	QuantityUnit        string
	Origin              domain.Location
	Destination         domain.Location
	RequiredDate        time.Time
	SpecialInstructions string
}

// SolicitTransport создаёт заявку в статусе pending и списывает перевозимый объём с остатка.
func (s *Service) SolicitTransport(ctx context.Context, cmd SolicitTransportCommand) (string, error) {
	start := time.Now()
	s.metrics.InFlightStarted()
	defer func() {
		s.metrics.InFlightFinished()
		s.metrics.RecordDuration(opSolicitTransport, time.Since(start))
	}()

	var request domain.ShippingRequest
	err := s.withRetry(ctx, opSolicitTransport, domain.IsStockConflict, func() error {
		built, reservation, err := s.buildShippingRequest(cmd)
		if err != nil {
			return err
		}
		if err := s.store.CommitShipping(built, reservation); err != nil {
			if domain.IsStockConflict(err) {
				s.metrics.RecordStockConflict()
			}
			return err
		}
		request = built
		return nil
	})
	if err != nil {
		s.reject(opSolicitTransport, err)
		s.logger.WithError(err).WithFields(log.Fields{
			"producer_id": cmd.ProducerID,
			"product_id":  cmd.ProductID,
		}).Info("transport request rejected")
		return "", err
	}

	s.metrics.RecordTransportRequested()
	s.emitEvent(domain.AggregateShipping, request.ID, domain.EventTransportRequested, request.SpecialInstructions, request.CreatedAt, TransportRequestedPayload{
		RequestID:    request.ID,
		ProducerID:   request.ProducerID,
		ProductID:    request.ProductID,
		Quantity:     request.Quantity.String(),
		RequiredDate: request.RequiredDate.Format(time.DateOnly),
		OccurredAt:   request.CreatedAt,
	})
	s.logger.WithFields(log.Fields{
		"request_id":  request.ID,
		"producer_id": request.ProducerID,
		"product_id":  request.ProductID,
	}).Info("transport requested")
	return request.ID, nil
}

func (s *Service) buildShippingRequest(cmd SolicitTransportCommand) (domain.ShippingRequest, domain.StockReservation, error) {
	producerID := strings.TrimSpace(cmd.ProducerID)

	if _, err := s.requireActor(producerID, domain.UserRoleProducer); err != nil {
		return domain.ShippingRequest{}, domain.StockReservation{}, err
	}
	product, err := s.requireOwnedProduct(strings.TrimSpace(cmd.ProductID), producerID)
	if err != nil {
		return domain.ShippingRequest{}, domain.StockReservation{}, err
	}
	if !product.Quantity.SameUnit(cmd.QuantityUnit) {
		return domain.ShippingRequest{}, domain.StockReservation{}, domain.NewError(domain.ErrUnitMismatch,
			"product %q is measured in %s, requested %q", product.Name, product.Quantity.Unit, cmd.QuantityUnit)
	}
	if _, err := product.Quantity.Reduce(cmd.QuantityValue); err != nil {
		return domain.ShippingRequest{}, domain.StockReservation{}, domain.NewError(domain.ErrInsufficientStock,
			"product %q has %s available for transport, requested %s", product.Name, product.Quantity, cmd.QuantityValue)
	}

	origin, err := domain.NewLocation(cmd.Origin.Address, cmd.Origin.City, cmd.Origin.Country)
	if err != nil {
		return domain.ShippingRequest{}, domain.StockReservation{}, err
	}
	destination, err := domain.NewLocation(cmd.Destination.Address, cmd.Destination.City, cmd.Destination.Country)
	if err != nil {
		return domain.ShippingRequest{}, domain.StockReservation{}, err
	}
	qty := domain.Quantity{Value: cmd.QuantityValue, Unit: product.Quantity.Unit}

	request, err := domain.NewShippingRequest(s.newID(), producerID, product.ID, qty, origin, destination,
		cmd.RequiredDate, cmd.SpecialInstructions, s.now())
	if err != nil {
		return domain.ShippingRequest{}, domain.StockReservation{}, err
	}
	reservation := domain.StockReservation{
		ProductID:       product.ID,
		Amount:          cmd.QuantityValue,
		Unit:            product.Quantity.Unit,
		ExpectedVersion: product.Version,
	}
	return request, reservation, nil
}
