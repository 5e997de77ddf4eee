// Package grpcsvc реализует gRPC API маркетплейса поверх прикладных сервисов.
package grpcsvc

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/greenlogist/internal/api"
	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
	"github.com/vladislavdragonenkov/greenlogist/internal/service/idempotency"
	"github.com/vladislavdragonenkov/greenlogist/internal/service/reporting"
)

// MarketplaceService реализует MarketplaceServer.
type MarketplaceService struct {
	services api.Services
	logger   *log.Entry
}

// NewMarketplaceService конструирует сервис с зависимостями.
func NewMarketplaceService(services api.Services, logger *log.Entry) (*MarketplaceService, error) {
	if services.Placement == nil || services.Reporting == nil {
		return nil, errors.New("grpc marketplace service requires placement and reporting services")
	}
	if logger == nil {
		logger = log.WithField("component", "marketplace-grpc")
	}
	return &MarketplaceService{services: services, logger: logger}, nil
}

var _ MarketplaceServer = (*MarketplaceService)(nil)

// caller возвращает id вызывающего. Без AuthInterceptor вызов отклоняется.
func caller(ctx context.Context) (string, error) {
	identity, ok := IdentityFromContext(ctx)
	if !ok || identity.UserID == "" {
		return "", domain.NewError(domain.ErrInvalidCredentials, "request is not authenticated")
	}
	return identity.UserID, nil
}

func (s *MarketplaceService) PlaceOrder(ctx context.Context, req *api.PlaceOrderRequest) (*api.PlaceOrderResponse, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := api.RequireSelf(userID, req.ConsumerID); err != nil {
		return nil, err
	}

	resp, err := idempotency.Do(ctx, s.services.Idempotency, idempotencyKey(ctx), MethodPlaceOrder, req,
		func(ctx context.Context) (api.PlaceOrderResponse, error) {
			orderID, err := s.services.Placement.PlaceOrder(ctx, req.Command())
			if err != nil {
				return api.PlaceOrderResponse{}, err
			}
			return api.PlaceOrderResponse{OrderID: orderID}, nil
		})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *MarketplaceService) SolicitTransport(ctx context.Context, req *api.SolicitTransportRequest) (*api.SolicitTransportResponse, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := api.RequireSelf(userID, req.ProducerID); err != nil {
		return nil, err
	}
	cmd, err := req.Command()
	if err != nil {
		return nil, err
	}

	resp, err := idempotency.Do(ctx, s.services.Idempotency, idempotencyKey(ctx), MethodSolicitTransport, req,
		func(ctx context.Context) (api.SolicitTransportResponse, error) {
			id, err := s.services.Placement.SolicitTransport(ctx, cmd)
			if err != nil {
				return api.SolicitTransportResponse{}, err
			}
			return api.SolicitTransportResponse{ShippingRequestID: id}, nil
		})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *MarketplaceService) GetOrder(ctx context.Context, req *api.GetOrderRequest) (*api.OrderResponse, error) {
	order, err := s.participantOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	resp := api.NewOrderResponse(order)
	return &resp, nil
}

func (s *MarketplaceService) ListConsumerOrders(ctx context.Context, req *api.ListConsumerOrdersRequest) (*api.OrderListResponse, error) {
	if err := s.requireSelf(ctx, req.ConsumerID); err != nil {
		return nil, err
	}
	orders, err := s.services.Reporting.OrdersByConsumer(req.ConsumerID)
	if err != nil {
		return nil, err
	}
	resp := api.NewOrderList(orders)
	return &resp, nil
}

func (s *MarketplaceService) ListProducerOrders(ctx context.Context, req *api.ListProducerOrdersRequest) (*api.OrderListResponse, error) {
	if err := s.requireSelf(ctx, req.ProducerID); err != nil {
		return nil, err
	}
	orders, err := s.services.Reporting.OrdersByProducer(req.ProducerID)
	if err != nil {
		return nil, err
	}
	resp := api.NewOrderList(orders)
	return &resp, nil
}

func (s *MarketplaceService) UpdateOrderStatus(ctx context.Context, req *api.UpdateOrderStatusRequest) (*api.OrderResponse, error) {
	if err := s.requireSelf(ctx, req.ProducerID); err != nil {
		return nil, err
	}
	next, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		return nil, err
	}
	order, err := s.services.Placement.UpdateOrderStatus(ctx, req.OrderID, req.ProducerID, next)
	if err != nil {
		return nil, err
	}
	resp := api.NewOrderResponse(order)
	return &resp, nil
}

func (s *MarketplaceService) GetShippingHistory(ctx context.Context, req *api.GetShippingHistoryRequest) (*api.ShippingHistoryResponse, error) {
	if err := s.requireSelf(ctx, req.ProducerID); err != nil {
		return nil, err
	}
	entries, err := s.services.Reporting.ShippingHistory(req.ProducerID)
	if err != nil {
		return nil, err
	}
	resp := api.NewShippingHistory(entries)
	return &resp, nil
}

func (s *MarketplaceService) UpdateShippingStatus(ctx context.Context, req *api.UpdateShippingStatusRequest) (*api.ShippingRequestResponse, error) {
	if err := s.requireSelf(ctx, req.ProducerID); err != nil {
		return nil, err
	}
	next, err := domain.ParseShippingStatus(req.Status)
	if err != nil {
		return nil, err
	}
	request, err := s.services.Placement.UpdateShippingStatus(ctx, req.ShippingRequestID, req.ProducerID, next)
	if err != nil {
		return nil, err
	}
	resp := api.NewShippingRequestResponse(request, s.productName(request.ProductID))
	return &resp, nil
}

func (s *MarketplaceService) GetOrderTimeline(ctx context.Context, req *api.GetOrderTimelineRequest) (*api.TimelineResponse, error) {
	if _, err := s.participantOrder(ctx, req.OrderID); err != nil {
		return nil, err
	}
	events, err := s.services.Reporting.OrderTimeline(req.OrderID)
	if err != nil {
		return nil, err
	}
	resp := api.NewTimelineResponse(events)
	return &resp, nil
}

func (s *MarketplaceService) GetProducerStatistics(ctx context.Context, req *api.GetProducerStatisticsRequest) (*api.StatisticsResponse, error) {
	if err := s.requireSelf(ctx, req.ProducerID); err != nil {
		return nil, err
	}
	stats, err := s.services.Reporting.ProducerStatistics(req.ProducerID)
	if err != nil {
		return nil, err
	}
	resp := api.NewStatisticsResponse(stats)
	return &resp, nil
}

func (s *MarketplaceService) requireSelf(ctx context.Context, userID string) error {
	id, err := caller(ctx)
	if err != nil {
		return err
	}
	return api.RequireSelf(id, userID)
}

func (s *MarketplaceService) participantOrder(ctx context.Context, orderID string) (domain.Order, error) {
	id, err := caller(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	order, err := s.services.Reporting.GetOrder(orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if err := api.RequireParticipant(id, order); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (s *MarketplaceService) productName(productID string) string {
	if s.services.Catalog == nil {
		return reporting.UnknownProductName
	}
	product, err := s.services.Catalog.GetProduct(productID)
	if err != nil {
		if !errors.Is(err, domain.ErrProductNotFound) {
			s.logger.WithError(err).WithField("product_id", productID).Warn("failed to resolve product name")
		}
		return reporting.UnknownProductName
	}
	return product.Name
}
