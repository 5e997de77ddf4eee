package grpcsvc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/vladislavdragonenkov/greenlogist/internal/api"
)

// MarketplaceClient — клиент greenlogist.v1.MarketplaceService с JSON-кодеком.
type MarketplaceClient struct {
	cc grpc.ClientConnInterface
}

// NewMarketplaceClient оборачивает соединение.
func NewMarketplaceClient(cc grpc.ClientConnInterface) *MarketplaceClient {
	return &MarketplaceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MarketplaceClient) PlaceOrder(ctx context.Context, in *api.PlaceOrderRequest, opts ...grpc.CallOption) (*api.PlaceOrderResponse, error) {
	return invoke[api.PlaceOrderResponse](ctx, c.cc, MethodPlaceOrder, in, opts)
}

func (c *MarketplaceClient) SolicitTransport(ctx context.Context, in *api.SolicitTransportRequest, opts ...grpc.CallOption) (*api.SolicitTransportResponse, error) {
	return invoke[api.SolicitTransportResponse](ctx, c.cc, MethodSolicitTransport, in, opts)
}

func (c *MarketplaceClient) GetOrder(ctx context.Context, in *api.GetOrderRequest, opts ...grpc.CallOption) (*api.OrderResponse, error) {
	return invoke[api.OrderResponse](ctx, c.cc, MethodGetOrder, in, opts)
}

func (c *MarketplaceClient) ListConsumerOrders(ctx context.Context, in *api.ListConsumerOrdersRequest, opts ...grpc.CallOption) (*api.OrderListResponse, error) {
	return invoke[api.OrderListResponse](ctx, c.cc, MethodListConsumerOrders, in, opts)
}

func (c *MarketplaceClient) ListProducerOrders(ctx context.Context, in *api.ListProducerOrdersRequest, opts ...grpc.CallOption) (*api.OrderListResponse, error) {
	return invoke[api.OrderListResponse](ctx, c.cc, MethodListProducerOrders, in, opts)
}

func (c *MarketplaceClient) UpdateOrderStatus(ctx context.Context, in *api.UpdateOrderStatusRequest, opts ...grpc.CallOption) (*api.OrderResponse, error) {
	return invoke[api.OrderResponse](ctx, c.cc, MethodUpdateOrderStatus, in, opts)
}

func (c *MarketplaceClient) GetShippingHistory(ctx context.Context, in *api.GetShippingHistoryRequest, opts ...grpc.CallOption) (*api.ShippingHistoryResponse, error) {
	return invoke[api.ShippingHistoryResponse](ctx, c.cc, MethodGetShippingHistory, in, opts)
}

func (c *MarketplaceClient) UpdateShippingStatus(ctx context.Context, in *api.UpdateShippingStatusRequest, opts ...grpc.CallOption) (*api.ShippingRequestResponse, error) {
	return invoke[api.ShippingRequestResponse](ctx, c.cc, MethodUpdateShippingStatus, in, opts)
}

func (c *MarketplaceClient) GetOrderTimeline(ctx context.Context, in *api.GetOrderTimelineRequest, opts ...grpc.CallOption) (*api.TimelineResponse, error) {
	return invoke[api.TimelineResponse](ctx, c.cc, MethodGetOrderTimeline, in, opts)
}

func (c *MarketplaceClient) GetProducerStatistics(ctx context.Context, in *api.GetProducerStatisticsRequest, opts ...grpc.CallOption) (*api.StatisticsResponse, error) {
	return invoke[api.StatisticsResponse](ctx, c.cc, MethodGetProducerStatistics, in, opts)
}
