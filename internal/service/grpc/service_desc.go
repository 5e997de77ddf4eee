package grpcsvc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/vladislavdragonenkov/greenlogist/internal/api"
)

// ServiceName — полное имя gRPC-сервиса маркетплейса.
const ServiceName = "greenlogist.v1.MarketplaceService"

// Полные имена методов, как они видны интерсепторам.
const (
	MethodPlaceOrder            = "/" + ServiceName + "/PlaceOrder"
	MethodSolicitTransport      = "/" + ServiceName + "/SolicitTransport"
	MethodGetOrder              = "/" + ServiceName + "/GetOrder"
	MethodListConsumerOrders    = "/" + ServiceName + "/ListConsumerOrders"
	MethodListProducerOrders    = "/" + ServiceName + "/ListProducerOrders"
	MethodUpdateOrderStatus     = "/" + ServiceName + "/UpdateOrderStatus"
	MethodGetShippingHistory    = "/" + ServiceName + "/GetShippingHistory"
	MethodUpdateShippingStatus  = "/" + ServiceName + "/UpdateShippingStatus"
	MethodGetOrderTimeline      = "/" + ServiceName + "/GetOrderTimeline"
	MethodGetProducerStatistics = "/" + ServiceName + "/GetProducerStatistics"
)

// MarketplaceServer — серверная сторона greenlogist.v1.MarketplaceService.
type MarketplaceServer interface {
	PlaceOrder(context.Context, *api.PlaceOrderRequest) (*api.PlaceOrderResponse, error)
	SolicitTransport(context.Context, *api.SolicitTransportRequest) (*api.SolicitTransportResponse, error)
	GetOrder(context.Context, *api.GetOrderRequest) (*api.OrderResponse, error)
	ListConsumerOrders(context.Context, *api.ListConsumerOrdersRequest) (*api.OrderListResponse, error)
	ListProducerOrders(context.Context, *api.ListProducerOrdersRequest) (*api.OrderListResponse, error)
	UpdateOrderStatus(context.Context, *api.UpdateOrderStatusRequest) (*api.OrderResponse, error)
	GetShippingHistory(context.Context, *api.GetShippingHistoryRequest) (*api.ShippingHistoryResponse, error)
	UpdateShippingStatus(context.Context, *api.UpdateShippingStatusRequest) (*api.ShippingRequestResponse, error)
	GetOrderTimeline(context.Context, *api.GetOrderTimelineRequest) (*api.TimelineResponse, error)
	GetProducerStatistics(context.Context, *api.GetProducerStatisticsRequest) (*api.StatisticsResponse, error)
}

// RegisterMarketplaceServer регистрирует реализацию на gRPC-сервере.
func RegisterMarketplaceServer(registrar grpc.ServiceRegistrar, srv MarketplaceServer) {
	registrar.RegisterService(&marketplaceServiceDesc, srv)
}

var marketplaceServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MarketplaceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "PlaceOrder", Handler: unary(MethodPlaceOrder, MarketplaceServer.PlaceOrder)},
		{MethodName: "SolicitTransport", Handler: unary(MethodSolicitTransport, MarketplaceServer.SolicitTransport)},
		{MethodName: "GetOrder", Handler: unary(MethodGetOrder, MarketplaceServer.GetOrder)},
		{MethodName: "ListConsumerOrders", Handler: unary(MethodListConsumerOrders, MarketplaceServer.ListConsumerOrders)},
		{MethodName: "ListProducerOrders", Handler: unary(MethodListProducerOrders, MarketplaceServer.ListProducerOrders)},
		{MethodName: "UpdateOrderStatus", Handler: unary(MethodUpdateOrderStatus, MarketplaceServer.UpdateOrderStatus)},
		{MethodName: "GetShippingHistory", Handler: unary(MethodGetShippingHistory, MarketplaceServer.GetShippingHistory)},
		{MethodName: "UpdateShippingStatus", Handler: unary(MethodUpdateShippingStatus, MarketplaceServer.UpdateShippingStatus)},
		{MethodName: "GetOrderTimeline", Handler: unary(MethodGetOrderTimeline, MarketplaceServer.GetOrderTimeline)},
		{MethodName: "GetProducerStatistics", Handler: unary(MethodGetProducerStatistics, MarketplaceServer.GetProducerStatistics)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "greenlogist/v1/marketplace",
}

// unary строит grpc.MethodHandler для метода с запросом Req и ответом Resp.
func unary[Req, Resp any](fullMethod string, call func(MarketplaceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(MarketplaceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(MarketplaceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
