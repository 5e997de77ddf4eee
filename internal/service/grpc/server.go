package grpcsvc

import (
	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/vladislavdragonenkov/greenlogist/internal/metrics"
)

// Server — собранный gRPC-сервер маркетплейса вместе с health-сервисом.
type Server struct {
	*grpc.Server
	Health  *health.Server
	Metrics *promgrpc.ServerMetrics
}

// NewServer регистрирует MarketplaceService, grpc health и reflection.
// Цепочка интерсепторов: prometheus, лог и маппинг ошибок, аутентификация.
func NewServer(svc MarketplaceServer, tokens TokenParser, logger *log.Entry, registerer prometheus.Registerer, opts ...grpc.ServerOption) *Server {
	serverMetrics := promgrpc.NewServerMetrics()
	serverMetrics.EnableHandlingTimeHistogram()
	grpcMetrics := metrics.Collector(registerer, "grpc_server", serverMetrics)

	opts = append(opts, grpc.ChainUnaryInterceptor(
		grpcMetrics.UnaryServerInterceptor(),
		ErrorInterceptor(logger),
		AuthInterceptor(tokens),
	))
	server := grpc.NewServer(opts...)
	RegisterMarketplaceServer(server, svc)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)

	// Register reflection service for grpcurl and load testing tools
	reflection.Register(server)
	grpcMetrics.InitializeMetrics(server)

	return &Server{Server: server, Health: healthServer, Metrics: grpcMetrics}
}

// Shutdown переводит health в NOT_SERVING перед остановкой.
func (s *Server) Shutdown() {
	s.Health.Shutdown()
	s.GracefulStop()
}
