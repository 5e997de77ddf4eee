// Package httpapi реализует REST API маркетплейса на gin.
package httpapi

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/greenlogist/internal/api"
)

// Config — параметры HTTP-слоя.
type Config struct {
	// AllowedOrigins — origin для CORS; пусто или "*" разрешает все.
	AllowedOrigins []string
	// RateLimitRPS — запросов в секунду на IP; 0 отключает ограничение.
	RateLimitRPS   float64
	RateLimitBurst int
}

type handler struct {
	services api.Services
	logger   *log.Entry
}

// NewRouter собирает gin.Engine со всеми маршрутами /api/v1.
func NewRouter(services api.Services, cfg Config, logger *log.Entry, registerer prometheus.Registerer) (*gin.Engine, error) {
	if services.Auth == nil || services.Catalog == nil || services.Placement == nil || services.Reporting == nil {
		return nil, errors.New("http api requires auth, catalog, placement and reporting services")
	}
	if logger == nil {
		logger = log.WithField("component", "http")
	}

	h := &handler{services: services, logger: logger}
	router := gin.New()
	router.Use(
		requestID(),
		recovery(logger),
		requestLogger(logger),
		newHTTPMetrics(registerer).instrument(),
		corsMiddleware(cfg.AllowedOrigins),
	)
	if cfg.RateLimitRPS > 0 {
		router.Use(newIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).middleware())
	}

	v1 := router.Group("/api/v1")
	v1.POST("/auth/register", h.register)
	v1.POST("/auth/login", h.login)

	protected := v1.Group("")
	protected.Use(authenticate(services.Auth))

	protected.GET("/producers/me/profile", h.getProfile)
	protected.PUT("/producers/me/profile", h.updateProfile)

	protected.POST("/products", h.createProduct)
	protected.GET("/products/:id", h.getProduct)
	protected.PUT("/products/:id", h.updateProduct)
	protected.POST("/products/:id/stock", h.increaseStock)
	protected.DELETE("/products/:id", h.deleteProduct)
	protected.GET("/producers/:id/products", h.listProducerProducts)
	protected.GET("/producers/:id/products/available-for-transport", h.availableForTransport)

	protected.POST("/orders", h.placeOrder)
	protected.GET("/orders/:id", h.getOrder)
	protected.GET("/orders/:id/timeline", h.orderTimeline)
	protected.PATCH("/orders/:id/status", h.updateOrderStatus)
	protected.GET("/consumers/:id/orders", h.consumerOrders)
	protected.GET("/producers/:id/sales", h.producerSales)

	protected.POST("/transports", h.solicitTransport)
	protected.PATCH("/transports/:id/status", h.updateTransportStatus)
	protected.GET("/producers/:id/transports", h.shippingHistory)

	protected.GET("/producers/:id/statistics", h.statistics)
	protected.GET("/producers/:id/dashboard", h.dashboard)

	return router, nil
}
