package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/greenlogist/internal/api"
	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
	"github.com/vladislavdragonenkov/greenlogist/internal/service/idempotency"
	"github.com/vladislavdragonenkov/greenlogist/internal/service/reporting"
)

// fail отвечает ошибкой в формате api.ErrorResponse.
func (h *handler) fail(c *gin.Context, err error) {
	status := api.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).WithField("request_id", c.GetString(requestIDKey)).Error("request failed")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, api.NewErrorResponse(err))
}

// bind разбирает JSON-тело; ошибка разбора возвращается как InvalidValue.
func (h *handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.fail(c, domain.NewError(domain.ErrInvalidValue, "malformed request body: %v", err))
		return false
	}
	return true
}

// self пропускает запрос, только если :id совпадает с вызывающим.
func (h *handler) self(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if err := api.RequireSelf(callerID(c), id); err != nil {
		h.fail(c, err)
		return "", false
	}
	return id, true
}

// Auth.

func (h *handler) register(c *gin.Context) {
	var req api.RegisterRequest
	if !h.bind(c, &req) {
		return
	}
	id, err := h.services.Auth.Register(req.FullName, req.Email, req.Password, req.Role)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, api.RegisterResponse{UserID: id})
}

func (h *handler) login(c *gin.Context) {
	var req api.LoginRequest
	if !h.bind(c, &req) {
		return
	}
	token, err := h.services.Auth.Login(req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewTokenResponse(token))
}

func (h *handler) getProfile(c *gin.Context) {
	user, err := h.services.Auth.GetProfile(callerID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewProfileResponse(user))
}

func (h *handler) updateProfile(c *gin.Context) {
	var req api.ProfileUpdateRequest
	if !h.bind(c, &req) {
		return
	}
	user, err := h.services.Auth.UpdateProducerProfile(callerID(c), req.Update())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewProfileResponse(user))
}

// Catalog.

func (h *handler) createProduct(c *gin.Context) {
	var req api.ProductRequest
	if !h.bind(c, &req) {
		return
	}
	id, err := h.services.Catalog.RegisterProduct(callerID(c), req.Input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, api.CreatedResponse{ID: id})
}

func (h *handler) getProduct(c *gin.Context) {
	product, err := h.services.Catalog.GetProduct(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewProductResponse(product))
}

func (h *handler) updateProduct(c *gin.Context) {
	var req api.ProductRequest
	if !h.bind(c, &req) {
		return
	}
	product, err := h.services.Catalog.UpdateProductDetails(c.Param("id"), callerID(c), req.Input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewProductResponse(product))
}

func (h *handler) increaseStock(c *gin.Context) {
	var req api.StockIncreaseRequest
	if !h.bind(c, &req) {
		return
	}
	product, err := h.services.Catalog.IncreaseStock(c.Param("id"), callerID(c), req.Amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewProductResponse(product))
}

func (h *handler) deleteProduct(c *gin.Context) {
	if err := h.services.Catalog.DeleteProduct(c.Param("id"), callerID(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) listProducerProducts(c *gin.Context) {
	products, err := h.services.Catalog.ListByProducer(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewProductList(products))
}

func (h *handler) availableForTransport(c *gin.Context) {
	producerID, ok := h.self(c)
	if !ok {
		return
	}
	products, err := h.services.Catalog.AvailableForTransport(producerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewTransportableList(products))
}

// Orders.

func (h *handler) placeOrder(c *gin.Context) {
	var req api.PlaceOrderRequest
	if !h.bind(c, &req) {
		return
	}
	if err := api.RequireSelf(callerID(c), req.ConsumerID); err != nil {
		h.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	resp, err := idempotency.Do(ctx, h.services.Idempotency, c.GetHeader(IdempotencyKeyHeader), "POST /api/v1/orders", req,
		func(ctx context.Context) (api.PlaceOrderResponse, error) {
			orderID, err := h.services.Placement.PlaceOrder(ctx, req.Command())
			return api.PlaceOrderResponse{OrderID: orderID}, err
		})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *handler) participantOrder(c *gin.Context) (domain.Order, bool) {
	order, err := h.services.Reporting.GetOrder(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return domain.Order{}, false
	}
	if err := api.RequireParticipant(callerID(c), order); err != nil {
		h.fail(c, err)
		return domain.Order{}, false
	}
	return order, true
}

func (h *handler) getOrder(c *gin.Context) {
	order, ok := h.participantOrder(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, api.NewOrderResponse(order))
}

func (h *handler) orderTimeline(c *gin.Context) {
	order, ok := h.participantOrder(c)
	if !ok {
		return
	}
	events, err := h.services.Reporting.OrderTimeline(order.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewTimelineResponse(events))
}

func (h *handler) updateOrderStatus(c *gin.Context) {
	var req api.UpdateStatusRequest
	if !h.bind(c, &req) {
		return
	}
	next, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	order, err := h.services.Placement.UpdateOrderStatus(c.Request.Context(), c.Param("id"), callerID(c), next)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewOrderResponse(order))
}

func (h *handler) consumerOrders(c *gin.Context) {
	consumerID, ok := h.self(c)
	if !ok {
		return
	}
	orders, err := h.services.Reporting.OrdersByConsumer(consumerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewOrderList(orders))
}

func (h *handler) producerSales(c *gin.Context) {
	producerID, ok := h.self(c)
	if !ok {
		return
	}
	orders, err := h.services.Reporting.OrdersByProducer(producerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewOrderList(orders))
}

// Transport.

func (h *handler) solicitTransport(c *gin.Context) {
	var req api.SolicitTransportRequest
	if !h.bind(c, &req) {
		return
	}
	if err := api.RequireSelf(callerID(c), req.ProducerID); err != nil {
		h.fail(c, err)
		return
	}
	cmd, err := req.Command()
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	resp, err := idempotency.Do(ctx, h.services.Idempotency, c.GetHeader(IdempotencyKeyHeader), "POST /api/v1/transports", req,
		func(ctx context.Context) (api.SolicitTransportResponse, error) {
			id, err := h.services.Placement.SolicitTransport(ctx, cmd)
			return api.SolicitTransportResponse{ShippingRequestID: id}, err
		})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *handler) updateTransportStatus(c *gin.Context) {
	var req api.UpdateStatusRequest
	if !h.bind(c, &req) {
		return
	}
	next, err := domain.ParseShippingStatus(req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	request, err := h.services.Placement.UpdateShippingStatus(c.Request.Context(), c.Param("id"), callerID(c), next)
	if err != nil {
		h.fail(c, err)
		return
	}
	name := reporting.UnknownProductName
	if product, err := h.services.Catalog.GetProduct(request.ProductID); err == nil {
		name = product.Name
	}
	c.JSON(http.StatusOK, api.NewShippingRequestResponse(request, name))
}

func (h *handler) shippingHistory(c *gin.Context) {
	producerID, ok := h.self(c)
	if !ok {
		return
	}
	entries, err := h.services.Reporting.ShippingHistory(producerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewShippingHistory(entries))
}

// Reporting.

func (h *handler) statistics(c *gin.Context) {
	producerID, ok := h.self(c)
	if !ok {
		return
	}
	stats, err := h.services.Reporting.ProducerStatistics(producerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewStatisticsResponse(stats))
}

func (h *handler) dashboard(c *gin.Context) {
	producerID, ok := h.self(c)
	if !ok {
		return
	}
	summary, err := h.services.Reporting.DashboardSummary(producerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewDashboardResponse(summary))
}
