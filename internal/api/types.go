package api

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
	"github.com/vladislavdragonenkov/greenlogist/internal/service/auth"
	"github.com/vladislavdragonenkov/greenlogist/internal/service/catalog"
	"github.com/vladislavdragonenkov/greenlogist/internal/service/placement"
	"github.com/vladislavdragonenkov/greenlogist/internal/service/reporting"
)

// DateLayout — формат даты перевозки.
const DateLayout = "2006-01-02"

// Auth.

type RegisterRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type RegisterResponse struct {
	UserID string `json:"userId"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
	UserID      string    `json:"userId"`
	Role        string    `json:"role"`
}

type ProfileUpdateRequest struct {
	FullName        string  `json:"fullName"`
	Description     *string `json:"description,omitempty"`
	ProfileImageURL *string `json:"profileImageUrl,omitempty"`
	NewPassword     *string `json:"newPassword,omitempty"`
}

type ProfileResponse struct {
	ID              string `json:"id"`
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Role            string `json:"role"`
	Description     string `json:"description,omitempty"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
}

// Catalog.

type ProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Quantity    domain.Quantity `json:"quantity"`
	Price       domain.Price    `json:"price"`
}

type StockIncreaseRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type ProductResponse struct {
	ID          string          `json:"id"`
	ProducerID  string          `json:"producerId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Quantity    domain.Quantity `json:"quantity"`
	Price       domain.Price    `json:"price"`
	Version     int64           `json:"version"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type TransportableProductResponse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Quantity domain.Quantity `json:"quantity"`
}

type CreatedResponse struct {
	ID string `json:"id"`
}

// Orders.

type OrderLineRequest struct {
	ProductID string          `json:"productId"`
	Quantity  domain.Quantity `json:"quantity"`
	UnitPrice domain.Price    `json:"unitPrice"`
}

type PlaceOrderRequest struct {
	ConsumerID string             `json:"consumerId"`
	ProducerID string             `json:"producerId"`
	Items      []OrderLineRequest `json:"items"`
}

type PlaceOrderResponse struct {
	OrderID string `json:"orderId"`
}

type OrderItemResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    domain.Quantity `json:"quantity"`
	UnitPrice   domain.Price    `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type OrderResponse struct {
	ID          string              `json:"id"`
	ConsumerID  string              `json:"consumerId"`
	ProducerID  string              `json:"producerId"`
	OrderDate   time.Time           `json:"orderDate"`
	Status      string              `json:"status"`
	TotalAmount decimal.Decimal     `json:"totalAmount"`
	Items       []OrderItemResponse `json:"items"`
	Version     int64               `json:"version"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// Transport.

type SolicitTransportRequest struct {
	ProducerID          string          `json:"producerId"`
	ProductID           string          `json:"productId"`
	Quantity            domain.Quantity `json:"quantity"`
	Origin              domain.Location `json:"origin"`
	Destination         domain.Location `json:"destination"`
	RequiredDate        string          `json:"requiredDate"`
	SpecialInstructions string          `json:"specialInstructions,omitempty"`
}

type SolicitTransportResponse struct {
	ShippingRequestID string `json:"shippingRequestId"`
}

type ShippingRequestResponse struct {
	ID                  string          `json:"id"`
	ProducerID          string          `json:"producerId"`
	ProductID           string          `json:"productId"`
	ProductName         string          `json:"productName"`
	Quantity            domain.Quantity `json:"quantity"`
	Origin              domain.Location `json:"origin"`
	Destination         domain.Location `json:"destination"`
	RequiredDate        string          `json:"requiredDate"`
	SpecialInstructions string          `json:"specialInstructions,omitempty"`
	Status              string          `json:"status"`
	Version             int64           `json:"version"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

type ShippingHistoryResponse struct {
	Requests []ShippingRequestResponse `json:"requests"`
}

// Reporting.

type StatisticsResponse struct {
	TotalSalesCount            int             `json:"totalSalesCount"`
	TotalSalesAmount           decimal.Decimal `json:"totalSalesAmount"`
	TotalProductsSoldKg        decimal.Decimal `json:"totalProductsSoldKg"`
	TotalTransportRequests     int             `json:"totalTransportRequests"`
	CompletedTransportRequests int             `json:"completedTransportRequests"`
	TotalEnvironmentalImpact   decimal.Decimal `json:"totalEnvironmentalImpact"`
}

type DashboardResponse struct {
	RegisteredProductsCount  int             `json:"registeredProductsCount"`
	RequestedTransportsCount int             `json:"requestedTransportsCount"`
	CompletedOrdersCount     int             `json:"completedOrdersCount"`
	TotalSalesAmount         decimal.Decimal `json:"totalSalesAmount"`
	TotalProductsSoldKg      decimal.Decimal `json:"totalProductsSoldKg"`
	EnvironmentalImpact      decimal.Decimal `json:"environmentalImpact"`
}

type TimelineEventResponse struct {
	Type     string    `json:"type"`
	Reason   string    `json:"reason,omitempty"`
	Occurred time.Time `json:"occurred"`
}

type TimelineResponse struct {
	Events []TimelineEventResponse `json:"events"`
}

// Запросы, которые в HTTP передаются через путь.

type GetOrderRequest struct {
	OrderID string `json:"orderId"`
}

type ListConsumerOrdersRequest struct {
	ConsumerID string `json:"consumerId"`
}

type ListProducerOrdersRequest struct {
	ProducerID string `json:"producerId"`
}

type UpdateOrderStatusRequest struct {
	OrderID    string `json:"orderId"`
	ProducerID string `json:"producerId"`
	Status     string `json:"status"`
}

type GetShippingHistoryRequest struct {
	ProducerID string `json:"producerId"`
}

type UpdateShippingStatusRequest struct {
	ShippingRequestID string `json:"shippingRequestId"`
	ProducerID        string `json:"producerId"`
	Status            string `json:"status"`
}

type GetOrderTimelineRequest struct {
	OrderID string `json:"orderId"`
}

type GetProducerStatisticsRequest struct {
	ProducerID string `json:"producerId"`
}

// ParseDate разбирает дату перевозки: YYYY-MM-DD или RFC 3339.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, domain.NewError(domain.ErrInvalidValue, "requiredDate %q must be YYYY-MM-DD", raw)
}

// Command builders.

func (r PlaceOrderRequest) Command() placement.PlaceOrderCommand {
	items := make([]placement.OrderLine, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, placement.OrderLine{
			ProductID:         it.ProductID,
			QuantityValue:     it.Quantity.Value,
			QuantityUnit:      it.Quantity.Unit,
			UnitPriceValue:    it.UnitPrice.Value,
			UnitPriceCurrency: it.UnitPrice.Currency,
		})
	}
	return placement.PlaceOrderCommand{ConsumerID: r.ConsumerID, ProducerID: r.ProducerID, Items: items}
}

func (r SolicitTransportRequest) Command() (placement.SolicitTransportCommand, error) {
	date, err := ParseDate(r.RequiredDate)
	if err != nil {
		return placement.SolicitTransportCommand{}, err
	}
	return placement.SolicitTransportCommand{
		ProducerID:          r.ProducerID,
		ProductID:           r.ProductID,
		QuantityValue:       r.Quantity.Value,
		QuantityUnit:        r.Quantity.Unit,
		Origin:              r.Origin,
		Destination:         r.Destination,
		RequiredDate:        date,
		SpecialInstructions: r.SpecialInstructions,
	}, nil
}

func (r ProductRequest) Input() catalog.ProductInput {
	return catalog.ProductInput{
		Name:          r.Name,
		Description:   r.Description,
		QuantityValue: r.Quantity.Value,
		QuantityUnit:  r.Quantity.Unit,
		PriceValue:    r.Price.Value,
		PriceCurrency: r.Price.Currency,
	}
}

func (r ProfileUpdateRequest) Update() auth.ProfileUpdate {
	return auth.ProfileUpdate{
		FullName:        r.FullName,
		Description:     r.Description,
		ProfileImageURL: r.ProfileImageURL,
		NewPassword:     r.NewPassword,
	}
}

// Response builders.

func NewTokenResponse(t auth.Token) TokenResponse {
	return TokenResponse{
		AccessToken: t.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   t.ExpiresAt,
		UserID:      t.UserID,
		Role:        string(t.Role),
	}
}

func NewProfileResponse(u domain.User) ProfileResponse {
	return ProfileResponse{
		ID:              u.ID,
		FullName:        u.FullName,
		Email:           u.Email.String(),
		Role:            string(u.Role),
		Description:     u.Description,
		ProfileImageURL: u.ProfileImageURL,
	}
}

func NewProductResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		ProducerID:  p.ProducerID,
		Name:        p.Name,
		Description: p.Description,
		Quantity:    p.Quantity,
		Price:       p.Price,
		Version:     p.Version,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func NewProductList(products []domain.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, NewProductResponse(p))
	}
	return out
}

func NewTransportableList(products []catalog.TransportableProduct) []TransportableProductResponse {
	out := make([]TransportableProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, TransportableProductResponse{ID: p.ID, Name: p.Name, Quantity: p.Quantity})
	}
	return out
}

func NewOrderResponse(o domain.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal(),
		})
	}
	return OrderResponse{
		ID:          o.ID,
		ConsumerID:  o.ConsumerID,
		ProducerID:  o.ProducerID,
		OrderDate:   o.OrderDate,
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount,
		Items:       items,
		Version:     o.Version,
		UpdatedAt:   o.UpdatedAt,
	}
}

func NewOrderList(orders []domain.Order) OrderListResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, NewOrderResponse(o))
	}
	return OrderListResponse{Orders: out}
}

func NewShippingRequestResponse(r domain.ShippingRequest, productName string) ShippingRequestResponse {
	return ShippingRequestResponse{
		ID:                  r.ID,
		ProducerID:          r.ProducerID,
		ProductID:           r.ProductID,
		ProductName:         productName,
		Quantity:            r.Quantity,
		Origin:              r.Origin,
		Destination:         r.Destination,
		RequiredDate:        r.RequiredDate.Format(DateLayout),
		SpecialInstructions: r.SpecialInstructions,
		Status:              string(r.Status),
		Version:             r.Version,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func NewShippingHistory(entries []reporting.ShippingHistoryEntry) ShippingHistoryResponse {
	out := make([]ShippingRequestResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, NewShippingRequestResponse(e.Request, e.ProductName))
	}
	return ShippingHistoryResponse{Requests: out}
}

func NewStatisticsResponse(s domain.ProducerStatistics) StatisticsResponse {
	return StatisticsResponse{
		TotalSalesCount:            s.TotalSalesCount,
		TotalSalesAmount:           s.TotalSalesAmount,
		TotalProductsSoldKg:        s.TotalProductsSoldKg,
		TotalTransportRequests:     s.TotalTransportRequests,
		CompletedTransportRequests: s.CompletedTransportRequests,
		TotalEnvironmentalImpact:   s.TotalEnvironmentalImpact,
	}
}

func NewDashboardResponse(d domain.DashboardSummary) DashboardResponse {
	return DashboardResponse{
		RegisteredProductsCount:  d.RegisteredProductsCount,
		RequestedTransportsCount: d.RequestedTransportsCount,
		CompletedOrdersCount:     d.CompletedOrdersCount,
		TotalSalesAmount:         d.TotalSalesAmount,
		TotalProductsSoldKg:      d.TotalProductsSoldKg,
		EnvironmentalImpact:      d.EnvironmentalImpact,
	}
}

func NewTimelineResponse(events []domain.TimelineEvent) TimelineResponse {
	out := make([]TimelineEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, TimelineEventResponse{Type: e.Type, Reason: e.Reason, Occurred: e.Occurred})
	}
	return TimelineResponse{Events: out}
}

// Quantity собирает количество для запроса.
func Quantity(value decimal.Decimal, unit string) domain.Quantity {
	return domain.Quantity{Value: value, Unit: unit}
}

// Price собирает цену для запроса.
func Price(value decimal.Decimal, currency string) domain.Price {
	return domain.Price{Value: value, Currency: currency}
}
