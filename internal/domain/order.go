package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusPending — заказ размещён, остатки списаны, оплата ещё не подтверждена.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusPaid — оплата получена.
	OrderStatusPaid OrderStatus = "paid"
	// OrderStatusProcessing — производитель собирает заказ.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped — заказ передан в доставку.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered — заказ доставлен покупателю.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled — заказ отменён.
	OrderStatusCancelled OrderStatus = "cancelled"
	// OrderStatusCompleted — альтернативное финальное состояние (самовывоз, закрытие сделки).
	OrderStatusCompleted OrderStatus = "completed"
)

// orderTransitions — полная таблица разрешённых переходов.
// Финальные статусы (delivered, completed, cancelled) в таблице отсутствуют.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:       {OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCompleted, OrderStatusCancelled},
}

// ParseOrderStatus разбирает статус без учёта регистра.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusCompleted:
		return s, nil
	default:
		return "", NewError(ErrInvalidValue, "unknown order status %q", raw)
	}
}

// Terminal сообщает, что из статуса больше нет переходов.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusDelivered, OrderStatusCompleted, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo проверяет переход по таблице.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// OrderItem — снимок товара на момент покупки. После создания не меняется.
type OrderItem struct {
	ID          string
	ProductID   string
	ProductName string
	Quantity    Quantity
	UnitPrice   Price
}

// Subtotal возвращает quantity × unitPrice.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Quantity.Value.Mul(i.UnitPrice.Value)
}

// Order агрегирует позиции заказа и его статус.
type Order struct {
	ID          string
	ConsumerID  string
	ProducerID  string
	OrderDate   time.Time
	Status      OrderStatus
	TotalAmount decimal.Decimal
	Items       []OrderItem
	Version     int64
	UpdatedAt   time.Time
}

// NewOrder создаёт заказ в статусе pending и рассчитывает итог.
func NewOrder(id, consumerID, producerID string, items []OrderItem, now time.Time) (Order, error) {
	if strings.TrimSpace(consumerID) == "" {
		return Order{}, NewError(ErrInvalidValue, "consumer id is required")
	}
	if strings.TrimSpace(producerID) == "" {
		return Order{}, NewError(ErrInvalidValue, "producer id is required")
	}
	if len(items) == 0 {
		return Order{}, NewError(ErrItemsRequired, "")
	}
	owned := make([]OrderItem, len(items))
	copy(owned, items)
	o := Order{
		ID:         id,
		ConsumerID: consumerID,
		ProducerID: producerID,
		OrderDate:  now,
		Status:     OrderStatusPending,
		Items:      owned,
		UpdatedAt:  now,
	}
	o.TotalAmount = o.CalculateTotal()
	return o, nil
}

// CalculateTotal суммирует позиции заказа.
func (o Order) CalculateTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.ConsumerID == "" {
		errs = append(errs, NewError(ErrInvalidValue, "consumer id is required"))
	}
	if o.ProducerID == "" {
		errs = append(errs, NewError(ErrInvalidValue, "producer id is required"))
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	for _, item := range o.Items {
		if !item.Quantity.Value.IsPositive() {
			errs = append(errs, NewError(ErrNonPositiveAmount, "item %s quantity must be positive", item.ID))
		}
		if item.UnitPrice.Value.IsNegative() {
			errs = append(errs, NewError(ErrInvalidValue, "item %s price must be non-negative", item.ID))
		}
	}
	if !o.TotalAmount.Equal(o.CalculateTotal()) {
		errs = append(errs, NewError(ErrInvalidValue, "total amount %s does not match items sum %s", o.TotalAmount, o.CalculateTotal()))
	}

	return errs
}

// UpdateStatus переводит заказ в новый статус по таблице переходов.
func (o *Order) UpdateStatus(next OrderStatus, now time.Time) error {
	if o.Status.Terminal() {
		return NewError(ErrInvalidTransition, "order %s is %s and cannot change status", o.ID, o.Status)
	}
	if !o.Status.CanTransitionTo(next) {
		return NewError(ErrInvalidTransition, "order %s cannot move from %s to %s", o.ID, o.Status, next)
	}
	o.Status = next
	o.UpdatedAt = now
	return nil
}

// KilogramsSold суммирует количество позиций в килограммах.
func (o Order) KilogramsSold() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		if item.Quantity.SameUnit(UnitKilogram) {
			total = total.Add(item.Quantity.Value)
		}
	}
	return total
}
