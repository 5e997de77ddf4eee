package domain

import (
	"strings"
	"time"
)

// ShippingStatus описывает состояние заявки на перевозку.
type ShippingStatus string

const (
	// ShippingStatusPending — заявка создана и ждёт подтверждения.
	ShippingStatusPending ShippingStatus = "pending"
	// ShippingStatusScheduled — перевозка запланирована.
	ShippingStatusScheduled ShippingStatus = "scheduled"
	// ShippingStatusInProgress — груз в пути.
	ShippingStatusInProgress ShippingStatus = "in_progress"
	// ShippingStatusCompleted — груз доставлен.
	ShippingStatusCompleted ShippingStatus = "completed"
	// ShippingStatusCancelled — перевозка отменена.
	ShippingStatusCancelled ShippingStatus = "cancelled"
)

// shippingOrder задаёт порядок статусов: переходы разрешены только вперёд.
var shippingOrder = map[ShippingStatus]int{
	ShippingStatusPending:    0,
	ShippingStatusScheduled:  1,
	ShippingStatusInProgress: 2,
	ShippingStatusCompleted:  3,
	ShippingStatusCancelled:  4,
}

// ParseShippingStatus разбирает статус без учёта регистра.
func ParseShippingStatus(raw string) (ShippingStatus, error) {
	s := ShippingStatus(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := shippingOrder[s]; !ok {
		return "", NewError(ErrInvalidValue, "unknown shipping status %q", raw)
	}
	return s, nil
}

// Terminal сообщает, что заявка больше не меняется.
func (s ShippingStatus) Terminal() bool {
	return s == ShippingStatusCompleted || s == ShippingStatusCancelled
}

// ShippingRequest — заявка производителя на перевозку товара.
type ShippingRequest struct {
	ID                  string
	ProducerID          string
	ProductID           string
	Quantity            Quantity
	Origin              Location
	Destination         Location
	RequiredDate        time.Time
	SpecialInstructions string
	Status              ShippingStatus
	Version             int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewShippingRequest создаёт заявку в статусе pending.
// Дата перевозки сравнивается с текущей датой UTC без учёта времени.
func NewShippingRequest(id, producerID, productID string, qty Quantity, origin, destination Location, requiredDate time.Time, instructions string, now time.Time) (ShippingRequest, error) {
	if strings.TrimSpace(producerID) == "" {
		return ShippingRequest{}, NewError(ErrInvalidValue, "producer id is required")
	}
	if strings.TrimSpace(productID) == "" {
		return ShippingRequest{}, NewError(ErrInvalidValue, "product id is required")
	}
	if !qty.Value.IsPositive() {
		return ShippingRequest{}, NewError(ErrNonPositiveAmount, "quantity to transport must be positive")
	}
	if origin == (Location{}) || destination == (Location{}) {
		return ShippingRequest{}, NewError(ErrInvalidValue, "origin and destination are required")
	}
	if requiredDate.IsZero() || DateOnly(requiredDate).Before(DateOnly(now)) {
		return ShippingRequest{}, NewError(ErrPastRequiredDate, "required date %s is before %s", requiredDate.UTC().Format(time.DateOnly), now.UTC().Format(time.DateOnly))
	}
	return ShippingRequest{
		ID:                  id,
		ProducerID:          producerID,
		ProductID:           productID,
		Quantity:            qty,
		Origin:              origin,
		Destination:         destination,
		RequiredDate:        requiredDate.UTC(),
		SpecialInstructions: strings.TrimSpace(instructions),
		Status:              ShippingStatusPending,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

// UpdateStatus двигает заявку вперёд. Повторная установка текущего статуса ничего не меняет.
func (r *ShippingRequest) UpdateStatus(next ShippingStatus, now time.Time) error {
	if r.Status.Terminal() {
		return NewError(ErrInvalidTransition, "shipping request %s is %s and cannot change status", r.ID, r.Status)
	}
	nextRank, ok := shippingOrder[next]
	if !ok {
		return NewError(ErrInvalidValue, "unknown shipping status %q", next)
	}
	if nextRank < shippingOrder[r.Status] {
		return NewError(ErrInvalidTransition, "shipping request %s cannot move back from %s to %s", r.ID, r.Status, next)
	}
	if next == r.Status {
		return nil
	}
	r.Status = next
	r.UpdatedAt = now
	return nil
}

// DateOnly отбрасывает время, оставляя дату в UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
