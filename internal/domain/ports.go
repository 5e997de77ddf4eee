package domain

import (
	"encoding/json"
	"time"
)

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// TimelineRepository хранит события жизненного цикла заказов и перевозок.
type TimelineRepository interface {
	Append(event TimelineEvent) error
	List(aggregateID string) ([]TimelineEvent, error)
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
type IdempotencyRepository interface {
	CreateProcessing(key, requestHash string, ttlAt time.Time) (IdempotencyRecord, error)
	Get(key string) (IdempotencyRecord, error)
	MarkDone(key string, responseBody []byte, httpStatus int) error
	MarkFailed(key string, responseBody []byte, httpStatus int) error
	// Release удаляет ключ, чтобы повтор с ним выполнил запрос заново.
	Release(key string) error
	DeleteExpired(before time.Time, limit int) (int, error)
}

// Типы агрегатов и событий, попадающих в outbox.
const (
	AggregateOrder    = "order"
	AggregateShipping = "shipping_request"

	EventOrderPlaced            = "order.placed"
	EventOrderStatusChanged     = "order.status_changed"
	EventTransportRequested     = "transport.requested"
	EventTransportStatusChanged = "transport.status_changed"
)

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}

// DeadLetter — тело сообщения в DLQ: исходное событие и причина, по которой его не удалось доставить.
type DeadLetter struct {
	OutboxID       string          `json:"outbox_id"`
	AggregateType  string          `json:"aggregate_type"`
	AggregateID    string          `json:"aggregate_id"`
	EventType      string          `json:"event_type"`
	Payload        json.RawMessage `json:"payload"`
	PublishError   string          `json:"publish_error"`
	DLQPublishedAt time.Time       `json:"dlq_published_at"`
}

// NewDeadLetter упаковывает недоставленное событие.
func NewDeadLetter(msg OutboxMessage, publishErr error, at time.Time) DeadLetter {
	payload := json.RawMessage(msg.Payload)
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	dl := DeadLetter{
		OutboxID:       msg.ID,
		AggregateType:  msg.AggregateType,
		AggregateID:    msg.AggregateID,
		EventType:      msg.EventType,
		Payload:        payload,
		DLQPublishedAt: at.UTC(),
	}
	if publishErr != nil {
		dl.PublishError = publishErr.Error()
	}
	return dl
}

// Message восстанавливает исходное outbox-сообщение для повторной публикации.
func (d DeadLetter) Message() OutboxMessage {
	return OutboxMessage{
		ID:            d.OutboxID,
		AggregateType: d.AggregateType,
		AggregateID:   d.AggregateID,
		EventType:     d.EventType,
		Payload:       []byte(d.Payload),
	}
}
