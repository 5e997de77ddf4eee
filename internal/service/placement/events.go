package placement

import (
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
)

// OrderPlacedPayload — тело события order.placed.
type OrderPlacedPayload struct {
	OrderID     string    `json:"order_id"`
	ConsumerID  string    `json:"consumer_id"`
	ProducerID  string    `json:"producer_id"`
	TotalAmount string    `json:"total_amount"`
	Items       int       `json:"items"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// TransportRequestedPayload — тело события transport.requested.
type TransportRequestedPayload struct {
	RequestID    string    `json:"request_id"`
	ProducerID   string    `json:"producer_id"`
	ProductID    string    `json:"product_id"`
	Quantity     string    `json:"quantity"`
	RequiredDate string    `json:"required_date"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// StatusChangedPayload — тело событий order.status_changed и transport.status_changed.
type StatusChangedPayload struct {
	AggregateID string    `json:"aggregate_id"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	ChangedBy   string    `json:"changed_by"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// emitEvent ставит событие в outbox и добавляет запись в timeline.
// Сбой публикации не отменяет уже зафиксированное изменение и только логируется.
func (s *Service) emitEvent(aggregateType, aggregateID, eventType, reason string, occurred time.Time, payload any) {
	fields := log.Fields{
		"aggregate_id": aggregateID,
		"event":        eventType,
	}

	if s.outbox != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			s.logger.WithError(err).WithFields(fields).Error("marshal event failed")
		} else {
			msg := domain.OutboxMessage{
				AggregateType: aggregateType,
				AggregateID:   aggregateID,
				EventType:     eventType,
				Payload:       data,
			}
			if _, err := s.outbox.Enqueue(msg); err != nil {
				s.logger.WithError(err).WithFields(fields).Error("enqueue event failed")
			} else {
				s.metrics.RecordOutboxEvent()
			}
		}
	}

	if s.timeline != nil {
		event := domain.TimelineEvent{
			AggregateID: aggregateID,
			Type:        eventType,
			Reason:      reason,
			Occurred:    occurred,
		}
		if err := s.timeline.Append(event); err != nil {
			s.logger.WithError(err).WithFields(fields).Warn("append timeline event failed")
		} else {
			s.metrics.RecordTimelineEvent()
		}
	}
}
