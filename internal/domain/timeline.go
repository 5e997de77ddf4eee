package domain

import (
	"strings"
	"time"
)

// TimelineEvent описывает событие в жизненном цикле заказа или заявки на перевозку.
type TimelineEvent struct {
	AggregateID string
	Type        string
	Reason      string
	Occurred    time.Time
}

// NormalizeTimelineEvent проверяет событие перед записью в историю.
// Пустое время заменяется на now, время приводится к UTC.
func NormalizeTimelineEvent(event TimelineEvent, now time.Time) (TimelineEvent, error) {
	event.AggregateID = strings.TrimSpace(event.AggregateID)
	event.Type = strings.TrimSpace(event.Type)
	event.Reason = strings.TrimSpace(event.Reason)
	if event.AggregateID == "" {
		return TimelineEvent{}, NewError(ErrInvalidValue, "timeline event needs an aggregate id")
	}
	if event.Type == "" {
		return TimelineEvent{}, NewError(ErrInvalidValue, "timeline event for %s needs a type", event.AggregateID)
	}
	if event.Occurred.IsZero() {
		event.Occurred = now
	}
	event.Occurred = event.Occurred.UTC()
	return event, nil
}
