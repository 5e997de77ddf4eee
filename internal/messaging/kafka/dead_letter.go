package kafka

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
)

// ErrNotDeadLetter — сообщение в DLQ-топике не похоже на недоставленное outbox-событие.
var ErrNotDeadLetter = errors.New("message is not a dead letter")

// DecodeDeadLetter разбирает сообщение из TopicDeadLetterQueue: конверт Envelope,
// в payload которого лежит domain.DeadLetter.
func DecodeDeadLetter(value []byte) (domain.DeadLetter, error) {
	var envelope Envelope
	if err := json.Unmarshal(value, &envelope); err != nil {
		return domain.DeadLetter{}, fmt.Errorf("%w: %v", ErrNotDeadLetter, err)
	}
	if len(envelope.Payload) == 0 || string(envelope.Payload) == "null" {
		return domain.DeadLetter{}, ErrNotDeadLetter
	}

	var letter domain.DeadLetter
	if err := json.Unmarshal(envelope.Payload, &letter); err != nil {
		return domain.DeadLetter{}, fmt.Errorf("decode dead letter payload: %w", err)
	}
	if len(letter.Payload) == 0 {
		return domain.DeadLetter{}, errors.New("dead letter does not contain the original event payload")
	}

	// Поля конверта совпадают с исходным событием и заполняют пробелы в теле.
	if letter.OutboxID == "" {
		letter.OutboxID = envelope.ID
	}
	if letter.AggregateType == "" {
		letter.AggregateType = envelope.AggregateType
	}
	if letter.AggregateID == "" {
		letter.AggregateID = envelope.AggregateID
	}
	if letter.EventType == "" {
		letter.EventType = envelope.EventType
	}
	return letter, nil
}
