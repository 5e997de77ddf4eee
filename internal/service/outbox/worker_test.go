package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
	"github.com/vladislavdragonenkov/greenlogist/internal/storage/memory"
)

func newTestWorker(repo domain.OutboxRepository, publisher domain.OutboxPublisher, options ...Option) *Worker {
	options = append([]Option{WithRegisterer(prometheus.NewRegistry()), WithRetryBaseDelay(0)}, options...)
	return NewWorker(repo, publisher, options...)
}

func enqueue(t *testing.T, repo domain.OutboxRepository, aggregateID string) domain.OutboxMessage {
	t.Helper()
	msg, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: domain.AggregateOrder,
		AggregateID:   aggregateID,
		EventType:     domain.EventOrderPlaced,
		Payload:       []byte(`{"order_id":"` + aggregateID + `"}`),
	})
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	return msg
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	metric := &dto.Metric{}
	if err := g.Write(metric); err != nil {
		t.Fatalf("failed to write gauge: %v", err)
	}
	return metric.GetGauge().GetValue()
}

func TestWorker_ProcessOnce_MarkSent(t *testing.T) {
	t.Parallel()

	repo := memory.NewOutboxRepository()
	enqueue(t, repo, "order-1")
	enqueue(t, repo, "order-2")
	publisher := &stubPublisher{}

	worker := newTestWorker(repo, publisher, WithMaxAttempts(3))
	result := worker.ProcessOnce(context.Background())

	if result.Sent != 2 || result.Failed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got := len(repo.AllPending()); got != 0 {
		t.Fatalf("expected empty backlog, got %d pending", got)
	}
	if got := publisher.published(); len(got) != 2 || got[0] != "order-1" || got[1] != "order-2" {
		t.Fatalf("expected events in enqueue order, got %v", got)
	}
	if got := gaugeValue(t, worker.metrics.pending); got != 0 {
		t.Fatalf("expected pending gauge 0, got %f", got)
	}
}

func TestWorker_ProcessOnce_MarkFailedAndDLQAfterRetries(t *testing.T) {
	t.Parallel()

	repo := memory.NewOutboxRepository()
	msg := enqueue(t, repo, "order-2")
	publisher := &stubPublisher{err: errors.New("broker unavailable")}
	dlqPublisher := &stubPublisher{}

	worker := newTestWorker(repo, publisher, WithDLQPublisher(dlqPublisher), WithMaxAttempts(3))
	result := worker.ProcessOnce(context.Background())

	if result.Failed != 1 || result.Sent != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got := publisher.calls(); got != 3 {
		t.Fatalf("expected 3 publish attempts, got %d", got)
	}
	if got := dlqPublisher.calls(); got != 1 {
		t.Fatalf("expected 1 DLQ publish, got %d", got)
	}
	dlqEvent := dlqPublisher.lastEvent()
	if dlqEvent.ID != msg.ID {
		t.Fatalf("expected DLQ event %s, got %s", msg.ID, dlqEvent.ID)
	}
	var letter domain.DeadLetter
	if err := json.Unmarshal(dlqEvent.Payload, &letter); err != nil {
		t.Fatalf("decode dead letter: %v", err)
	}
	if !strings.HasSuffix(letter.PublishError, "broker unavailable") || letter.Message().ID != msg.ID {
		t.Fatalf("unexpected dead letter: %+v", letter)
	}
	if string(letter.Payload) != string(msg.Payload) {
		t.Fatalf("dead letter must keep the original payload, got %s", letter.Payload)
	}
	if got := len(repo.AllPending()); got != 0 {
		t.Fatalf("failed event must leave the backlog, got %d pending", got)
	}
}

func TestWorker_ProcessOnce_SuccessAfterRetry(t *testing.T) {
	t.Parallel()

	repo := memory.NewOutboxRepository()
	enqueue(t, repo, "order-3")
	publisher := &stubPublisher{
		sequenceErrors: []error{errors.New("attempt 1"), errors.New("attempt 2"), nil},
	}

	worker := newTestWorker(repo, publisher, WithMaxAttempts(3))
	result := worker.ProcessOnce(context.Background())

	if got := publisher.calls(); got != 3 {
		t.Fatalf("expected 3 publish attempts, got %d", got)
	}
	if result.Sent != 1 {
		t.Fatalf("expected 1 sent event, got %+v", result)
	}
}

func TestWorker_ProcessOnce_RespectsBatchSize(t *testing.T) {
	t.Parallel()

	repo := memory.NewOutboxRepository()
	for _, id := range []string{"a", "b", "c"} {
		enqueue(t, repo, id)
	}
	worker := newTestWorker(repo, &stubPublisher{}, WithBatchSize(2))

	if result := worker.ProcessOnce(context.Background()); result.Sent != 2 {
		t.Fatalf("expected 2 sent events, got %+v", result)
	}
	if got := gaugeValue(t, worker.metrics.pending); got != 1 {
		t.Fatalf("expected pending gauge 1, got %f", got)
	}
}

func TestWorker_ProcessOnce_PullError(t *testing.T) {
	t.Parallel()

	worker := newTestWorker(failingRepo{}, &stubPublisher{})
	if result := worker.ProcessOnce(context.Background()); result != (Result{}) {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestWorker_RetryBackoffIsCapped(t *testing.T) {
	t.Parallel()

	worker := newTestWorker(failingRepo{}, &stubPublisher{}, WithRetryBaseDelay(time.Second))
	if got := worker.retryBackoff(1); got != time.Second {
		t.Fatalf("expected 1s for first retry, got %s", got)
	}
	if got := worker.retryBackoff(3); got != 4*time.Second {
		t.Fatalf("expected 4s for third retry, got %s", got)
	}
	if got := worker.retryBackoff(100); got != maxRetryDelay {
		t.Fatalf("expected capped delay, got %s", got)
	}
}

func TestWorker_Run_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	worker := newTestWorker(memory.NewOutboxRepository(), &stubPublisher{}, WithPollInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	time.Sleep(15 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
}

type failingRepo struct{}

func (failingRepo) Enqueue(msg domain.OutboxMessage) (domain.OutboxMessage, error) { return msg, nil }
func (failingRepo) PullPending(int) ([]domain.OutboxMessage, error) {
	return nil, errors.New("database is down")
}
func (failingRepo) Stats() (domain.OutboxStats, error) { return domain.OutboxStats{}, nil }
func (failingRepo) MarkSent(string) error { return nil }
func (failingRepo) MarkFailed(string) error { return nil }

type stubPublisher struct {
	mu             sync.Mutex
	err            error
	sequenceErrors []error
	events         []domain.OutboxMessage
}

func (s *stubPublisher) Publish(event domain.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, event)
	if len(s.sequenceErrors) > 0 {
		err := s.sequenceErrors[0]
		s.sequenceErrors = s.sequenceErrors[1:]
		return err
	}
	return s.err
}

func (s *stubPublisher) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func (s *stubPublisher) published() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.events))
	for _, e := range s.events {
		ids = append(ids, e.AggregateID)
	}
	return ids
}

func (s *stubPublisher) lastEvent() domain.OutboxMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return domain.OutboxMessage{}
	}
	return s.events[len(s.events)-1]
}

var _ domain.OutboxRepository = failingRepo{}
var _ domain.OutboxPublisher = (*stubPublisher)(nil)
