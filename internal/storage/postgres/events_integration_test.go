package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
)

func TestOutboxRepository_PostgresFlow(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOutboxRepository(store)

	first, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: domain.AggregateOrder,
		AggregateID:   "order-1",
		EventType:     domain.EventOrderPlaced,
		Payload:       []byte(`{"id":"order-1"}`),
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected generated id")
	}
	if _, err := repo.Enqueue(domain.OutboxMessage{ID: "fixed", AggregateType: domain.AggregateShipping, AggregateID: "ship-1", EventType: domain.EventTransportRequested}); err != nil {
		t.Fatalf("enqueue fixed id: %v", err)
	}

	pending, err := repo.PullPending(0)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != first.ID {
		t.Fatalf("unexpected pending messages: %+v", pending)
	}

	stats, err := repo.Stats()
	if err != nil || stats.PendingCount != 2 || stats.OldestPendingAt.IsZero() {
		t.Fatalf("unexpected stats: %+v err=%v", stats, err)
	}

	if err := repo.MarkSent(first.ID); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	if err := repo.MarkFailed("fixed"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if err := repo.MarkSent("missing"); !errors.Is(err, domain.ErrOutboxPublish) {
		t.Fatalf("expected ErrOutboxPublish, got %v", err)
	}

	stats, _ = repo.Stats()
	if stats.PendingCount != 0 {
		t.Fatalf("expected empty backlog, got %d", stats.PendingCount)
	}
}

func TestTimelineRepository_PostgresAppendAndList(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewTimelineRepository(store)
	base := time.Now().UTC().Round(time.Microsecond)

	if err := repo.Append(domain.TimelineEvent{AggregateID: "order-1", Type: "paid", Occurred: base.Add(time.Second)}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := repo.Append(domain.TimelineEvent{AggregateID: "order-1", Type: "placed", Occurred: base}); err != nil {
		t.Fatalf("append: %v", err)
	}

	events, err := repo.List("order-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 2 || events[0].Type != "placed" || events[1].Type != "paid" {
		t.Fatalf("unexpected events: %+v", events)
	}

	empty, err := repo.List("missing")
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected no events, got %+v err=%v", empty, err)
	}
}

func TestIdempotencyRepository_PostgresLifecycle(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewIdempotencyRepository(store)
	ttl := time.Now().UTC().Add(time.Hour).Round(time.Microsecond)

	if _, err := repo.CreateProcessing("key-1", "hash-a", ttl); err != nil {
		t.Fatalf("create processing: %v", err)
	}
	if _, err := repo.CreateProcessing("key-1", "hash-a", ttl); !errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}
	if _, err := repo.CreateProcessing("key-1", "hash-b", ttl); !errors.Is(err, domain.ErrIdempotencyHashMismatch) {
		t.Fatalf("expected hash mismatch, got %v", err)
	}

	if err := repo.MarkDone("key-1", []byte(`{"ok":true}`), 200); err != nil {
		t.Fatalf("mark done: %v", err)
	}
	record, err := repo.Get("key-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.Status != domain.IdempotencyStatusDone || record.HTTPStatus != 200 || string(record.ResponseBody) != `{"ok":true}` {
		t.Fatalf("unexpected record: %+v", record)
	}

	if _, err := repo.CreateProcessing("key-expired", "hash", time.Now().UTC().Add(-time.Minute)); err != nil {
		t.Fatalf("create expired: %v", err)
	}
	if _, err := repo.CreateProcessing("key-expired", "hash-new", ttl); err != nil {
		t.Fatalf("expected expired key to be reclaimed, got %v", err)
	}
	if _, err := repo.CreateProcessing("key-old", "hash", time.Now().UTC().Add(-time.Minute)); err != nil {
		t.Fatalf("create old: %v", err)
	}

	removed, err := repo.DeleteExpired(time.Now().UTC(), 10)
	if err != nil || removed != 1 {
		t.Fatalf("expected one removed record, got %d err=%v", removed, err)
	}
	if _, err := repo.Get("key-old"); !errors.Is(err, domain.ErrIdempotencyKeyNotFound) {
		t.Fatalf("expected key-old to be gone, got %v", err)
	}

	if _, err := repo.CreateProcessing("key-conflict", "hash", ttl); err != nil {
		t.Fatalf("create key-conflict: %v", err)
	}
	if err := repo.Release("key-conflict"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := repo.CreateProcessing("key-conflict", "hash", ttl); err != nil {
		t.Fatalf("released key must be reusable, got %v", err)
	}
	if err := repo.Release("key-missing"); !errors.Is(err, domain.ErrIdempotencyKeyNotFound) {
		t.Fatalf("expected not found on release of unknown key, got %v", err)
	}
}
