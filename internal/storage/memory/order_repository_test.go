package memory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
	"github.com/vladislavdragonenkov/greenlogist/internal/storage/memory"
)

func TestOrderRepository_CreateGet(t *testing.T) {
	repo := memory.NewOrderRepository()
	order := newOrder(t, "order-1", time.Now().UTC(), "10")

	if err := repo.Create(order); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.Create(order); !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("expected version conflict on duplicate id, got %v", err)
	}

	stored, err := repo.Get(order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !stored.TotalAmount.Equal(order.TotalAmount) {
		t.Fatalf("expected total %s, got %s", order.TotalAmount, stored.TotalAmount)
	}

	if _, err := repo.Get("missing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderRepository_ListNewestFirst(t *testing.T) {
	repo := memory.NewOrderRepository()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"order-a", "order-b", "order-c"} {
		if err := repo.Create(newOrder(t, id, base.Add(time.Duration(i)*time.Hour), "1")); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	byConsumer, err := repo.ListByConsumer("consumer-1")
	if err != nil {
		t.Fatalf("list by consumer: %v", err)
	}
	if len(byConsumer) != 3 || byConsumer[0].ID != "order-c" || byConsumer[2].ID != "order-a" {
		t.Fatalf("unexpected order: %+v", byConsumer)
	}

	byProducer, err := repo.ListByProducer("producer-1")
	if err != nil {
		t.Fatalf("list by producer: %v", err)
	}
	if len(byProducer) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(byProducer))
	}

	other, err := repo.ListByConsumer("consumer-2")
	if err != nil {
		t.Fatalf("list other consumer: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected empty list, got %d", len(other))
	}
}

func TestOrderRepository_SaveOptimisticLocking(t *testing.T) {
	repo := memory.NewOrderRepository()
	order := newOrder(t, "order-1", time.Now().UTC(), "1")
	if err := repo.Create(order); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	first, _ := repo.Get(order.ID)
	second, _ := repo.Get(order.ID)

	if err := first.UpdateStatus(domain.OrderStatusPaid, time.Now().UTC()); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := repo.Save(first); err != nil {
		t.Fatalf("save first: %v", err)
	}

	if err := second.UpdateStatus(domain.OrderStatusCancelled, time.Now().UTC()); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := repo.Save(second); !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	stored, _ := repo.Get(order.ID)
	if stored.Status != domain.OrderStatusPaid || stored.Version != 1 {
		t.Fatalf("unexpected stored order: status=%s version=%d", stored.Status, stored.Version)
	}
}

func TestOrderRepository_ReturnsCopies(t *testing.T) {
	repo := memory.NewOrderRepository()
	order := newOrder(t, "order-1", time.Now().UTC(), "1")
	if err := repo.Create(order); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stored, _ := repo.Get(order.ID)
	stored.Items[0].ProductName = "Mutated"

	again, _ := repo.Get(order.ID)
	if again.Items[0].ProductName != "Tomatoes" {
		t.Fatalf("stored order was mutated through returned copy")
	}
}
