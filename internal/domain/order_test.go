package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
)

// helper для создания позиции заказа.
func makeItem(t *testing.T, id string, qty, price string, unit string) domain.OrderItem {
	t.Helper()
	q, err := domain.NewQuantity(decimal.RequireFromString(qty), unit)
	if err != nil {
		t.Fatalf("quantity: %v", err)
	}
	p, err := domain.NewPrice(decimal.RequireFromString(price), "usd")
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	return domain.OrderItem{ID: id, ProductID: "product-" + id, ProductName: "Tomatoes", Quantity: q, UnitPrice: p}
}

func makeOrder(t *testing.T) domain.Order {
	t.Helper()
	order, err := domain.NewOrder("order-1", "consumer-1", "producer-1", []domain.OrderItem{
		makeItem(t, "1", "30", "2.50", "kg"),
		makeItem(t, "2", "4", "1.25", "box"),
	}, time.Now().UTC())
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	return order
}

func TestNewOrder_TotalAmountIsSumOfItems(t *testing.T) {
	order := makeOrder(t)

	want := decimal.RequireFromString("80.00")
	if !order.TotalAmount.Equal(want) {
		t.Fatalf("total = %s, want %s", order.TotalAmount, want)
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("status = %s, want pending", order.Status)
	}
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestNewOrder_RequiresItems(t *testing.T) {
	_, err := domain.NewOrder("order-1", "consumer-1", "producer-1", nil, time.Now())
	if !errors.Is(err, domain.ErrItemsRequired) {
		t.Fatalf("expected ErrItemsRequired, got %v", err)
	}
}

func TestNewOrder_ItemsAreSnapshotted(t *testing.T) {
	items := []domain.OrderItem{makeItem(t, "1", "1", "2.50", "kg")}
	order, err := domain.NewOrder("order-1", "consumer-1", "producer-1", items, time.Now())
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}

	items[0].UnitPrice.Value = decimal.NewFromInt(100)
	if !order.Items[0].UnitPrice.Value.Equal(decimal.RequireFromString("2.50")) {
		t.Fatal("order items must not share the caller's slice")
	}
}

func TestOrderValidateInvariants_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(o *domain.Order)
	}{
		{
			name: "no consumer",
			mut: func(o *domain.Order) {
				o.ConsumerID = ""
			},
		},
		{
			name: "total mismatch",
			mut: func(o *domain.Order) {
				o.TotalAmount = decimal.NewFromInt(1)
			},
		},
		{
			name: "no items",
			mut: func(o *domain.Order) {
				o.Items = nil
			},
		},
		{
			name: "zero qty",
			mut: func(o *domain.Order) {
				o.Items[0].Quantity.Value = decimal.Zero
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := makeOrder(t)
			tc.mut(&order)
			if errs := order.ValidateInvariants(); len(errs) == 0 {
				t.Fatalf("expected validation errors for %s", tc.name)
			}
		})
	}
}

func TestOrderUpdateStatus_TransitionTable(t *testing.T) {
	cases := []struct {
		from    domain.OrderStatus
		to      domain.OrderStatus
		allowed bool
	}{
		{domain.OrderStatusPending, domain.OrderStatusPaid, true},
		{domain.OrderStatusPending, domain.OrderStatusCancelled, true},
		{domain.OrderStatusPending, domain.OrderStatusShipped, false},
		{domain.OrderStatusPending, domain.OrderStatusPending, false},
		{domain.OrderStatusPaid, domain.OrderStatusPaid, false},
		{domain.OrderStatusPaid, domain.OrderStatusProcessing, true},
		{domain.OrderStatusPaid, domain.OrderStatusCompleted, true},
		{domain.OrderStatusProcessing, domain.OrderStatusPaid, false},
		{domain.OrderStatusProcessing, domain.OrderStatusDelivered, false},
		{domain.OrderStatusProcessing, domain.OrderStatusShipped, true},
		{domain.OrderStatusShipped, domain.OrderStatusDelivered, true},
		{domain.OrderStatusShipped, domain.OrderStatusCancelled, true},
		{domain.OrderStatusDelivered, domain.OrderStatusCompleted, false},
		{domain.OrderStatusCompleted, domain.OrderStatusCancelled, false},
		{domain.OrderStatusCancelled, domain.OrderStatusPending, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			order := makeOrder(t)
			order.Status = tc.from

			err := order.UpdateStatus(tc.to, time.Now())
			if tc.allowed {
				if err != nil {
					t.Fatalf("expected transition to be allowed, got %v", err)
				}
				if order.Status != tc.to {
					t.Fatalf("status = %s, want %s", order.Status, tc.to)
				}
				return
			}
			if !errors.Is(err, domain.ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition, got %v", err)
			}
			if !domain.IsKind(err, domain.KindState) {
				t.Fatalf("expected state error kind, got %v", err)
			}
			if order.Status != tc.from {
				t.Fatal("status must not change on rejected transition")
			}
		})
	}
}

func TestParseOrderStatus(t *testing.T) {
	status, err := domain.ParseOrderStatus(" Delivered ")
	if err != nil || status != domain.OrderStatusDelivered {
		t.Fatalf("ParseOrderStatus() = %s, %v", status, err)
	}
	if _, err := domain.ParseOrderStatus("lost"); !errors.Is(err, domain.ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestOrderKilogramsSold(t *testing.T) {
	order, err := domain.NewOrder("order-1", "consumer-1", "producer-1", []domain.OrderItem{
		makeItem(t, "1", "30", "2.50", "KG"),
		makeItem(t, "2", "12.5", "1", "kg"),
		makeItem(t, "3", "4", "1", "box"),
	}, time.Now())
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	if got := order.KilogramsSold(); !got.Equal(decimal.RequireFromString("42.5")) {
		t.Fatalf("KilogramsSold() = %s, want 42.5", got)
	}
}
