package placement_test

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
	"github.com/vladislavdragonenkov/greenlogist/internal/service/placement"
	"github.com/vladislavdragonenkov/greenlogist/internal/storage/memory"
)

var fixedNow = time.Date(2026, time.May, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *placement.Service
	users    domain.UserRepository
	products domain.ProductRepository
	orders   domain.OrderRepository
	shipping domain.ShippingRepository
	outbox   *memory.OutboxRepository
	timeline domain.TimelineRepository
}

type fixtureOption func(*domain.PlacementStore, *[]placement.Option)

func withStore(wrap func(domain.PlacementStore) domain.PlacementStore) fixtureOption {
	return func(store *domain.PlacementStore, _ *[]placement.Option) {
		*store = wrap(*store)
	}
}

func withServiceOptions(opts ...placement.Option) fixtureOption {
	return func(_ *domain.PlacementStore, options *[]placement.Option) {
		*options = append(*options, opts...)
	}
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	f := &fixture{
		users:    memory.NewUserRepository(),
		products: memory.NewProductRepository(),
		orders:   memory.NewOrderRepository(),
		shipping: memory.NewShippingRepository(),
		outbox:   memory.NewOutboxRepository(),
		timeline: memory.NewTimelineRepository(),
	}
	store := memory.NewPlacementStore(f.products, f.orders, f.shipping)

	var seq atomic.Int64
	options := []placement.Option{
		placement.WithClock(func() time.Time { return fixedNow }),
		placement.WithIDGenerator(func() string { return fmt.Sprintf("id-%d", seq.Add(1)) }),
		placement.WithRetryConfig(placement.RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, BackoffFactor: 2}),
	}
	for _, opt := range opts {
		opt(&store, &options)
	}

	svc, err := placement.NewService(placement.Dependencies{
		Users:    f.users,
		Products: f.products,
		Orders:   f.orders,
		Shipping: f.shipping,
		Store:    store,
		Outbox:   f.outbox,
		Timeline: f.timeline,
	}, options...)
	require.NoError(t, err)
	f.svc = svc

	f.addUser(t, "consumer-1", domain.UserRoleConsumer)
	f.addUser(t, "producer-1", domain.UserRoleProducer)
	f.addUser(t, "producer-2", domain.UserRoleProducer)
	f.addProduct(t, "tomatoes", "producer-1", "Tomatoes", "100", domain.UnitKilogram, "2.50")
	f.addProduct(t, "cucumbers", "producer-1", "Cucumbers", "50", domain.UnitKilogram, "1.20")
	f.addProduct(t, "eggs", "producer-1", "Eggs", "300", "pcs", "0.30")
	f.addProduct(t, "apples", "producer-2", "Apples", "40", domain.UnitKilogram, "3.00")
	return f
}

func (f *fixture) addUser(t *testing.T, id string, role domain.UserRole) {
	t.Helper()
	email, err := domain.NewEmail(id + "@greenlogist.test")
	require.NoError(t, err)
	user, err := domain.NewUser(id, "User "+id, email, domain.PasswordHash("hash"), role, fixedNow)
	require.NoError(t, err)
	require.NoError(t, f.users.Create(user))
}

func (f *fixture) addProduct(t *testing.T, id, producerID, name, stock, unit, price string) {
	t.Helper()
	qty, err := domain.NewQuantity(decimal.RequireFromString(stock), unit)
	require.NoError(t, err)
	p, err := domain.NewPrice(decimal.RequireFromString(price), "USD")
	require.NoError(t, err)
	product, err := domain.NewProduct(id, producerID, name, name+" grown locally", qty, p, fixedNow)
	require.NoError(t, err)
	require.NoError(t, f.products.Create(product))
}

func (f *fixture) stock(t *testing.T, productID string) decimal.Decimal {
	t.Helper()
	product, ok, err := f.products.Find(productID)
	require.NoError(t, err)
	require.True(t, ok, "product %s must exist", productID)
	return product.Quantity.Value
}

func line(productID, qty, unit, price string) placement.OrderLine {
	return placement.OrderLine{
		ProductID:         productID,
		QuantityValue:     decimal.RequireFromString(qty),
		QuantityUnit:      unit,
		UnitPriceValue:    decimal.RequireFromString(price),
		UnitPriceCurrency: "USD",
	}
}

func orderCommand(lines ...placement.OrderLine) placement.PlaceOrderCommand {
	return placement.PlaceOrderCommand{
		ConsumerID: "consumer-1",
		ProducerID: "producer-1",
		Items:      lines,
	}
}

func requireStock(t *testing.T, f *fixture, productID, want string) {
	t.Helper()
	got := f.stock(t, productID)
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("stock of %s: want %s, got %s", productID, want, got)
	}
}
