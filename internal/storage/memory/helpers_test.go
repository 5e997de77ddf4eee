package memory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
)

func kg(t *testing.T, value string) domain.Quantity {
	t.Helper()
	q, err := domain.NewQuantity(decimal.RequireFromString(value), domain.UnitKilogram)
	require.NoError(t, err)
	return q
}

func usd(t *testing.T, value string) domain.Price {
	t.Helper()
	p, err := domain.NewPrice(decimal.RequireFromString(value), "USD")
	require.NoError(t, err)
	return p
}

func newProduct(t *testing.T, id, producerID, name, stock string) domain.Product {
	t.Helper()
	p, err := domain.NewProduct(id, producerID, name, name+" from the farm", kg(t, stock), usd(t, "2.50"), time.Now().UTC())
	require.NoError(t, err)
	return p
}

func newOrder(t *testing.T, id string, orderDate time.Time, qty string) domain.Order {
	t.Helper()
	order, err := domain.NewOrder(id, "consumer-1", "producer-1", []domain.OrderItem{
		{ID: id + "-item", ProductID: "product-1", ProductName: "Tomatoes", Quantity: kg(t, qty), UnitPrice: usd(t, "2.50")},
	}, orderDate)
	require.NoError(t, err)
	return order
}

func reserve(productID, amount string, version int64) domain.StockReservation {
	return domain.StockReservation{
		ProductID:       productID,
		Amount:          decimal.RequireFromString(amount),
		Unit:            domain.UnitKilogram,
		ExpectedVersion: version,
	}
}
