package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
)

func tomatoes(t *testing.T) domain.Product {
	t.Helper()
	qty, err := domain.NewQuantity(decimal.NewFromInt(100), "kg")
	require.NoError(t, err)
	price, err := domain.NewPrice(decimal.RequireFromString("2.50"), "USD")
	require.NoError(t, err)
	p, err := domain.NewProduct("product-1", "producer-1", "Tomatoes", "Fresh tomatoes", qty, price, time.Now())
	require.NoError(t, err)
	return p
}

func TestNewProduct_Validation(t *testing.T) {
	qty, _ := domain.NewQuantity(decimal.NewFromInt(1), "kg")
	price, _ := domain.NewPrice(decimal.NewFromInt(1), "USD")

	_, err := domain.NewProduct("p", "", "Tomatoes", "desc", qty, price, time.Now())
	require.ErrorIs(t, err, domain.ErrInvalidValue)

	_, err = domain.NewProduct("p", "producer", " ", "desc", qty, price, time.Now())
	require.ErrorIs(t, err, domain.ErrInvalidValue)

	_, err = domain.NewProduct("p", "producer", "Tomatoes", "", qty, price, time.Now())
	require.ErrorIs(t, err, domain.ErrInvalidValue)

	_, err = domain.NewProduct("p", "producer", "Tomatoes", "desc", domain.Quantity{}, price, time.Now())
	require.ErrorIs(t, err, domain.ErrInvalidValue)
}

func TestProductReduceAndIncrease(t *testing.T) {
	p := tomatoes(t)

	require.NoError(t, p.ReduceQuantity(decimal.NewFromInt(30)))
	require.True(t, p.Quantity.Value.Equal(decimal.NewFromInt(70)))

	require.ErrorIs(t, p.ReduceQuantity(decimal.NewFromInt(80)), domain.ErrInsufficientStock)
	require.True(t, p.Quantity.Value.Equal(decimal.NewFromInt(70)), "failed reduce must not change stock")

	require.NoError(t, p.IncreaseQuantity(decimal.NewFromInt(5)))
	require.True(t, p.Quantity.Value.Equal(decimal.NewFromInt(75)))
	require.ErrorIs(t, p.IncreaseQuantity(decimal.Zero), domain.ErrNonPositiveAmount)
}

func TestSameName(t *testing.T) {
	require.True(t, domain.SameName("Tomatoes", " tomatoes "))
	require.False(t, domain.SameName("Tomatoes", "Potatoes"))
}

func TestMergeReservations(t *testing.T) {
	merged, err := domain.MergeReservations([]domain.StockReservation{
		{ProductID: "a", Amount: decimal.NewFromInt(10), Unit: "kg", ExpectedVersion: 3},
		{ProductID: "b", Amount: decimal.NewFromInt(1), Unit: "box"},
		{ProductID: "a", Amount: decimal.NewFromInt(5), Unit: "KG", ExpectedVersion: 3},
		{ProductID: "b", Amount: decimal.NewFromInt(2), Unit: "box", ExpectedVersion: 7},
	})
	require.NoError(t, err)

	require.Len(t, merged, 2)
	require.Equal(t, "a", merged[0].ProductID)
	require.True(t, merged[0].Amount.Equal(decimal.NewFromInt(15)))
	require.Equal(t, int64(3), merged[0].ExpectedVersion)
	require.Equal(t, "b", merged[1].ProductID)
	require.True(t, merged[1].Amount.Equal(decimal.NewFromInt(3)))
	require.Equal(t, int64(7), merged[1].ExpectedVersion, "a zero version takes the checked one")
}

func TestMergeReservations_RejectsDisagreement(t *testing.T) {
	_, err := domain.MergeReservations([]domain.StockReservation{
		{ProductID: "a", Amount: decimal.NewFromInt(10), Unit: "kg", ExpectedVersion: 3},
		{ProductID: "a", Amount: decimal.NewFromInt(5), Unit: "kg", ExpectedVersion: 4},
	})
	require.ErrorIs(t, err, domain.ErrStockConflict)

	_, err = domain.MergeReservations([]domain.StockReservation{
		{ProductID: "a", Amount: decimal.NewFromInt(10), Unit: "kg"},
		{ProductID: "a", Amount: decimal.NewFromInt(5), Unit: "box"},
	})
	require.ErrorIs(t, err, domain.ErrUnitMismatch)
}

func TestApplyReservation(t *testing.T) {
	p := tomatoes(t)
	p.Version = 2
	now := time.Now()

	updated, err := domain.ApplyReservation(p, domain.StockReservation{ProductID: p.ID, Amount: decimal.NewFromInt(30), Unit: "KG", ExpectedVersion: 2}, now)
	require.NoError(t, err)
	require.True(t, updated.Quantity.Value.Equal(decimal.NewFromInt(70)))
	require.True(t, p.Quantity.Value.Equal(decimal.NewFromInt(100)), "input product must not change")

	_, err = domain.ApplyReservation(p, domain.StockReservation{ProductID: p.ID, Amount: decimal.NewFromInt(1), Unit: "kg", ExpectedVersion: 1}, now)
	require.ErrorIs(t, err, domain.ErrStockConflict)
	require.True(t, domain.IsKind(err, domain.KindConcurrency))

	_, err = domain.ApplyReservation(p, domain.StockReservation{ProductID: p.ID, Amount: decimal.NewFromInt(1), Unit: "box"}, now)
	require.ErrorIs(t, err, domain.ErrUnitMismatch)

	_, err = domain.ApplyReservation(p, domain.StockReservation{ProductID: p.ID, Amount: decimal.NewFromInt(101), Unit: "kg"}, now)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
}
