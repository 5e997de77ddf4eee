package catalog_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
	"github.com/vladislavdragonenkov/greenlogist/internal/service/catalog"
	"github.com/vladislavdragonenkov/greenlogist/internal/storage/memory"
)

var fixedNow = time.Date(2026, time.March, 3, 8, 0, 0, 0, time.UTC)

func newCatalog(t *testing.T) (*catalog.Service, domain.ProductRepository) {
	t.Helper()
	users := memory.NewUserRepository()
	products := memory.NewProductRepository()

	for id, role := range map[string]domain.UserRole{
		"producer-1": domain.UserRoleProducer,
		"producer-2": domain.UserRoleProducer,
		"consumer-1": domain.UserRoleConsumer,
	} {
		email, err := domain.NewEmail(id + "@greenlogist.test")
		require.NoError(t, err)
		user, err := domain.NewUser(id, "User "+id, email, domain.PasswordHash("hash"), role, fixedNow)
		require.NoError(t, err)
		require.NoError(t, users.Create(user))
	}

	seq := 0
	svc := catalog.NewService(users, products,
		catalog.WithClock(func() time.Time { return fixedNow }),
		catalog.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("product-%d", seq)
		}),
	)
	return svc, products
}

func input(name, qty, unit, price string) catalog.ProductInput {
	return catalog.ProductInput{
		Name:          name,
		Description:   name + " from the valley",
		QuantityValue: decimal.RequireFromString(qty),
		QuantityUnit:  unit,
		PriceValue:    decimal.RequireFromString(price),
		PriceCurrency: "usd",
	}
}

func TestRegisterProduct(t *testing.T) {
	svc, _ := newCatalog(t)

	id, err := svc.RegisterProduct("producer-1", input("Tomatoes", "100", "KG", "2.50"))
	require.NoError(t, err)

	product, err := svc.GetProduct(id)
	require.NoError(t, err)
	assert.Equal(t, "producer-1", product.ProducerID)
	assert.Equal(t, "kg", product.Quantity.Unit)
	assert.Equal(t, "USD", product.Price.Currency)
	assert.Equal(t, fixedNow, product.CreatedAt)
}

func TestRegisterProductRejections(t *testing.T) {
	svc, _ := newCatalog(t)
	_, err := svc.RegisterProduct("producer-1", input("Tomatoes", "100", "kg", "2.50"))
	require.NoError(t, err)

	tests := []struct {
		name       string
		producerID string
		in         catalog.ProductInput
		wantErr    error
	}{
		{"consumer cannot register", "consumer-1", input("Pears", "1", "kg", "1"), domain.ErrInvalidActor},
		{"unknown producer", "ghost", input("Pears", "1", "kg", "1"), domain.ErrInvalidActor},
		{"duplicate name ignoring case", "producer-1", input("  tomatoes ", "1", "kg", "1"), domain.ErrDuplicateProductName},
		{"negative quantity", "producer-1", input("Pears", "-1", "kg", "1"), domain.ErrInvalidValue},
		{"empty name", "producer-1", input("", "1", "kg", "1"), domain.ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RegisterProduct(tt.producerID, tt.in)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err = svc.RegisterProduct("producer-2", input("Tomatoes", "5", "kg", "3"))
	require.NoError(t, err, "other producers may reuse the name")
}

func TestUpdateProductDetails(t *testing.T) {
	svc, _ := newCatalog(t)
	tomatoes, err := svc.RegisterProduct("producer-1", input("Tomatoes", "100", "kg", "2.50"))
	require.NoError(t, err)
	_, err = svc.RegisterProduct("producer-1", input("Cucumbers", "50", "kg", "1.20"))
	require.NoError(t, err)

	updated, err := svc.UpdateProductDetails(tomatoes, "producer-1", input("TOMATOES", "80", "kg", "2.75"))
	require.NoError(t, err)
	assert.Equal(t, "TOMATOES", updated.Name)
	assert.True(t, updated.Price.Value.Equal(decimal.RequireFromString("2.75")))

	_, err = svc.UpdateProductDetails(tomatoes, "producer-1", input("cucumbers", "80", "kg", "2.75"))
	require.ErrorIs(t, err, domain.ErrDuplicateProductName)

	_, err = svc.UpdateProductDetails(tomatoes, "producer-2", input("Tomatoes", "80", "kg", "2.75"))
	require.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = svc.UpdateProductDetails(tomatoes, "producer-1", input("Tomatoes", "80", "kg", "2.75"))
	require.NoError(t, err, "a saved product can be updated again with the returned version")
}

func TestIncreaseStock(t *testing.T) {
	svc, _ := newCatalog(t)
	id, err := svc.RegisterProduct("producer-1", input("Tomatoes", "10", "kg", "2.50"))
	require.NoError(t, err)

	product, err := svc.IncreaseStock(id, "producer-1", decimal.NewFromInt(15))
	require.NoError(t, err)
	assert.True(t, product.Quantity.Value.Equal(decimal.NewFromInt(25)))

	_, err = svc.IncreaseStock(id, "producer-1", decimal.Zero)
	require.ErrorIs(t, err, domain.ErrNonPositiveAmount)

	_, err = svc.IncreaseStock(id, "producer-2", decimal.NewFromInt(1))
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestDeleteProduct(t *testing.T) {
	svc, _ := newCatalog(t)
	id, err := svc.RegisterProduct("producer-1", input("Tomatoes", "10", "kg", "2.50"))
	require.NoError(t, err)

	require.ErrorIs(t, svc.DeleteProduct(id, "producer-2"), domain.ErrProductNotFound)
	require.NoError(t, svc.DeleteProduct(id, "producer-1"))

	_, err = svc.GetProduct(id)
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestAvailableForTransport(t *testing.T) {
	svc, products := newCatalog(t)
	_, err := svc.RegisterProduct("producer-1", input("Tomatoes", "10", "kg", "2.50"))
	require.NoError(t, err)
	empty, err := svc.RegisterProduct("producer-1", input("Basil", "3", "bunch", "1"))
	require.NoError(t, err)
	require.NoError(t, products.ReserveStock([]domain.StockReservation{{
		ProductID: empty,
		Amount:    decimal.NewFromInt(3),
		Unit:      "bunch",
	}}))

	available, err := svc.AvailableForTransport("producer-1")
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "Tomatoes", available[0].Name)
	assert.Equal(t, "kg", available[0].Quantity.Unit)

	all, err := svc.ListByProducer("producer-1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Basil", all[0].Name)
}
