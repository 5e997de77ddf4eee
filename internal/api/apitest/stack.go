// Package apitest собирает маркетплейс на in-memory хранилищах для тестов транспортов.
package apitest

import (
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/vladislavdragonenkov/greenlogist/internal/api"
	"github.com/vladislavdragonenkov/greenlogist/internal/service/auth"
	"github.com/vladislavdragonenkov/greenlogist/internal/service/catalog"
	"github.com/vladislavdragonenkov/greenlogist/internal/service/idempotency"
	"github.com/vladislavdragonenkov/greenlogist/internal/service/placement"
	"github.com/vladislavdragonenkov/greenlogist/internal/service/reporting"
	"github.com/vladislavdragonenkov/greenlogist/internal/storage/memory"
)

// Secret — ключ подписи токенов в тестах.
const Secret = "test-secret"

// Account — зарегистрированный пользователь с выданным токеном.
type Account struct {
	ID    string
	Email string
	Token string
}

// Stack — сервисы и заранее созданные данные.
type Stack struct {
	Services api.Services
	Outbox   *memory.OutboxRepository

	Consumer      Account
	Producer      Account
	OtherProducer Account

	// Товары Producer: томаты 100 kg по 2.50 EUR и огурцы 50 kg по 1.20 EUR.
	Tomatoes  string
	Cucumbers string
	// Товар OtherProducer: яблоки 40 kg по 3.00 EUR.
	Apples string
}

// NewStack создаёт сервисы и наполняет каталог.
func NewStack(t testing.TB) *Stack {
	t.Helper()

	logger := log.WithField("component", "apitest")
	users := memory.NewUserRepository()
	products := memory.NewProductRepository()
	orders := memory.NewOrderRepository()
	shipping := memory.NewShippingRepository()
	outbox := memory.NewOutboxRepository()
	timeline := memory.NewTimelineRepository()

	authSvc, err := auth.NewService(users, auth.Config{Secret: Secret, TokenTTL: time.Hour, BcryptCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	placementSvc, err := placement.NewService(placement.Dependencies{
		Users:    users,
		Products: products,
		Orders:   orders,
		Shipping: shipping,
		Store:    memory.NewPlacementStore(products, orders, shipping),
		Outbox:   outbox,
		Timeline: timeline,
	}, placement.WithLogger(logger), placement.WithRetryConfig(placement.RetryConfig{
		MaxAttempts:   5,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2,
	}))
	if err != nil {
		t.Fatalf("placement service: %v", err)
	}

	s := &Stack{
		Services: api.Services{
			Auth:      authSvc,
			Catalog:   catalog.NewService(users, products, catalog.WithLogger(logger)),
			Placement: placementSvc,
			Reporting: reporting.NewService(users, products, orders, shipping, timeline, logger),
			Idempotency: idempotency.NewGuard(memory.NewIdempotencyRepository(), idempotency.GuardConfig{
				StatusOf: func(err error) int {
					if err == nil {
						return http.StatusOK
					}
					return api.HTTPStatus(err)
				},
				Logger: logger,
			}),
		},
		Outbox: outbox,
	}

	s.Consumer = s.account(t, "Olga Buyer", "olga@example.com", "consumer")
	s.Producer = s.account(t, "Ivan Farmer", "ivan@example.com", "producer")
	s.OtherProducer = s.account(t, "Anna Orchard", "anna@example.com", "producer")

	s.Tomatoes = s.product(t, s.Producer.ID, "Tomatoes", "100", "kg", "2.50")
	s.Cucumbers = s.product(t, s.Producer.ID, "Cucumbers", "50", "kg", "1.20")
	s.Apples = s.product(t, s.OtherProducer.ID, "Apples", "40", "kg", "3.00")
	return s
}

func (s *Stack) account(t testing.TB, name, email, role string) Account {
	t.Helper()
	id, err := s.Services.Auth.Register(name, email, "secret-password", role)
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	token, err := s.Services.Auth.Login(email, "secret-password")
	if err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	return Account{ID: id, Email: email, Token: token.AccessToken}
}

func (s *Stack) product(t testing.TB, producerID, name, qty, unit, price string) string {
	t.Helper()
	id, err := s.Services.Catalog.RegisterProduct(producerID, catalog.ProductInput{
		Name:          name,
		Description:   name + " from the farm",
		QuantityValue: decimal.RequireFromString(qty),
		QuantityUnit:  unit,
		PriceValue:    decimal.RequireFromString(price),
		PriceCurrency: "EUR",
	})
	if err != nil {
		t.Fatalf("register product %s: %v", name, err)
	}
	return id
}

// Stock возвращает текущий остаток товара.
func (s *Stack) Stock(t testing.TB, productID string) decimal.Decimal {
	t.Helper()
	product, err := s.Services.Catalog.GetProduct(productID)
	if err != nil {
		t.Fatalf("get product %s: %v", productID, err)
	}
	return product.Quantity.Value
}

// Line — позиция заказа по текущей цене каталога.
func Line(productID, qty, unit, price string) api.OrderLineRequest {
	return api.OrderLineRequest{
		ProductID: productID,
		Quantity:  api.Quantity(decimal.RequireFromString(qty), unit),
		UnitPrice: api.Price(decimal.RequireFromString(price), "EUR"),
	}
}

// FutureDate — дата перевозки через два дня.
func FutureDate() string {
	return time.Now().UTC().AddDate(0, 0, 2).Format(api.DateLayout)
}
