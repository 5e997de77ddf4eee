// Package catalog управляет каталогом товаров производителей.
package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
)

// ProductInput — поля товара, которые задаёт производитель.
type ProductInput struct {
	Name          string
	Description   string
	QuantityValue decimal.Decimal
	QuantityUnit  string
	PriceValue    decimal.Decimal
	PriceCurrency string
}

func (in ProductInput) values() (domain.Quantity, domain.Price, error) {
	qty, err := domain.NewQuantity(in.QuantityValue, in.QuantityUnit)
	if err != nil {
		return domain.Quantity{}, domain.Price{}, err
	}
	price, err := domain.NewPrice(in.PriceValue, in.PriceCurrency)
	if err != nil {
		return domain.Quantity{}, domain.Price{}, err
	}
	return qty, price, nil
}

// TransportableProduct — товар с ненулевым остатком, доступный для заявки на перевозку.
type TransportableProduct struct {
	ID       string
	Name     string
	Quantity domain.Quantity
}

// Option настраивает Service.
type Option func(*Service)

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator подменяет генератор идентификаторов.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// Service — операции производителя над своим каталогом.
type Service struct {
	users    domain.UserRepository
	products domain.ProductRepository
	logger   *log.Entry
	now      func() time.Time
	newID    func() string
}

// NewService создаёт сервис каталога.
func NewService(users domain.UserRepository, products domain.ProductRepository, options ...Option) *Service {
	s := &Service{
		users:    users,
		products: products,
		logger:   log.WithField("component", "catalog"),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// RegisterProduct добавляет товар в каталог производителя.
// Название уникально в пределах производителя без учёта регистра.
func (s *Service) RegisterProduct(producerID string, in ProductInput) (string, error) {
	producerID = strings.TrimSpace(producerID)
	if err := s.requireProducer(producerID); err != nil {
		return "", err
	}
	qty, price, err := in.values()
	if err != nil {
		return "", err
	}
	taken, err := s.products.ExistsByNameForProducer(in.Name, producerID)
	if err != nil {
		return "", err
	}
	if taken {
		return "", domain.NewError(domain.ErrDuplicateProductName, "product %q already exists", strings.TrimSpace(in.Name))
	}

	product, err := domain.NewProduct(s.newID(), producerID, in.Name, in.Description, qty, price, s.now())
	if err != nil {
		return "", err
	}
	if err := s.products.Create(product); err != nil {
		return "", err
	}

	s.logger.WithFields(log.Fields{
		"product_id":  product.ID,
		"producer_id": producerID,
	}).Info("product registered")
	return product.ID, nil
}

// UpdateProductDetails заменяет описание, остаток и цену товара.
func (s *Service) UpdateProductDetails(productID, producerID string, in ProductInput) (domain.Product, error) {
	product, err := s.ownedProduct(productID, producerID)
	if err != nil {
		return domain.Product{}, err
	}
	qty, price, err := in.values()
	if err != nil {
		return domain.Product{}, err
	}
	if !domain.SameName(product.Name, in.Name) {
		taken, err := s.products.ExistsByNameForProducer(in.Name, producerID)
		if err != nil {
			return domain.Product{}, err
		}
		if taken {
			return domain.Product{}, domain.NewError(domain.ErrDuplicateProductName, "product %q already exists", strings.TrimSpace(in.Name))
		}
	}
	if err := product.UpdateDetails(in.Name, in.Description, qty, price, s.now()); err != nil {
		return domain.Product{}, err
	}
	return s.save(product)
}

// IncreaseStock пополняет остаток товара.
func (s *Service) IncreaseStock(productID, producerID string, amount decimal.Decimal) (domain.Product, error) {
	product, err := s.ownedProduct(productID, producerID)
	if err != nil {
		return domain.Product{}, err
	}
	if err := product.IncreaseQuantity(amount); err != nil {
		return domain.Product{}, err
	}
	product.UpdatedAt = s.now()
	return s.save(product)
}

// GetProduct возвращает товар по идентификатору.
func (s *Service) GetProduct(productID string) (domain.Product, error) {
	product, ok, err := s.products.Find(strings.TrimSpace(productID))
	if err != nil {
		return domain.Product{}, err
	}
	if !ok {
		return domain.Product{}, domain.NewError(domain.ErrProductNotFound, "product %s", productID)
	}
	return product, nil
}

// ListByProducer возвращает каталог производителя, отсортированный по названию.
func (s *Service) ListByProducer(producerID string) ([]domain.Product, error) {
	return s.products.ListByProducer(strings.TrimSpace(producerID))
}

// DeleteProduct удаляет товар. Удалить можно только свой товар.
func (s *Service) DeleteProduct(productID, producerID string) error {
	product, err := s.ownedProduct(productID, producerID)
	if err != nil {
		return err
	}
	if err := s.products.Delete(product.ID); err != nil {
		return err
	}
	s.logger.WithField("product_id", product.ID).Info("product deleted")
	return nil
}

// AvailableForTransport возвращает товары производителя с положительным остатком.
func (s *Service) AvailableForTransport(producerID string) ([]TransportableProduct, error) {
	products, err := s.ListByProducer(producerID)
	if err != nil {
		return nil, err
	}
	available := make([]TransportableProduct, 0, len(products))
	for _, p := range products {
		if !p.Quantity.Value.IsPositive() {
			continue
		}
		available = append(available, TransportableProduct{ID: p.ID, Name: p.Name, Quantity: p.Quantity})
	}
	return available, nil
}

func (s *Service) requireProducer(producerID string) error {
	user, ok, err := s.users.Find(producerID)
	if err != nil {
		return err
	}
	if !ok || !user.HasRole(domain.UserRoleProducer) {
		return domain.NewError(domain.ErrInvalidActor, "producer %q not found", producerID)
	}
	return nil
}

// ownedProduct скрывает чужие товары так же, как отсутствующие.
func (s *Service) ownedProduct(productID, producerID string) (domain.Product, error) {
	product, ok, err := s.products.Find(strings.TrimSpace(productID))
	if err != nil {
		return domain.Product{}, err
	}
	if !ok || !product.BelongsTo(strings.TrimSpace(producerID)) {
		return domain.Product{}, domain.NewError(domain.ErrProductNotFound, "product %s not found for producer %s", productID, producerID)
	}
	return product, nil
}

func (s *Service) save(product domain.Product) (domain.Product, error) {
	if err := s.products.Save(product); err != nil {
		return domain.Product{}, err
	}
	product.Version++
	return product, nil
}
