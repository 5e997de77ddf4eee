package memory

import (
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
)

// placementStore реализует reserve-then-commit поверх in-memory репозиториев:
// остатки списываются атомарно, затем сохраняется агрегат; при ошибке сохранения резерв снимается.
type placementStore struct {
	products domain.ProductRepository
	orders   domain.OrderRepository
	shipping domain.ShippingRepository
}

// NewPlacementStore связывает каталог с хранилищами заказов и перевозок.
func NewPlacementStore(products domain.ProductRepository, orders domain.OrderRepository, shipping domain.ShippingRepository) domain.PlacementStore {
	return &placementStore{
		products: products,
		orders:   orders,
		shipping: shipping,
	}
}

func (s *placementStore) CommitOrder(order domain.Order, reservations []domain.StockReservation) error {
	if err := s.products.ReserveStock(reservations); err != nil {
		return err
	}
	if err := s.orders.Create(order); err != nil {
		return s.compensate(reservations, fmt.Errorf("create order %s: %w", order.ID, err))
	}
	return nil
}

func (s *placementStore) CommitShipping(request domain.ShippingRequest, reservation domain.StockReservation) error {
	reservations := []domain.StockReservation{reservation}
	if err := s.products.ReserveStock(reservations); err != nil {
		return err
	}
	if err := s.shipping.Create(request); err != nil {
		return s.compensate(reservations, fmt.Errorf("create shipping request %s: %w", request.ID, err))
	}
	return nil
}

func (s *placementStore) compensate(reservations []domain.StockReservation, cause error) error {
	if err := s.products.ReleaseStock(reservations); err != nil {
		return errors.Join(cause, fmt.Errorf("release stock: %w", err))
	}
	return cause
}

var _ domain.PlacementStore = (*placementStore)(nil)
