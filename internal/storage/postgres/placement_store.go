package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
)

// placementStore выполняет списание остатков и вставку агрегата в одной транзакции.
type placementStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewPlacementStore создаёт транзакционную реализацию PlacementStore.
func NewPlacementStore(store *Store) domain.PlacementStore {
	return &placementStore{
		db:  store.DB(),
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *placementStore) CommitOrder(order domain.Order, reservations []domain.StockReservation) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := reserveStockTx(ctx, tx, reservations, s.now()); err != nil {
			return err
		}
		return insertOrderTx(ctx, tx, order)
	})
}

func (s *placementStore) CommitShipping(request domain.ShippingRequest, reservation domain.StockReservation) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := reserveStockTx(ctx, tx, []domain.StockReservation{reservation}, s.now()); err != nil {
			return err
		}
		return insertShippingRequest(ctx, tx, request)
	})
}

var _ domain.PlacementStore = (*placementStore)(nil)
