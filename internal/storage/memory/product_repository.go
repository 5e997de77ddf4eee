package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
)

// productRepositoryInMemory — каталог товаров в памяти.
// Проверка и списание остатков выполняются под одной блокировкой, поэтому остаток не уходит в минус.
type productRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Product
	now   func() time.Time
}

// NewProductRepository возвращает in-memory каталог товаров.
func NewProductRepository() domain.ProductRepository {
	return &productRepositoryInMemory{
		items: make(map[string]domain.Product),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *productRepositoryInMemory) Create(product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[product.ID]; exists {
		return domain.ErrVersionConflict
	}
	if r.nameTakenLocked(product.Name, product.ProducerID, "") {
		return domain.NewError(domain.ErrDuplicateProductName, "product %q already exists", product.Name)
	}
	r.items[product.ID] = product
	return nil
}

func (r *productRepositoryInMemory) Find(id string) (domain.Product, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.items[id]
	return product, ok, nil
}

// ListByProducer возвращает товары производителя, отсортированные по названию.
func (r *productRepositoryInMemory) ListByProducer(producerID string) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Product, 0)
	for _, p := range r.items {
		if p.ProducerID == producerID {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		li, lj := strings.ToLower(result[i].Name), strings.ToLower(result[j].Name)
		if li != lj {
			return li < lj
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *productRepositoryInMemory) ExistsByNameForProducer(name, producerID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.nameTakenLocked(name, producerID, ""), nil
}

// Save перезаписывает товар, проверяя версию (optimistic locking).
func (r *productRepositoryInMemory) Save(product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[product.ID]
	if !ok {
		return domain.ErrProductNotFound
	}
	if current.Version != product.Version {
		return domain.ErrVersionConflict
	}
	if r.nameTakenLocked(product.Name, product.ProducerID, product.ID) {
		return domain.NewError(domain.ErrDuplicateProductName, "product %q already exists", product.Name)
	}
	product.Version++
	r.items[product.ID] = product
	return nil
}

func (r *productRepositoryInMemory) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(r.items, id)
	return nil
}

// ReserveStock применяет все резервы или ни одного.
// Резервы по одному товару объединяются, версия сверяется с ExpectedVersion.
func (r *productRepositoryInMemory) ReserveStock(reservations []domain.StockReservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	merged, err := domain.MergeReservations(reservations)
	if err != nil {
		return err
	}
	now := r.now()
	updated := make(map[string]domain.Product, len(merged))
	for _, res := range merged {
		product, ok := r.items[res.ProductID]
		if !ok {
			return domain.NewError(domain.ErrProductNotFound, "product %s", res.ProductID)
		}
		next, err := domain.ApplyReservation(product, res, now)
		if err != nil {
			return err
		}
		next.Version++
		updated[next.ID] = next
	}
	for id, product := range updated {
		r.items[id] = product
	}
	return nil
}

// ReleaseStock возвращает остатки. Удалённые товары пропускаются.
func (r *productRepositoryInMemory) ReleaseStock(reservations []domain.StockReservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	merged, err := domain.MergeReservations(reservations)
	if err != nil {
		return err
	}
	now := r.now()
	for _, res := range merged {
		product, ok := r.items[res.ProductID]
		if !ok {
			continue
		}
		if err := product.IncreaseQuantity(res.Amount); err != nil {
			return err
		}
		product.Version++
		product.UpdatedAt = now
		r.items[product.ID] = product
	}
	return nil
}

func (r *productRepositoryInMemory) nameTakenLocked(name, producerID, exceptID string) bool {
	for _, p := range r.items {
		if p.ID == exceptID || p.ProducerID != producerID {
			continue
		}
		if domain.SameName(p.Name, name) {
			return true
		}
	}
	return false
}

var _ domain.ProductRepository = (*productRepositoryInMemory)(nil)
