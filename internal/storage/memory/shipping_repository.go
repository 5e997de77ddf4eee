package memory

import (
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
)

type shippingRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.ShippingRequest
}

// NewShippingRepository возвращает in-memory хранилище заявок на перевозку.
func NewShippingRepository() domain.ShippingRepository {
	return &shippingRepositoryInMemory{items: make(map[string]domain.ShippingRequest)}
}

func (r *shippingRepositoryInMemory) Create(request domain.ShippingRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[request.ID]; exists {
		return domain.ErrVersionConflict
	}
	r.items[request.ID] = request
	return nil
}

func (r *shippingRepositoryInMemory) Get(id string) (domain.ShippingRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	request, ok := r.items[id]
	if !ok {
		return domain.ShippingRequest{}, domain.ErrShippingRequestNotFound
	}
	return request, nil
}

// ListByProducer возвращает заявки производителя, новые первыми.
func (r *shippingRepositoryInMemory) ListByProducer(producerID string) ([]domain.ShippingRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.ShippingRequest, 0)
	for _, req := range r.items {
		if req.ProducerID == producerID {
			result = append(result, req)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (r *shippingRepositoryInMemory) Save(request domain.ShippingRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[request.ID]
	if !ok {
		return domain.ErrShippingRequestNotFound
	}
	if current.Version != request.Version {
		return domain.ErrVersionConflict
	}
	request.Version++
	r.items[request.ID] = request
	return nil
}

var _ domain.ShippingRepository = (*shippingRepositoryInMemory)(nil)
