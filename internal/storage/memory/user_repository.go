package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
)

// userRepositoryInMemory хранит пользователей и индекс по email.
type userRepositoryInMemory struct {
	mu      sync.RWMutex
	items   map[string]domain.User
	byEmail map[domain.Email]string
}

// NewUserRepository возвращает in-memory справочник пользователей.
func NewUserRepository() domain.UserRepository {
	return &userRepositoryInMemory{
		items:   make(map[string]domain.User),
		byEmail: make(map[domain.Email]string),
	}
}

// Create сохраняет пользователя, если email ещё свободен.
func (r *userRepositoryInMemory) Create(user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return domain.NewError(domain.ErrEmailTaken, "email %s is already registered", user.Email)
	}
	if _, exists := r.items[user.ID]; exists {
		return domain.ErrVersionConflict
	}
	r.items[user.ID] = user
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *userRepositoryInMemory) Find(id string) (domain.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.items[id]
	return user, ok, nil
}

func (r *userRepositoryInMemory) FindByEmail(email domain.Email) (domain.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return domain.User{}, false, nil
	}
	return r.items[id], true, nil
}

// Save перезаписывает пользователя, проверяя версию (optimistic locking).
func (r *userRepositoryInMemory) Save(user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if current.Version != user.Version {
		return domain.ErrVersionConflict
	}
	if current.Email != user.Email {
		if _, taken := r.byEmail[user.Email]; taken {
			return domain.NewError(domain.ErrEmailTaken, "email %s is already registered", user.Email)
		}
		delete(r.byEmail, current.Email)
		r.byEmail[user.Email] = user.ID
	}
	user.Version++
	r.items[user.ID] = user
	return nil
}

var _ domain.UserRepository = (*userRepositoryInMemory)(nil)
