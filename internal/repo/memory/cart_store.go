// Package memory - хранилища в памяти процесса с той же семантикой, что и postgres-адаптеры.
// Используются при PRICING_STORAGE_DRIVER=memory и в тестах.
package memory

import (
	"context"
	"sync"

	"github.com/Gunvolt24/shop_pricing/internal/domain"
	"github.com/Gunvolt24/shop_pricing/internal/ports"
)

// CartStore — корзины в памяти. Каждая корзина защищена собственным мьютексом,
// так что изменения разных корзин не сериализуются друг с другом.
type CartStore struct {
	mu    sync.Mutex // защищает locks и carts (не удерживается во время mutate)
	locks map[string]*sync.Mutex
	carts map[string]*domain.Cart
}

var _ ports.CartRepository = (*CartStore)(nil)

func NewCartStore() *CartStore {
	return &CartStore{
		locks: make(map[string]*sync.Mutex),
		carts: make(map[string]*domain.Cart),
	}
}

// Get — копия сохранённой корзины или (nil, nil).
func (s *CartStore) Get(_ context.Context, userID string) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carts[userID].Clone(), nil
}

// Update — read-modify-write одной корзины под её мьютексом.
func (s *CartStore) Update(ctx context.Context, userID string, create bool, mutate ports.CartMutation) (*domain.Cart, error) {
	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	current := s.carts[userID].Clone()
	s.mu.Unlock()

	if current == nil {
		if !create {
			return nil, domain.ErrCartNotFound
		}
		current = domain.NewCart(userID)
	}

	if err := mutate(ctx, current); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.carts[userID] = current.Clone()
	s.mu.Unlock()

	return current, nil
}

func (s *CartStore) lockFor(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}
