package repositories

import (
	"context"
	"sync"

	"puspita/internal/models"
)

// MockCartRepository is an in-memory implementation of CartRepository.
type MockCartRepository struct {
	carts map[string][]models.CartItem
	mu    sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository.
func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{
		carts: make(map[string][]models.CartItem),
	}
}

// Load returns a copy of the stored cart, or an empty slice.
func (r *MockCartRepository) Load(_ context.Context, userID string) ([]models.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]models.CartItem, len(r.carts[userID]))
	copy(items, r.carts[userID])
	return items, nil
}

// Save overwrites the stored cart with a copy of the snapshot.
func (r *MockCartRepository) Save(_ context.Context, userID string, items []models.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make([]models.CartItem, len(items))
	copy(snapshot, items)
	r.carts[userID] = snapshot
	return nil
}
