package variant

import (
	"errors"
	"sync"
)

var ErrNotFound = errors.New("variant not found")

// Repository is the read interface of the catalog this engine consumes.
// Catalog management (creating products and variants) lives elsewhere.
type Repository interface {
	GetByID(id int) (Variant, error)
	ListByIDs(ids []int) ([]Variant, error)
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu       sync.RWMutex
	variants map[int]Variant
}

func NewInMemoryRepository(seed []Variant) *InMemoryRepository {
	r := &InMemoryRepository{variants: make(map[int]Variant, len(seed))}
	for _, v := range seed {
		r.variants[v.VariantID] = v
	}
	return r
}

func (r *InMemoryRepository) GetByID(id int) (Variant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variants[id]
	if !ok {
		return Variant{}, ErrNotFound
	}
	return v, nil
}

func (r *InMemoryRepository) ListByIDs(ids []int) ([]Variant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Variant, 0, len(ids))
	for _, id := range ids {
		if v, ok := r.variants[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}
