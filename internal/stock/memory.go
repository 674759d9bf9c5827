package stock

import (
	"sync"

	"github.com/hoangng/fitwear-backend/internal/database"
)

// MemoryLedger is used for tests and local scenarios. A single mutex
// stands in for the database's row-level atomicity.
type MemoryLedger struct {
	mu    sync.Mutex
	stock map[int]int
}

func NewMemoryLedger(seed map[int]int) *MemoryLedger {
	s := make(map[int]int, len(seed))
	for id, qty := range seed {
		s[id] = qty
	}
	return &MemoryLedger{stock: s}
}

func (l *MemoryLedger) Reserve(_ database.DBTX, variantID, qty int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	have, ok := l.stock[variantID]
	if !ok {
		return ErrVariantNotFound
	}
	if have < qty {
		return ErrInsufficientStock
	}
	l.stock[variantID] = have - qty
	return nil
}

func (l *MemoryLedger) Restore(_ database.DBTX, variantID, qty int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.stock[variantID]; !ok {
		return ErrVariantNotFound
	}
	l.stock[variantID] += qty
	return nil
}

// Available reports the current quantity for assertions in tests.
func (l *MemoryLedger) Available(variantID int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stock[variantID]
}
