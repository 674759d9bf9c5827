package order

import (
	"errors"
	"sync"

	"github.com/hoangng/fitwear-backend/internal/database"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrForbidden         = errors.New("forbidden")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrVersionConflict   = errors.New("order was modified concurrently")
)

// Repository defines persistence operations for orders. Create and
// UpdateStatus take the caller's transaction so order, stock and cart
// mutations commit as one unit.
type Repository interface {
	Create(tx database.DBTX, ord Order) (Order, error)
	GetByID(id int) (Order, error)
	ListByUser(userID, limit, offset int) ([]Order, error)
	ListAll(limit, offset int) ([]Order, error)
	// UpdateStatus is a compare-and-swap on the version column; it
	// fails with ErrVersionConflict when another write got there first.
	UpdateStatus(tx database.DBTX, orderID int, status Status, pay PaymentStatus, expectedVersion int) error
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu       sync.Mutex
	orders   map[int]Order
	nextID   int
	nextLine int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{orders: make(map[int]Order), nextID: 1, nextLine: 1}
}

func (r *InMemoryRepository) Create(_ database.DBTX, ord Order) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ord.OrderID = r.nextID
	r.nextID++
	for i := range ord.Lines {
		ord.Lines[i].OrderLineID = r.nextLine
		ord.Lines[i].OrderID = ord.OrderID
		r.nextLine++
	}
	r.orders[ord.OrderID] = ord
	return ord, nil
}

func (r *InMemoryRepository) GetByID(id int) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ord, ok := r.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return ord, nil
}

func (r *InMemoryRepository) ListByUser(userID, limit, offset int) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Order, 0)
	for id := 1; id < r.nextID; id++ {
		if ord, ok := r.orders[id]; ok && ord.UserID == userID {
			out = append(out, ord)
		}
	}
	return page(out, limit, offset), nil
}

func (r *InMemoryRepository) ListAll(limit, offset int) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Order, 0, len(r.orders))
	for id := 1; id < r.nextID; id++ {
		if ord, ok := r.orders[id]; ok {
			out = append(out, ord)
		}
	}
	return page(out, limit, offset), nil
}

func (r *InMemoryRepository) UpdateStatus(_ database.DBTX, orderID int, status Status, pay PaymentStatus, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ord, ok := r.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	if ord.Version != expectedVersion {
		return ErrVersionConflict
	}
	ord.Status = status
	ord.PaymentStatus = pay
	ord.Version++
	r.orders[orderID] = ord
	return nil
}

func page(orders []Order, limit, offset int) []Order {
	if offset >= len(orders) {
		return []Order{}
	}
	orders = orders[offset:]
	if limit > 0 && limit < len(orders) {
		orders = orders[:limit]
	}
	return orders
}
