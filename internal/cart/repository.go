package cart

import (
	"errors"
	"sync"

	"github.com/hoangng/fitwear-backend/internal/database"
	"github.com/hoangng/fitwear-backend/internal/variant"
)

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrLineNotFound    = errors.New("cart line not found")
	ErrVariantNotFound = errors.New("variant not found")
	ErrEmptySelection  = errors.New("no valid cart lines selected")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// Repository provides cart persistence. SelectLines never mutates; the
// removal of consumed lines happens through RemoveLines inside the same
// transaction that creates the order, so a failed checkout cannot lose
// cart contents.
type Repository interface {
	GetByUser(userID int) (Cart, error)
	AddLine(userID, variantID, qty int) (Cart, error)
	UpdateLine(userID, cartLineID, qty int) (Cart, error)
	RemoveLine(userID, cartLineID int) (Cart, error)

	// SelectLines resolves the intersection of the user's cart lines
	// and the requested line ids, with each variant's current price.
	SelectLines(userID int, lineIDs []int) ([]SelectedLine, error)
	// RemoveLines deletes lines by id under the caller's transaction.
	RemoveLines(tx database.DBTX, lineIDs []int) error
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu       sync.Mutex
	variants variant.Repository
	carts    map[int]*Cart // by userID
	nextCart int
	nextLine int
}

func NewInMemoryRepository(variants variant.Repository) *InMemoryRepository {
	return &InMemoryRepository{
		variants: variants,
		carts:    make(map[int]*Cart),
		nextCart: 1,
		nextLine: 1,
	}
}

func (r *InMemoryRepository) GetByUser(userID int) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[userID]
	if !ok {
		return Cart{}, ErrCartNotFound
	}
	return *c, nil
}

func (r *InMemoryRepository) AddLine(userID, variantID, qty int) (Cart, error) {
	v, err := r.variants.GetByID(variantID)
	if err != nil {
		return Cart{}, ErrVariantNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.carts[userID]
	if !ok {
		c = &Cart{CartID: r.nextCart, UserID: userID}
		r.nextCart++
		r.carts[userID] = c
	}

	for i := range c.Lines {
		if c.Lines[i].VariantID == variantID {
			c.Lines[i].Quantity += qty
			return *c, nil
		}
	}

	c.Lines = append(c.Lines, CartLine{
		CartLineID:  r.nextLine,
		VariantID:   variantID,
		ProductName: v.ProductName,
		Size:        v.Size,
		Color:       v.Color,
		UnitPrice:   v.Price,
		Quantity:    qty,
	})
	r.nextLine++
	return *c, nil
}

func (r *InMemoryRepository) UpdateLine(userID, cartLineID, qty int) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.carts[userID]
	if !ok {
		return Cart{}, ErrCartNotFound
	}
	for i := range c.Lines {
		if c.Lines[i].CartLineID == cartLineID {
			c.Lines[i].Quantity = qty
			return *c, nil
		}
	}
	return Cart{}, ErrLineNotFound
}

func (r *InMemoryRepository) RemoveLine(userID, cartLineID int) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.carts[userID]
	if !ok {
		return Cart{}, ErrCartNotFound
	}
	for i := range c.Lines {
		if c.Lines[i].CartLineID == cartLineID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return *c, nil
		}
	}
	return Cart{}, ErrLineNotFound
}

func (r *InMemoryRepository) SelectLines(userID int, lineIDs []int) ([]SelectedLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.carts[userID]
	if !ok {
		return nil, ErrCartNotFound
	}

	wanted := make(map[int]bool, len(lineIDs))
	for _, id := range lineIDs {
		wanted[id] = true
	}

	out := make([]SelectedLine, 0, len(lineIDs))
	for _, l := range c.Lines {
		if !wanted[l.CartLineID] {
			continue
		}
		price := l.UnitPrice
		if v, err := r.variants.GetByID(l.VariantID); err == nil {
			price = v.Price
		}
		out = append(out, SelectedLine{
			CartLineID:  l.CartLineID,
			VariantID:   l.VariantID,
			ProductName: l.ProductName,
			UnitPrice:   price,
			Quantity:    l.Quantity,
		})
	}
	if len(out) == 0 {
		return nil, ErrEmptySelection
	}
	return out, nil
}

func (r *InMemoryRepository) RemoveLines(_ database.DBTX, lineIDs []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	drop := make(map[int]bool, len(lineIDs))
	for _, id := range lineIDs {
		drop[id] = true
	}
	for _, c := range r.carts {
		kept := c.Lines[:0]
		for _, l := range c.Lines {
			if !drop[l.CartLineID] {
				kept = append(kept, l)
			}
		}
		c.Lines = kept
	}
	return nil
}
