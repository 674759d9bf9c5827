package stock

import (
	"errors"
	"fmt"

	"github.com/hoangng/fitwear-backend/internal/database"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrVariantNotFound   = errors.New("variant not found")
)

// Ledger exposes the two stock mutations the order aggregate needs.
// Both run against the caller's transaction so a failed checkout or a
// cancellation commits stock and order changes together or not at all.
type Ledger interface {
	// Reserve decrements available stock by qty only if at least qty
	// units remain; otherwise it fails with ErrInsufficientStock and
	// changes nothing.
	Reserve(tx database.DBTX, variantID, qty int) error
	// Restore adds qty units back unconditionally (cancellation path).
	Restore(tx database.DBTX, variantID, qty int) error
}

// SQLLedger guards against the lost-update race with a conditional
// UPDATE: two checkouts fighting over the last unit both run the same
// statement, and the row predicate lets only one of them through.
type SQLLedger struct{}

func NewSQLLedger() *SQLLedger {
	return &SQLLedger{}
}

func (l *SQLLedger) Reserve(tx database.DBTX, variantID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("reserve quantity must be positive, got %d", qty)
	}

	res, err := tx.Exec(`UPDATE product_variants
		SET stock_quantity = stock_quantity - $1
		WHERE variant_id = $2 AND stock_quantity >= $1`, qty, variantID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// either the variant is missing or it has fewer than qty units
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS (SELECT 1 FROM product_variants WHERE variant_id = $1)`, variantID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrVariantNotFound
		}
		return ErrInsufficientStock
	}
	return nil
}

func (l *SQLLedger) Restore(tx database.DBTX, variantID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("restore quantity must be positive, got %d", qty)
	}

	res, err := tx.Exec(`UPDATE product_variants
		SET stock_quantity = stock_quantity + $1
		WHERE variant_id = $2`, qty, variantID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVariantNotFound
	}
	return nil
}
