package cart

import (
	"database/sql"

	"github.com/lib/pq"

	"github.com/hoangng/fitwear-backend/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

const cartLinesQuery = `
	SELECT cl.cart_line_id, cl.variant_id, v.product_name, v.size, v.color, v.price, cl.quantity
	FROM cart_lines cl
	JOIN product_variants v ON v.variant_id = cl.variant_id
	WHERE cl.cart_id = $1
	ORDER BY cl.cart_line_id
`

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByUser(userID int) (Cart, error) {
	var c Cart
	err := r.db.QueryRow(`SELECT cart_id, user_id FROM carts WHERE user_id = $1`, userID).
		Scan(&c.CartID, &c.UserID)
	if err == sql.ErrNoRows {
		return Cart{}, ErrCartNotFound
	}
	if err != nil {
		return Cart{}, err
	}
	return r.withLines(c)
}

func (r *PostgresRepository) AddLine(userID, variantID, qty int) (Cart, error) {
	var c Cart
	// lazy cart creation on first use
	err := r.db.QueryRow(`INSERT INTO carts (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING cart_id, user_id`, userID).Scan(&c.CartID, &c.UserID)
	if err != nil {
		return Cart{}, err
	}

	// one line per (cart, variant); a repeat add increments quantity.
	// The SELECT guard keeps unknown variants out without a round trip.
	res, err := r.db.Exec(`INSERT INTO cart_lines (cart_id, variant_id, quantity)
		SELECT $1, v.variant_id, $3 FROM product_variants v WHERE v.variant_id = $2
		ON CONFLICT (cart_id, variant_id)
		DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity`,
		c.CartID, variantID, qty)
	if err != nil {
		return Cart{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Cart{}, err
	}
	if n == 0 {
		return Cart{}, ErrVariantNotFound
	}

	return r.withLines(c)
}

func (r *PostgresRepository) UpdateLine(userID, cartLineID, qty int) (Cart, error) {
	c, err := r.cartHeader(userID)
	if err != nil {
		return Cart{}, err
	}

	res, err := r.db.Exec(`UPDATE cart_lines SET quantity = $1
		WHERE cart_line_id = $2 AND cart_id = $3`, qty, cartLineID, c.CartID)
	if err != nil {
		return Cart{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Cart{}, ErrLineNotFound
	}
	return r.withLines(c)
}

func (r *PostgresRepository) RemoveLine(userID, cartLineID int) (Cart, error) {
	c, err := r.cartHeader(userID)
	if err != nil {
		return Cart{}, err
	}

	res, err := r.db.Exec(`DELETE FROM cart_lines
		WHERE cart_line_id = $1 AND cart_id = $2`, cartLineID, c.CartID)
	if err != nil {
		return Cart{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Cart{}, ErrLineNotFound
	}
	return r.withLines(c)
}

// SelectLines is the cart selector: it resolves the requested line ids
// against the user's own cart and joins in the variant's current price.
// Lines belonging to other users simply fall out of the intersection.
func (r *PostgresRepository) SelectLines(userID int, lineIDs []int) ([]SelectedLine, error) {
	c, err := r.cartHeader(userID)
	if err != nil {
		return nil, err
	}
	if len(lineIDs) == 0 {
		return nil, ErrEmptySelection
	}

	rows, err := r.db.Query(`
		SELECT cl.cart_line_id, cl.variant_id, v.product_name, v.price, cl.quantity
		FROM cart_lines cl
		JOIN product_variants v ON v.variant_id = cl.variant_id
		WHERE cl.cart_id = $1 AND cl.cart_line_id = ANY($2::int[])
		ORDER BY cl.cart_line_id`, c.CartID, pq.Array(lineIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]SelectedLine, 0, len(lineIDs))
	for rows.Next() {
		var l SelectedLine
		if err := rows.Scan(&l.CartLineID, &l.VariantID, &l.ProductName, &l.UnitPrice, &l.Quantity); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrEmptySelection
	}
	return out, nil
}

func (r *PostgresRepository) RemoveLines(tx database.DBTX, lineIDs []int) error {
	if len(lineIDs) == 0 {
		return nil
	}
	_, err := tx.Exec(`DELETE FROM cart_lines WHERE cart_line_id = ANY($1::int[])`, pq.Array(lineIDs))
	return err
}

func (r *PostgresRepository) cartHeader(userID int) (Cart, error) {
	var c Cart
	err := r.db.QueryRow(`SELECT cart_id, user_id FROM carts WHERE user_id = $1`, userID).
		Scan(&c.CartID, &c.UserID)
	if err == sql.ErrNoRows {
		return Cart{}, ErrCartNotFound
	}
	if err != nil {
		return Cart{}, err
	}
	return c, nil
}

func (r *PostgresRepository) withLines(c Cart) (Cart, error) {
	rows, err := r.db.Query(cartLinesQuery, c.CartID)
	if err != nil {
		return Cart{}, err
	}
	defer rows.Close()

	c.Lines = make([]CartLine, 0)
	for rows.Next() {
		var l CartLine
		if err := rows.Scan(&l.CartLineID, &l.VariantID, &l.ProductName, &l.Size, &l.Color, &l.UnitPrice, &l.Quantity); err != nil {
			return Cart{}, err
		}
		c.Lines = append(c.Lines, l)
	}
	return c, rows.Err()
}
