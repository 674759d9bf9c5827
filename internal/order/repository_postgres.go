package order

import (
	"database/sql"

	"github.com/lib/pq"

	"github.com/hoangng/fitwear-backend/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

const orderColumns = `order_id, user_id, status, payment_status, payment_method,
	shipping_address, shipping_phone, total_amount, version, created_at, updated_at`

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(tx database.DBTX, ord Order) (Order, error) {
	err := tx.QueryRow(`INSERT INTO orders
		(user_id, status, payment_status, payment_method, shipping_address, shipping_phone, total_amount, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING order_id, version`,
		ord.UserID, ord.Status, ord.PaymentStatus, ord.PaymentMethod,
		ord.ShippingAddress, ord.ShippingPhone, ord.TotalAmount, ord.CreatedAt, ord.UpdatedAt).
		Scan(&ord.OrderID, &ord.Version)
	if err != nil {
		return Order{}, err
	}

	for i := range ord.Lines {
		l := &ord.Lines[i]
		l.OrderID = ord.OrderID
		err := tx.QueryRow(`INSERT INTO order_lines (order_id, variant_id, product_name, quantity, unit_price)
			VALUES ($1,$2,$3,$4,$5)
			RETURNING order_line_id`,
			l.OrderID, l.VariantID, l.ProductName, l.Quantity, l.UnitPrice).Scan(&l.OrderLineID)
		if err != nil {
			return Order{}, err
		}
	}
	return ord, nil
}

func (r *PostgresRepository) GetByID(id int) (Order, error) {
	var ord Order
	err := r.db.QueryRow(`SELECT `+orderColumns+` FROM orders WHERE order_id = $1`, id).
		Scan(&ord.OrderID, &ord.UserID, &ord.Status, &ord.PaymentStatus, &ord.PaymentMethod,
			&ord.ShippingAddress, &ord.ShippingPhone, &ord.TotalAmount, &ord.Version,
			&ord.CreatedAt, &ord.UpdatedAt)
	if err == sql.ErrNoRows {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}

	lines, err := r.linesFor([]int{ord.OrderID})
	if err != nil {
		return Order{}, err
	}
	ord.Lines = lines[ord.OrderID]
	return ord, nil
}

func (r *PostgresRepository) ListByUser(userID, limit, offset int) ([]Order, error) {
	rows, err := r.db.Query(`SELECT `+orderColumns+` FROM orders
		WHERE user_id = $1
		ORDER BY order_id DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

func (r *PostgresRepository) ListAll(limit, offset int) ([]Order, error) {
	rows, err := r.db.Query(`SELECT `+orderColumns+` FROM orders
		ORDER BY order_id DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

func (r *PostgresRepository) UpdateStatus(tx database.DBTX, orderID int, status Status, pay PaymentStatus, expectedVersion int) error {
	res, err := tx.Exec(`UPDATE orders
		SET status = $1, payment_status = $2, version = version + 1, updated_at = now()::text
		WHERE order_id = $3 AND version = $4`,
		status, pay, orderID, expectedVersion)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *PostgresRepository) collect(rows *sql.Rows) ([]Order, error) {
	defer rows.Close()

	orders := make([]Order, 0)
	ids := make([]int, 0)
	for rows.Next() {
		var ord Order
		if err := rows.Scan(&ord.OrderID, &ord.UserID, &ord.Status, &ord.PaymentStatus, &ord.PaymentMethod,
			&ord.ShippingAddress, &ord.ShippingPhone, &ord.TotalAmount, &ord.Version,
			&ord.CreatedAt, &ord.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, ord)
		ids = append(ids, ord.OrderID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lines, err := r.linesFor(ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Lines = lines[orders[i].OrderID]
	}
	return orders, nil
}

func (r *PostgresRepository) linesFor(orderIDs []int) (map[int][]Line, error) {
	out := make(map[int][]Line)
	if len(orderIDs) == 0 {
		return out, nil
	}

	rows, err := r.db.Query(`SELECT order_line_id, order_id, variant_id, product_name, quantity, unit_price
		FROM order_lines
		WHERE order_id = ANY($1::int[])
		ORDER BY order_line_id`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.OrderLineID, &l.OrderID, &l.VariantID, &l.ProductName, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, err
		}
		out[l.OrderID] = append(out[l.OrderID], l)
	}
	return out, rows.Err()
}
