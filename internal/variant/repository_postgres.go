package variant

import (
	"database/sql"

	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

const variantColumns = `variant_id, product_id, product_name, size, color, price, stock_quantity`

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(id int) (Variant, error) {
	var v Variant
	err := r.db.QueryRow(`SELECT `+variantColumns+` FROM product_variants WHERE variant_id = $1`, id).
		Scan(&v.VariantID, &v.ProductID, &v.ProductName, &v.Size, &v.Color, &v.Price, &v.Stock)
	if err == sql.ErrNoRows {
		return Variant{}, ErrNotFound
	}
	if err != nil {
		return Variant{}, err
	}
	return v, nil
}

// ListByIDs returns the variants matching ids, ordered the same way as
// the ids argument. Missing ids are skipped, not errors.
func (r *PostgresRepository) ListByIDs(ids []int) ([]Variant, error) {
	if len(ids) == 0 {
		return []Variant{}, nil
	}

	rows, err := r.db.Query(`SELECT `+variantColumns+`
		FROM product_variants
		WHERE variant_id = ANY($1::int[])
		ORDER BY array_position($1::int[], variant_id)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Variant, 0, len(ids))
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.VariantID, &v.ProductID, &v.ProductName, &v.Size, &v.Color, &v.Price, &v.Stock); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
