package cart

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
)

func TestPostgresSelectLines(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT cart_id, user_id FROM carts").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"cart_id", "user_id"}).AddRow(10, 1))
	mock.ExpectQuery("FROM cart_lines cl").
		WithArgs(10, pq.Array([]int{100, 101})).
		WillReturnRows(sqlmock.NewRows([]string{"cart_line_id", "variant_id", "product_name", "price", "quantity"}).
			AddRow(100, 1, "Training Shirt", "19.99", 2).
			AddRow(101, 2, "Running Socks", "5.00", 1))

	repo := NewPostgresRepository(db)
	selected, err := repo.SelectLines(1, []int{100, 101})
	if err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if len(selected) != 2 {
		t.Fatalf("expected 2 selected lines, got %d", len(selected))
	}
	if selected[0].ProductName != "Training Shirt" || selected[0].Quantity != 2 {
		t.Fatalf("unexpected first line %+v", selected[0])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresSelectLines_NoIntersection(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT cart_id, user_id FROM carts").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"cart_id", "user_id"}).AddRow(10, 1))
	mock.ExpectQuery("FROM cart_lines cl").
		WithArgs(10, pq.Array([]int{555})).
		WillReturnRows(sqlmock.NewRows([]string{"cart_line_id", "variant_id", "product_name", "price", "quantity"}))

	repo := NewPostgresRepository(db)
	if _, err := repo.SelectLines(1, []int{555}); !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("expected ErrEmptySelection, got %v", err)
	}
}

func TestPostgresSelectLines_NoCart(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT cart_id, user_id FROM carts").
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"cart_id", "user_id"}))

	repo := NewPostgresRepository(db)
	if _, err := repo.SelectLines(9, []int{1}); !errors.Is(err, ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound, got %v", err)
	}
}

func TestPostgresAddLine_UnknownVariant(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("INSERT INTO carts").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"cart_id", "user_id"}).AddRow(10, 1))
	// the guarded insert selects from product_variants and finds nothing
	mock.ExpectExec("INSERT INTO cart_lines").
		WithArgs(10, 99, 1).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewPostgresRepository(db)
	if _, err := repo.AddLine(1, 99, 1); !errors.Is(err, ErrVariantNotFound) {
		t.Fatalf("expected ErrVariantNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresRemoveLines_EmptyIsNoOp(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()

	repo := NewPostgresRepository(db)
	if err := repo.RemoveLines(db, nil); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected statements: %v", err)
	}
}
