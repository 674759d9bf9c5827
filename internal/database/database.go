package database

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DBTX is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Repositories take it so the same query code runs standalone or
// inside a checkout/cancel/settlement transaction.
type DBTX interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// TxRunner executes fn as one atomic unit. The SQL implementation maps
// this onto a database transaction; tests substitute an in-memory one.
type TxRunner interface {
	WithinTx(fn func(tx DBTX) error) error
}

func Open(url string) (*sql.DB, error) {
	if url == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// SQLRunner runs units of work inside a *sql.Tx with rollback on error.
type SQLRunner struct {
	DB *sql.DB
}

func NewSQLRunner(db *sql.DB) *SQLRunner {
	return &SQLRunner{DB: db}
}

func (r *SQLRunner) WithinTx(fn func(tx DBTX) error) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// MemoryRunner passes a nil DBTX through; in-memory repositories ignore
// it. Used by tests and local scenarios.
type MemoryRunner struct{}

func (MemoryRunner) WithinTx(fn func(tx DBTX) error) error {
	return fn(nil)
}
