package payment

import (
	"database/sql"
	"sync"
)

// Event is the audit record of one verified gateway callback. The
// needs_review outcome marks callbacks that require manual
// reconciliation (e.g. PAID arriving after a cancellation).
type Event struct {
	EventID      string `json:"eventId"`
	OrderID      int    `json:"orderId"`
	ResponseCode string `json:"responseCode"`
	Outcome      string `json:"outcome"`
	CreatedAt    string `json:"createdAt"`
}

type EventRepository interface {
	Insert(e Event) error
	ListByOrder(orderID int) ([]Event, error)
}

type PostgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

func (r *PostgresEventRepository) Insert(e Event) error {
	_, err := r.db.Exec(`INSERT INTO payment_events (event_id, order_id, response_code, outcome, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		e.EventID, e.OrderID, e.ResponseCode, e.Outcome, e.CreatedAt)
	return err
}

func (r *PostgresEventRepository) ListByOrder(orderID int) ([]Event, error) {
	rows, err := r.db.Query(`SELECT event_id, order_id, response_code, outcome, created_at
		FROM payment_events
		WHERE order_id = $1
		ORDER BY created_at`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Event, 0)
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.EventID, &e.OrderID, &e.ResponseCode, &e.Outcome, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// InMemoryEventRepository is used for tests and local scenarios.
type InMemoryEventRepository struct {
	mu     sync.Mutex
	events []Event
}

func NewInMemoryEventRepository() *InMemoryEventRepository {
	return &InMemoryEventRepository{}
}

func (r *InMemoryEventRepository) Insert(e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *InMemoryEventRepository) ListByOrder(orderID int) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, 0)
	for _, e := range r.events {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}
