package order

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hoangng/fitwear-backend/internal/auth"
	"github.com/hoangng/fitwear-backend/internal/cart"
	"github.com/hoangng/fitwear-backend/internal/database"
	"github.com/hoangng/fitwear-backend/internal/stock"
)

// SettlementOutcome describes how a payment callback was applied.
type SettlementOutcome string

const (
	OutcomeApplied      SettlementOutcome = "applied"
	OutcomeAlreadyPaid  SettlementOutcome = "already_paid"
	OutcomeMarkedFailed SettlementOutcome = "marked_failed"
	// OutcomeNeedsReview flags a verified PAID callback that arrived
	// after the order was cancelled; reconciliation is manual.
	OutcomeNeedsReview SettlementOutcome = "needs_review"
)

// CheckoutInput carries the validated checkout request.
type CheckoutInput struct {
	CartLineIDs     []int
	ShippingAddress string
	ShippingPhone   string
	PaymentMethod   PaymentMethod
}

// Service owns the order lifecycle: checkout, reads, status
// transitions, cancellation and payment settlement. Every mutation
// runs as one transaction through the TxRunner.
type Service struct {
	tx     database.TxRunner
	orders Repository
	carts  cart.Repository
	ledger stock.Ledger
	log    *slog.Logger

	now func() time.Time
}

func NewService(tx database.TxRunner, orders Repository, carts cart.Repository, ledger stock.Ledger, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		tx:     tx,
		orders: orders,
		carts:  carts,
		ledger: ledger,
		log:    log,
		now:    time.Now,
	}
}

// Checkout converts the selected cart lines into a durable order:
// reserve stock per line, snapshot prices into order lines, persist
// the order and remove the consumed cart lines. All of it commits or
// none of it does; the first insufficient variant aborts the whole
// attempt.
func (s *Service) Checkout(ident auth.Identity, in CheckoutInput) (Order, error) {
	if len(in.CartLineIDs) == 0 {
		return Order{}, cart.ErrEmptySelection
	}
	if !in.PaymentMethod.Valid() {
		return Order{}, fmt.Errorf("unsupported payment method %q", in.PaymentMethod)
	}

	selected, err := s.carts.SelectLines(ident.UserID, in.CartLineIDs)
	if err != nil {
		return Order{}, err
	}

	now := s.now().UTC().Format(time.RFC3339)
	var created Order
	err = s.tx.WithinTx(func(tx database.DBTX) error {
		total := decimal.Zero
		lines := make([]Line, 0, len(selected))
		lineIDs := make([]int, 0, len(selected))

		for _, sel := range selected {
			if err := s.ledger.Reserve(tx, sel.VariantID, sel.Quantity); err != nil {
				if errors.Is(err, stock.ErrInsufficientStock) {
					return fmt.Errorf("%w for %q (variant %d)", stock.ErrInsufficientStock, sel.ProductName, sel.VariantID)
				}
				return err
			}
			line := Line{
				VariantID:   sel.VariantID,
				ProductName: sel.ProductName,
				Quantity:    sel.Quantity,
				UnitPrice:   sel.UnitPrice,
			}
			total = total.Add(line.Subtotal())
			lines = append(lines, line)
			lineIDs = append(lineIDs, sel.CartLineID)
		}

		ord := Order{
			UserID:          ident.UserID,
			Status:          StatusPending,
			PaymentStatus:   PaymentPending,
			PaymentMethod:   in.PaymentMethod,
			ShippingAddress: in.ShippingAddress,
			ShippingPhone:   in.ShippingPhone,
			TotalAmount:     total,
			Lines:           lines,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		created, err = s.orders.Create(tx, ord)
		if err != nil {
			return err
		}
		return s.carts.RemoveLines(tx, lineIDs)
	})
	if err != nil {
		return Order{}, err
	}

	s.log.Info("order created",
		"order_id", created.OrderID,
		"user_id", created.UserID,
		"total", created.TotalAmount.String(),
		"lines", len(created.Lines))
	return created, nil
}

// Get returns the order if the caller owns it or is an admin.
func (s *Service) Get(ident auth.Identity, orderID int) (Order, error) {
	ord, err := s.orders.GetByID(orderID)
	if err != nil {
		return Order{}, err
	}
	if ord.UserID != ident.UserID && !ident.IsAdmin() {
		return Order{}, ErrForbidden
	}
	return ord, nil
}

func (s *Service) ListForUser(ident auth.Identity, limit, offset int) ([]Order, error) {
	return s.orders.ListByUser(ident.UserID, normalizeLimit(limit), offset)
}

func (s *Service) ListAll(ident auth.Identity, limit, offset int) ([]Order, error) {
	if !ident.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.orders.ListAll(normalizeLimit(limit), offset)
}

// UpdateStatus applies an admin status transition. Entering CANCELLED
// restores stock exactly once; delivering a COD order settles its
// payment.
func (s *Service) UpdateStatus(ident auth.Identity, orderID int, next Status) (Order, error) {
	if !ident.IsAdmin() {
		return Order{}, ErrForbidden
	}
	if !next.Valid() {
		return Order{}, fmt.Errorf("%w: unknown status %q", ErrIllegalTransition, next)
	}

	return s.transition(orderID, func(ord Order) (Status, PaymentStatus, bool, error) {
		if !AdminCanTransition(ord.Status, next) {
			return "", "", false, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, ord.Status, next)
		}

		pay := ord.PaymentStatus
		restock := false
		switch {
		case next == StatusCancelled:
			restock = true
			if pay == PaymentPending {
				pay = PaymentFailed
			}
		case next == StatusDelivered && ord.PaymentMethod == MethodCOD && pay == PaymentPending:
			// cash on delivery settles on delivery
			pay = PaymentPaid
		}
		return next, pay, restock, nil
	})
}

// Cancel is the customer-initiated cancellation; admins may cancel
// from any non-terminal status. Stock is restored for every line and
// a pending payment is marked failed (no refund path exists here).
func (s *Service) Cancel(ident auth.Identity, orderID int) (Order, error) {
	return s.transition(orderID, func(ord Order) (Status, PaymentStatus, bool, error) {
		if ord.UserID != ident.UserID && !ident.IsAdmin() {
			return "", "", false, ErrForbidden
		}
		if ord.Status == StatusCancelled || ord.Status.Terminal() {
			return "", "", false, fmt.Errorf("%w: order is %s", ErrIllegalTransition, ord.Status)
		}
		if !ident.IsAdmin() {
			if !CustomerCanCancel(ord.Status) {
				return "", "", false, fmt.Errorf("%w: cannot cancel order in %s status", ErrIllegalTransition, ord.Status)
			}
			if ord.PaymentStatus == PaymentPaid {
				// paid orders need the refund/reconciliation path, which
				// is out of scope; reject rather than lose money silently
				return "", "", false, fmt.Errorf("%w: order is already paid", ErrIllegalTransition)
			}
		}

		pay := ord.PaymentStatus
		if pay == PaymentPending {
			pay = PaymentFailed
		}
		return StatusCancelled, pay, true, nil
	})
}

// Settle applies a verified gateway outcome to the order's payment
// status. It is idempotent: a repeated PAID callback is a no-op, and a
// PAID callback for a cancelled order is only flagged, never applied.
func (s *Service) Settle(orderID int, success bool) (Order, SettlementOutcome, error) {
	for attempt := 0; ; attempt++ {
		ord, err := s.orders.GetByID(orderID)
		if err != nil {
			return Order{}, "", err
		}

		if success {
			if ord.PaymentStatus == PaymentPaid {
				return ord, OutcomeAlreadyPaid, nil
			}
			if ord.Status == StatusCancelled {
				s.log.Warn("paid callback for cancelled order", "order_id", ord.OrderID)
				return ord, OutcomeNeedsReview, nil
			}
		} else {
			if ord.PaymentStatus != PaymentPending {
				// nothing to do; keep the settled state
				return ord, SettlementOutcome("ignored"), nil
			}
		}

		pay := PaymentFailed
		if success {
			pay = PaymentPaid
		}

		err = s.tx.WithinTx(func(tx database.DBTX) error {
			return s.orders.UpdateStatus(tx, ord.OrderID, ord.Status, pay, ord.Version)
		})
		if errors.Is(err, ErrVersionConflict) && attempt == 0 {
			// raced with a concurrent cancel or status change; re-read once
			continue
		}
		if err != nil {
			return Order{}, "", err
		}

		ord.PaymentStatus = pay
		outcome := OutcomeApplied
		if !success {
			outcome = OutcomeMarkedFailed
		}
		return ord, outcome, nil
	}
}

// transition loads the order, asks decide for the target state, and
// commits the CAS write plus any stock restore in one transaction. A
// single version conflict triggers one re-read.
func (s *Service) transition(orderID int, decide func(Order) (Status, PaymentStatus, bool, error)) (Order, error) {
	for attempt := 0; ; attempt++ {
		ord, err := s.orders.GetByID(orderID)
		if err != nil {
			return Order{}, err
		}

		next, pay, restock, err := decide(ord)
		if err != nil {
			return Order{}, err
		}

		err = s.tx.WithinTx(func(tx database.DBTX) error {
			if restock {
				for _, l := range ord.Lines {
					if err := s.ledger.Restore(tx, l.VariantID, l.Quantity); err != nil {
						return err
					}
				}
			}
			return s.orders.UpdateStatus(tx, ord.OrderID, next, pay, ord.Version)
		})
		if errors.Is(err, ErrVersionConflict) && attempt == 0 {
			continue
		}
		if err != nil {
			return Order{}, err
		}

		ord.Status = next
		ord.PaymentStatus = pay
		ord.Version++
		s.log.Info("order transitioned", "order_id", ord.OrderID, "status", next, "payment_status", pay)
		return ord, nil
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}
