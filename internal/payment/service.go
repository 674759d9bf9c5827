package payment

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/hoangng/fitwear-backend/internal/auth"
	"github.com/hoangng/fitwear-backend/internal/order"
)

var ErrNotPayable = errors.New("order is not awaiting payment")

// OrderService is the slice of the order aggregate the settlement path
// needs: an ownership-checked read and the idempotent settle.
type OrderService interface {
	Get(ident auth.Identity, orderID int) (order.Order, error)
	Settle(orderID int, success bool) (order.Order, order.SettlementOutcome, error)
}

// Service creates payment URLs and applies verified callbacks.
type Service struct {
	gateway *Gateway
	orders  OrderService
	events  EventRepository
	log     *slog.Logger

	now func() time.Time
}

func NewService(gateway *Gateway, orders OrderService, events EventRepository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		gateway: gateway,
		orders:  orders,
		events:  events,
		log:     log,
		now:     time.Now,
	}
}

// CreatePayment builds the signed redirect URL for a bank-transfer
// order that is still awaiting payment. Ownership is enforced by the
// order aggregate's Get.
func (s *Service) CreatePayment(ident auth.Identity, orderID int, clientIP string) (string, error) {
	ord, err := s.orders.Get(ident, orderID)
	if err != nil {
		return "", err
	}
	if ord.PaymentMethod != order.MethodBankTransfer {
		return "", fmt.Errorf("%w: payment method is %s", ErrNotPayable, ord.PaymentMethod)
	}
	if ord.Status == order.StatusCancelled || ord.PaymentStatus != order.PaymentPending {
		return "", fmt.Errorf("%w: status %s, payment %s", ErrNotPayable, ord.Status, ord.PaymentStatus)
	}

	orderInfo := fmt.Sprintf("Thanh toan don hang #%d", ord.OrderID)
	return s.gateway.BuildPaymentURL(ord.OrderID, ord.TotalAmount, orderInfo, clientIP), nil
}

// CallbackResult is what the callback endpoint acknowledges to the
// gateway.
type CallbackResult struct {
	OrderID      int                     `json:"orderId"`
	ResponseCode string                  `json:"responseCode"`
	Paid         bool                    `json:"paid"`
	Outcome      order.SettlementOutcome `json:"outcome"`
}

// HandleCallback verifies the callback signature, applies the payment
// outcome at most once, and records an audit event. Verification
// failure changes no state at all.
func (s *Service) HandleCallback(params map[string]string) (CallbackResult, error) {
	if err := s.gateway.VerifyCallback(params); err != nil {
		s.log.Warn("rejected payment callback", "reason", "signature mismatch", "txn_ref", params[paramTxnRef])
		return CallbackResult{}, err
	}

	orderID, err := strconv.Atoi(params[paramTxnRef])
	if err != nil {
		return CallbackResult{}, fmt.Errorf("%w: bad transaction reference %q", order.ErrNotFound, params[paramTxnRef])
	}

	code := params[paramResponseCode]
	success := code == SuccessCode

	ord, outcome, err := s.orders.Settle(orderID, success)
	if err != nil {
		return CallbackResult{}, err
	}

	event := Event{
		EventID:      uuid.NewString(),
		OrderID:      ord.OrderID,
		ResponseCode: code,
		Outcome:      string(outcome),
		CreatedAt:    s.now().UTC().Format(time.RFC3339),
	}
	if err := s.events.Insert(event); err != nil {
		// the settlement already committed; losing the audit row is
		// logged, not propagated to the gateway
		s.log.Error("failed to record payment event", "order_id", ord.OrderID, "error", err)
	}

	s.log.Info("payment callback settled",
		"order_id", ord.OrderID,
		"response_code", code,
		"outcome", outcome)

	return CallbackResult{
		OrderID:      ord.OrderID,
		ResponseCode: code,
		Paid:         ord.PaymentStatus == order.PaymentPaid,
		Outcome:      outcome,
	}, nil
}
