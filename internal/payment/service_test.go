package payment

import (
	"errors"
	"net/url"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/hoangng/fitwear-backend/internal/auth"
	"github.com/hoangng/fitwear-backend/internal/order"
)

// stubOrders mimics the order aggregate's settlement behaviour closely
// enough to exercise the callback path, including idempotence.
type stubOrders struct {
	orders map[int]*order.Order
}

func newStubOrders(seed ...order.Order) *stubOrders {
	s := &stubOrders{orders: make(map[int]*order.Order)}
	for i := range seed {
		ord := seed[i]
		s.orders[ord.OrderID] = &ord
	}
	return s
}

func (s *stubOrders) Get(ident auth.Identity, orderID int) (order.Order, error) {
	ord, ok := s.orders[orderID]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	if ord.UserID != ident.UserID && !ident.IsAdmin() {
		return order.Order{}, order.ErrForbidden
	}
	return *ord, nil
}

func (s *stubOrders) Settle(orderID int, success bool) (order.Order, order.SettlementOutcome, error) {
	ord, ok := s.orders[orderID]
	if !ok {
		return order.Order{}, "", order.ErrNotFound
	}
	if success {
		if ord.PaymentStatus == order.PaymentPaid {
			return *ord, order.OutcomeAlreadyPaid, nil
		}
		if ord.Status == order.StatusCancelled {
			return *ord, order.OutcomeNeedsReview, nil
		}
		ord.PaymentStatus = order.PaymentPaid
		return *ord, order.OutcomeApplied, nil
	}
	if ord.PaymentStatus == order.PaymentPending {
		ord.PaymentStatus = order.PaymentFailed
		return *ord, order.OutcomeMarkedFailed, nil
	}
	return *ord, order.SettlementOutcome("ignored"), nil
}

func signedCallback(t *testing.T, g *Gateway, orderID int, amount, responseCode string) map[string]string {
	t.Helper()
	params := map[string]string{
		"vnp_Amount":        amount,
		"vnp_TxnRef":        strconv.Itoa(orderID),
		"vnp_ResponseCode":  responseCode,
		"vnp_TransactionNo": "14226112",
		"vnp_BankCode":      "NCB",
	}
	params["vnp_SecureHash"] = sign(g.cfg.SecretKey, canonicalize(params, encodeHash))
	return params
}

func pendingOrder(id, userID int) order.Order {
	return order.Order{
		OrderID:       id,
		UserID:        userID,
		Status:        order.StatusPending,
		PaymentStatus: order.PaymentPending,
		PaymentMethod: order.MethodBankTransfer,
		TotalAmount:   decimal.RequireFromString("10000"),
	}
}

func TestHandleCallback_AppliesPaid(t *testing.T) {
	g := testGateway()
	orders := newStubOrders(pendingOrder(42, 1))
	events := NewInMemoryEventRepository()
	svc := NewService(g, orders, events, nil)

	result, err := svc.HandleCallback(signedCallback(t, g, 42, "1000000", SuccessCode))
	if err != nil {
		t.Fatalf("callback failed: %v", err)
	}
	if !result.Paid || result.Outcome != order.OutcomeApplied {
		t.Fatalf("unexpected result %+v", result)
	}

	recorded, _ := events.ListByOrder(42)
	if len(recorded) != 1 {
		t.Fatalf("expected 1 audit event, got %d", len(recorded))
	}
	if recorded[0].ResponseCode != SuccessCode || recorded[0].EventID == "" {
		t.Fatalf("unexpected audit event %+v", recorded[0])
	}
}

func TestHandleCallback_PaidTwiceIsNoOp(t *testing.T) {
	g := testGateway()
	orders := newStubOrders(pendingOrder(42, 1))
	svc := NewService(g, orders, NewInMemoryEventRepository(), nil)

	params := signedCallback(t, g, 42, "1000000", SuccessCode)

	if _, err := svc.HandleCallback(params); err != nil {
		t.Fatalf("first callback failed: %v", err)
	}
	result, err := svc.HandleCallback(params)
	if err != nil {
		t.Fatalf("second callback failed: %v", err)
	}
	if result.Outcome != order.OutcomeAlreadyPaid {
		t.Fatalf("expected already_paid outcome, got %s", result.Outcome)
	}
	if !result.Paid {
		t.Fatal("order should remain paid")
	}
}

func TestHandleCallback_FailureCodeMarksFailed(t *testing.T) {
	g := testGateway()
	orders := newStubOrders(pendingOrder(42, 1))
	svc := NewService(g, orders, NewInMemoryEventRepository(), nil)

	result, err := svc.HandleCallback(signedCallback(t, g, 42, "1000000", "24"))
	if err != nil {
		t.Fatalf("callback failed: %v", err)
	}
	if result.Paid {
		t.Fatal("failure code must not mark the order paid")
	}
	if result.Outcome != order.OutcomeMarkedFailed {
		t.Fatalf("expected marked_failed, got %s", result.Outcome)
	}
}

func TestHandleCallback_BadSignatureChangesNothing(t *testing.T) {
	g := testGateway()
	orders := newStubOrders(pendingOrder(42, 1))
	svc := NewService(g, orders, NewInMemoryEventRepository(), nil)

	params := signedCallback(t, g, 42, "1000000", SuccessCode)
	params["vnp_Amount"] = "999"

	_, err := svc.HandleCallback(params)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if got := orders.orders[42].PaymentStatus; got != order.PaymentPending {
		t.Fatalf("payment status changed despite invalid signature: %s", got)
	}
}

func TestHandleCallback_CancelledOrderNeedsReview(t *testing.T) {
	g := testGateway()
	cancelled := pendingOrder(42, 1)
	cancelled.Status = order.StatusCancelled
	cancelled.PaymentStatus = order.PaymentFailed
	orders := newStubOrders(cancelled)
	events := NewInMemoryEventRepository()
	svc := NewService(g, orders, events, nil)

	result, err := svc.HandleCallback(signedCallback(t, g, 42, "1000000", SuccessCode))
	if err != nil {
		t.Fatalf("callback failed: %v", err)
	}
	if result.Outcome != order.OutcomeNeedsReview {
		t.Fatalf("expected needs_review, got %s", result.Outcome)
	}
	if got := orders.orders[42].PaymentStatus; got != order.PaymentFailed {
		t.Fatalf("cancelled order must not become paid, got %s", got)
	}

	recorded, _ := events.ListByOrder(42)
	if len(recorded) != 1 || recorded[0].Outcome != string(order.OutcomeNeedsReview) {
		t.Fatalf("expected a needs_review audit event, got %+v", recorded)
	}
}

func TestHandleCallback_UnknownOrder(t *testing.T) {
	g := testGateway()
	svc := NewService(g, newStubOrders(), NewInMemoryEventRepository(), nil)

	_, err := svc.HandleCallback(signedCallback(t, g, 777, "1000000", SuccessCode))
	if !errors.Is(err, order.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreatePayment(t *testing.T) {
	g := testGateway()
	orders := newStubOrders(pendingOrder(42, 1))
	svc := NewService(g, orders, NewInMemoryEventRepository(), nil)

	urlStr, err := svc.CreatePayment(auth.Identity{UserID: 1, Role: auth.RoleCustomer}, 42, "203.0.113.7")
	if err != nil {
		t.Fatalf("create payment failed: %v", err)
	}

	u, err := url.Parse(urlStr)
	if err != nil {
		t.Fatalf("unparseable payment url: %v", err)
	}
	if u.Query().Get("vnp_TxnRef") != "42" {
		t.Fatalf("payment url does not reference the order: %s", urlStr)
	}
}

func TestCreatePayment_NotOwner(t *testing.T) {
	g := testGateway()
	orders := newStubOrders(pendingOrder(42, 1))
	svc := NewService(g, orders, NewInMemoryEventRepository(), nil)

	_, err := svc.CreatePayment(auth.Identity{UserID: 2, Role: auth.RoleCustomer}, 42, "203.0.113.7")
	if !errors.Is(err, order.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCreatePayment_CODNotPayable(t *testing.T) {
	g := testGateway()
	cod := pendingOrder(42, 1)
	cod.PaymentMethod = order.MethodCOD
	orders := newStubOrders(cod)
	svc := NewService(g, orders, NewInMemoryEventRepository(), nil)

	_, err := svc.CreatePayment(auth.Identity{UserID: 1, Role: auth.RoleCustomer}, 42, "203.0.113.7")
	if !errors.Is(err, ErrNotPayable) {
		t.Fatalf("expected ErrNotPayable, got %v", err)
	}
}

func TestCreatePayment_AlreadyPaid(t *testing.T) {
	g := testGateway()
	paid := pendingOrder(42, 1)
	paid.PaymentStatus = order.PaymentPaid
	orders := newStubOrders(paid)
	svc := NewService(g, orders, NewInMemoryEventRepository(), nil)

	_, err := svc.CreatePayment(auth.Identity{UserID: 1, Role: auth.RoleCustomer}, 42, "203.0.113.7")
	if !errors.Is(err, ErrNotPayable) {
		t.Fatalf("expected ErrNotPayable, got %v", err)
	}
}
