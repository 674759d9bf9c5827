package payment

import (
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

func callbackQuery(t *testing.T, params map[string]string) string {
	t.Helper()
	v := url.Values{}
	for name, value := range params {
		v.Set(name, value)
	}
	return v.Encode()
}

func TestCallbackEndpoint_Success(t *testing.T) {
	g := testGateway()
	orders := newStubOrders(pendingOrder(42, 1))
	svc := NewService(g, orders, NewInMemoryEventRepository(), nil)

	app := fiber.New()
	NewHandler(svc).RegisterPublicRoutes(app)

	// use the gateway's own signed URL as the callback payload
	raw := g.BuildPaymentURL(42, decimal.RequireFromString("10000"), "order 42", "203.0.113.7")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("unparseable url: %v", err)
	}
	q := u.Query()
	q.Set("vnp_ResponseCode", SuccessCode)
	q.Del("vnp_SecureHash")
	params := make(map[string]string)
	for name := range q {
		params[name] = q.Get(name)
	}
	params["vnp_SecureHash"] = sign(g.cfg.SecretKey, canonicalize(params, encodeHash))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/payments/callback?"+callbackQuery(t, params), nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Status  string `json:"status"`
		OrderID int    `json:"orderId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("unparseable response: %v", err)
	}
	if body.Status != "success" || body.OrderID != 42 {
		t.Fatalf("unexpected ack %+v", body)
	}
}

func TestCallbackEndpoint_BadSignature(t *testing.T) {
	g := testGateway()
	svc := NewService(g, newStubOrders(pendingOrder(42, 1)), NewInMemoryEventRepository(), nil)

	app := fiber.New()
	NewHandler(svc).RegisterPublicRoutes(app)

	params := signedCallback(t, g, 42, "1000000", SuccessCode)
	params["vnp_Amount"] = "1"

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/payments/callback?"+callbackQuery(t, params), nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "json") {
		t.Fatalf("expected json error body, got %s", resp.Header.Get("Content-Type"))
	}
}
