package payment

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hoangng/fitwear-backend/internal/config"
)

func testGateway() *Gateway {
	g := NewGateway(config.VNPayConfig{
		PayURL:    "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL: "https://shop.example.com/vnpay-return",
		TmnCode:   "TESTCODE",
		SecretKey: "test-secret",
		Version:   "2.1.0",
		Command:   "pay",
		OrderType: "other",
		Locale:    "vn",
		CurrCode:  "VND",
	})
	g.Now = func() time.Time {
		return time.Date(2025, 3, 14, 2, 30, 0, 0, time.UTC)
	}
	return g
}

func TestSign_Deterministic(t *testing.T) {
	params := map[string]string{
		"vnp_Amount":  "1000000",
		"vnp_TxnRef":  "42",
		"vnp_Version": "2.1.0",
	}

	data := canonicalize(params, encodeHash)
	if data != "vnp_Amount=1000000&vnp_TxnRef=42&vnp_Version=2.1.0" {
		t.Fatalf("unexpected canonical form %q", data)
	}

	first := sign("test-secret", data)
	second := sign("test-secret", canonicalize(params, encodeHash))
	if first != second {
		t.Fatalf("signature not deterministic: %q vs %q", first, second)
	}

	const want = "f7a4f12b1a42fdda7d9afebf634118f735fb58e50d4ab9fbdb028b8bb0fe277d21bc77010af4a6a0e1bffa813ea0ce82814d82892d3eb2f03dcbf3997a2876e7"
	if first != want {
		t.Fatalf("unexpected digest\n got %s\nwant %s", first, want)
	}
}

func TestCanonicalize_SortsAndSkipsEmpty(t *testing.T) {
	params := map[string]string{
		"b_second": "2",
		"a_first":  "1",
		"c_empty":  "",
		"d_third":  "hello world",
	}

	got := canonicalize(params, encodeHash)
	want := "a_first=1&b_second=2&d_third=hello+world"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestCanonicalize_ASCIIDegradesNonASCII(t *testing.T) {
	params := map[string]string{"vnp_OrderInfo": "Thanh toán"}

	got := canonicalize(params, encodeHash)
	// the signing variant folds non-ASCII runes to '?'
	if got != "vnp_OrderInfo=Thanh+to%3Fn" {
		t.Fatalf("unexpected ascii canonical form %q", got)
	}

	query := canonicalize(params, encodeQuery)
	if query != "vnp_OrderInfo=Thanh+to%C3%A1n" {
		t.Fatalf("unexpected query canonical form %q", query)
	}
}

func TestBuildPaymentURL_RoundTripsThroughVerify(t *testing.T) {
	g := testGateway()

	raw := g.BuildPaymentURL(42, decimal.RequireFromString("10000"), "Thanh toan don hang #42", "203.0.113.7")

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("unparseable url: %v", err)
	}
	q := u.Query()

	if got := q.Get("vnp_Amount"); got != "1000000" {
		t.Fatalf("expected amount in minor units x100, got %q", got)
	}
	if got := q.Get("vnp_TxnRef"); got != "42" {
		t.Fatalf("unexpected txn ref %q", got)
	}
	// UTC 02:30 is 09:30 on the gateway's fixed UTC+7 clock
	if got := q.Get("vnp_CreateDate"); got != "20250314093000" {
		t.Fatalf("unexpected create date %q", got)
	}
	if got := q.Get("vnp_ExpireDate"); got != "20250314094500" {
		t.Fatalf("expected expiry 15 minutes after create, got %q", got)
	}
	if q.Get("vnp_SecureHash") == "" {
		t.Fatal("missing signature parameter")
	}

	// the gateway echoes the same parameters back; verification must
	// accept its own output
	params := make(map[string]string)
	for name := range q {
		params[name] = q.Get(name)
	}
	if err := g.VerifyCallback(params); err != nil {
		t.Fatalf("round-trip verification failed: %v", err)
	}
}

func TestVerifyCallback_TamperedParameterFails(t *testing.T) {
	g := testGateway()

	raw := g.BuildPaymentURL(42, decimal.RequireFromString("10000"), "order 42", "203.0.113.7")
	u, _ := url.Parse(raw)

	base := make(map[string]string)
	for name := range u.Query() {
		base[name] = u.Query().Get(name)
	}

	for name := range base {
		if name == "vnp_SecureHash" {
			continue
		}
		tampered := make(map[string]string, len(base))
		for k, v := range base {
			tampered[k] = v
		}
		tampered[name] = tampered[name] + "x"

		if err := g.VerifyCallback(tampered); !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("tampering with %s was not detected", name)
		}
	}
}

func TestVerifyCallback_MissingSignature(t *testing.T) {
	g := testGateway()
	err := g.VerifyCallback(map[string]string{"vnp_TxnRef": "42"})
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyCallback_IgnoresHashTypeField(t *testing.T) {
	g := testGateway()

	raw := g.BuildPaymentURL(7, decimal.RequireFromString("150.50"), "order 7", "198.51.100.3")
	u, _ := url.Parse(raw)

	params := make(map[string]string)
	for name := range u.Query() {
		params[name] = u.Query().Get(name)
	}
	// gateways sometimes send the hash algorithm alongside; it is not
	// part of the signed payload
	params["vnp_SecureHashType"] = "HmacSHA512"

	if err := g.VerifyCallback(params); err != nil {
		t.Fatalf("expected verification to ignore vnp_SecureHashType: %v", err)
	}
}

func TestVerifyCallback_AcceptsUppercaseHash(t *testing.T) {
	g := testGateway()

	raw := g.BuildPaymentURL(9, decimal.RequireFromString("99.99"), "order 9", "198.51.100.3")
	u, _ := url.Parse(raw)

	params := make(map[string]string)
	for name := range u.Query() {
		params[name] = u.Query().Get(name)
	}
	params["vnp_SecureHash"] = strings.ToUpper(params["vnp_SecureHash"])

	if err := g.VerifyCallback(params); err != nil {
		t.Fatalf("uppercase hex digest should verify: %v", err)
	}
}
