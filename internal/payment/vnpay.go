package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hoangng/fitwear-backend/internal/config"
)

var ErrInvalidSignature = errors.New("invalid callback signature")

// SuccessCode is the gateway response code meaning the payment went
// through; every other code is a failure.
const SuccessCode = "00"

const (
	paramTxnRef       = "vnp_TxnRef"
	paramResponseCode = "vnp_ResponseCode"
	paramSecureHash   = "vnp_SecureHash"
	paramHashType     = "vnp_SecureHashType"

	timeLayout = "20060102150405"
)

// The gateway formats all timestamps on a fixed UTC+7 clock regardless
// of where the merchant runs.
var gatewayZone = time.FixedZone("UTC+7", 7*60*60)

// Gateway canonicalizes, signs and verifies the VNPay parameter
// protocol. The same canonicalization routine backs outbound signing,
// outbound URL building and inbound verification so the three can
// never drift apart.
type Gateway struct {
	cfg config.VNPayConfig

	// Now is swappable for deterministic URL tests.
	Now func() time.Time
}

func NewGateway(cfg config.VNPayConfig) *Gateway {
	return &Gateway{cfg: cfg, Now: time.Now}
}

// encoding selects how canonicalize escapes parameters. The gateway
// signs over ASCII-escaped values with raw names, but expects the
// redirect query string fully percent-encoded.
type encoding int

const (
	encodeHash encoding = iota
	encodeQuery
)

// canonicalize serializes params deterministically: names sorted
// ascending, empty values skipped, `name=value` pairs joined by `&`.
func canonicalize(params map[string]string, enc encoding) string {
	names := make([]string, 0, len(params))
	for name, value := range params {
		if value == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte('&')
		}
		switch enc {
		case encodeQuery:
			b.WriteString(url.QueryEscape(name))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(params[name]))
		default:
			b.WriteString(name)
			b.WriteByte('=')
			b.WriteString(asciiEscape(params[name]))
		}
	}
	return b.String()
}

// asciiEscape percent-encodes a value the way the gateway's ASCII
// signing variant does: non-ASCII runes degrade to '?' before the
// usual query escaping.
func asciiEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r > 127 {
			b.WriteByte('?')
			continue
		}
		b.WriteRune(r)
	}
	return url.QueryEscape(b.String())
}

// sign computes the lowercase hex HMAC-SHA512 of data under the shared
// secret.
func sign(secret, data string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// BuildPaymentURL assembles the signed redirect URL for an order.
// amount is the order total in currency units; the gateway protocol
// carries it multiplied by 100.
func (g *Gateway) BuildPaymentURL(orderID int, amount decimal.Decimal, orderInfo, clientIP string) string {
	create := g.Now().In(gatewayZone)

	params := map[string]string{
		"vnp_Version":    g.cfg.Version,
		"vnp_Command":    g.cfg.Command,
		"vnp_TmnCode":    g.cfg.TmnCode,
		"vnp_Amount":     strconv.FormatInt(amount.Shift(2).IntPart(), 10),
		"vnp_CurrCode":   g.cfg.CurrCode,
		"vnp_Locale":     g.cfg.Locale,
		paramTxnRef:      strconv.Itoa(orderID),
		"vnp_OrderInfo":  orderInfo,
		"vnp_OrderType":  g.cfg.OrderType,
		"vnp_ReturnUrl":  g.cfg.ReturnURL,
		"vnp_IpAddr":     clientIP,
		"vnp_CreateDate": create.Format(timeLayout),
		"vnp_ExpireDate": create.Add(15 * time.Minute).Format(timeLayout),
	}

	secureHash := sign(g.cfg.SecretKey, canonicalize(params, encodeHash))
	query := canonicalize(params, encodeQuery)

	// the signature itself travels unsigned
	return g.cfg.PayURL + "?" + query + "&" + paramSecureHash + "=" + secureHash
}

// VerifyCallback recomputes the signature over every received
// parameter except the signature fields and compares it in constant
// time. No state may change when this fails.
func (g *Gateway) VerifyCallback(params map[string]string) error {
	received, ok := params[paramSecureHash]
	if !ok || received == "" {
		return ErrInvalidSignature
	}

	signable := make(map[string]string, len(params))
	for name, value := range params {
		if name == paramSecureHash || name == paramHashType {
			continue
		}
		signable[name] = value
	}

	computed := sign(g.cfg.SecretKey, canonicalize(signable, encodeHash))
	if !hmac.Equal([]byte(computed), []byte(strings.ToLower(received))) {
		return ErrInvalidSignature
	}
	return nil
}
