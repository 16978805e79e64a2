// Package razorpay is the payment-gateway adapter: it creates payment
// intents through the Razorpay Orders API and verifies callback signatures.
// The order flow consumes it through the order.Gateway interface only.
package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/greenbasket/storefront-api/internal/domain/order"
)

const defaultBaseURL = "https://api.razorpay.com"

// Config holds the gateway credentials and tuning. Credentials always come
// from configuration; they are never embedded in code.
type Config struct {
	KeyID     string
	KeySecret string

	// BaseURL overrides the API endpoint, primarily for tests.
	BaseURL string

	// Currency is the ISO code sent with every intent.
	Currency string

	// Timeout bounds every outbound call. Zero means 10s.
	Timeout time.Duration
}

// Client talks to the Razorpay Orders API.
type Client struct {
	http      *http.Client
	baseURL   string
	keyID     string
	keySecret []byte
	currency  string
}

var _ order.Gateway = (*Client)(nil)

// NewClient creates a Client from the given config.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		baseURL:   baseURL,
		keyID:     cfg.KeyID,
		keySecret: []byte(cfg.KeySecret),
		currency:  cfg.Currency,
	}
}

// KeyID returns the public key identifier the storefront hands to the
// client-side checkout widget.
func (c *Client) KeyID() string {
	return c.keyID
}

// CreateIntent registers a pending payment with the gateway. The amount
// arrives in whole currency units and is converted to the smallest unit on
// the wire, per gateway convention.
func (c *Client) CreateIntent(ctx context.Context, orderID string, amount int64) (*order.Intent, error) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("amount")
	e.Int64(amount * 100)
	e.FieldStart("currency")
	e.Str(c.currency)
	e.FieldStart("receipt")
	e.Str("order_rcptid_" + orderID)
	e.ObjEnd()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(e.Bytes()))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, string(c.keySecret))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "call gateway")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "read gateway response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("gateway returned %d", resp.StatusCode)
	}

	intent, err := decodeIntent(body)
	if err != nil {
		return nil, errors.Wrap(err, "decode gateway response")
	}
	if intent.ID == "" {
		return nil, errors.New("gateway response has no order id")
	}
	return intent, nil
}

// decodeIntent extracts the fields the order flow needs from the gateway's
// order object, skipping everything else.
func decodeIntent(data []byte) (*order.Intent, error) {
	var intent order.Intent
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			s, err := d.Str()
			intent.ID = s
			return err
		case "amount":
			n, err := d.Int64()
			intent.Amount = n
			return err
		case "currency":
			s, err := d.Str()
			intent.Currency = s
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, err
	}
	return &intent, nil
}

// VerifySignature recomputes the HMAC-SHA256 of "intentID|paymentID" under
// the key secret and compares it to the client-supplied hex signature in
// constant time.
func (c *Client) VerifySignature(intentID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, c.keySecret)
	mac.Write([]byte(intentID))
	mac.Write([]byte{'|'})
	mac.Write([]byte(paymentID))
	expected := mac.Sum(nil)

	supplied, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(expected, supplied) == 1
}
