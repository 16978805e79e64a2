package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		KeyID:     "rzp_test_key",
		KeySecret: "rzp_test_secret",
		BaseURL:   srv.URL,
		Currency:  "INR",
		Timeout:   2 * time.Second,
	})
}

func TestCreateIntent(t *testing.T) {
	var captured struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Receipt  string `json:"receipt"`
	}
	var user, pass string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, _ = r.BasicAuth()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "order_ABC123",
			"entity": "order",
			"amount": 16300,
			"amount_paid": 0,
			"currency": "INR",
			"receipt": "order_rcptid_ord-1",
			"status": "created",
			"notes": []
		}`))
	})

	intent, err := c.CreateIntent(context.Background(), "ord-1", 163)
	require.NoError(t, err)

	assert.Equal(t, "order_ABC123", intent.ID)
	assert.Equal(t, int64(16300), intent.Amount)
	assert.Equal(t, "INR", intent.Currency)

	// Whole units are converted to the smallest unit on the wire.
	assert.Equal(t, int64(16300), captured.Amount)
	assert.Equal(t, "INR", captured.Currency)
	assert.Equal(t, "order_rcptid_ord-1", captured.Receipt)

	assert.Equal(t, "rzp_test_key", user)
	assert.Equal(t, "rzp_test_secret", pass)
}

func TestCreateIntent_GatewayError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.CreateIntent(context.Background(), "ord-1", 163)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestCreateIntent_MissingID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"amount": 16300, "currency": "INR"}`))
	})

	_, err := c.CreateIntent(context.Background(), "ord-1", 163)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no order id")
}

func TestCreateIntent_MalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id": `))
	})

	_, err := c.CreateIntent(context.Background(), "ord-1", 163)
	require.Error(t, err)
}

func TestCreateIntent_ContextCanceled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server starts its background connection
		// read; without it the client's disconnect is never observed and
		// r.Context() is never canceled, deadlocking srv.Close.
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.CreateIntent(ctx, "ord-1", 163)
	require.Error(t, err)
}

func sign(secret, intentID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(intentID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	c := NewClient(Config{KeyID: "k", KeySecret: "secret", Currency: "INR"})

	good := sign("secret", "order_ABC123", "pay_XYZ789")
	assert.True(t, c.VerifySignature("order_ABC123", "pay_XYZ789", good))

	// Flip one hex digit.
	mutated := []byte(good)
	if mutated[0] == '0' {
		mutated[0] = '1'
	} else {
		mutated[0] = '0'
	}
	assert.False(t, c.VerifySignature("order_ABC123", "pay_XYZ789", string(mutated)))
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	c := NewClient(Config{KeyID: "k", KeySecret: "secret", Currency: "INR"})

	forged := sign("other-secret", "order_ABC123", "pay_XYZ789")
	assert.False(t, c.VerifySignature("order_ABC123", "pay_XYZ789", forged))
}

func TestVerifySignature_SwappedIDs(t *testing.T) {
	c := NewClient(Config{KeyID: "k", KeySecret: "secret", Currency: "INR"})

	// The delimiter binds each id to its position; swapping them must fail.
	good := sign("secret", "order_A", "pay_B")
	assert.False(t, c.VerifySignature("pay_B", "order_A", good))
}

func TestVerifySignature_BadEncoding(t *testing.T) {
	c := NewClient(Config{KeyID: "k", KeySecret: "secret", Currency: "INR"})

	assert.False(t, c.VerifySignature("order_A", "pay_B", "not-hex!"))
	assert.False(t, c.VerifySignature("order_A", "pay_B", ""))
}
