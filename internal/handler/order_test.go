package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenbasket/storefront-api/internal/domain/catalog"
	"github.com/greenbasket/storefront-api/internal/domain/order"
)

const testOperatorKey = "test-operator-key"

// --- In-memory collaborators ---

type memCatalog struct {
	products map[string]catalog.Product
}

func (m *memCatalog) List(_ context.Context) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *memCatalog) GetByID(_ context.Context, id string) (*catalog.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &p, nil
}

func (m *memCatalog) GetByIDs(_ context.Context, ids []string) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type memOrders struct {
	orders map[string]*order.Order
	seq    []string
}

func newMemOrders() *memOrders {
	return &memOrders{orders: make(map[string]*order.Order)}
}

func (m *memOrders) Create(_ context.Context, o *order.Order) error {
	cp := *o
	m.orders[o.ID] = &cp
	m.seq = append(m.seq, o.ID)
	return nil
}

func (m *memOrders) GetByID(_ context.Context, id string) (*order.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) MarkPaid(_ context.Context, id string) error {
	o, ok := m.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.IsPaid = true
	return nil
}

func (m *memOrders) Delete(_ context.Context, id string) error {
	delete(m.orders, id)
	return nil
}

func (m *memOrders) SetStatus(_ context.Context, id string, status order.Status) (*order.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	o.Status = status
	cp := *o
	return &cp, nil
}

func (m *memOrders) visible(filter func(*order.Order) bool) []order.Order {
	var out []order.Order
	// Newest first: reverse insertion order.
	for i := len(m.seq) - 1; i >= 0; i-- {
		o, ok := m.orders[m.seq[i]]
		if !ok {
			continue
		}
		if (o.PaymentType == order.PaymentCOD || o.IsPaid) && filter(o) {
			out = append(out, *o)
		}
	}
	return out
}

func (m *memOrders) ListByUser(_ context.Context, userID string) ([]order.Order, error) {
	return m.visible(func(o *order.Order) bool { return o.UserID == userID }), nil
}

func (m *memOrders) ListAll(_ context.Context) ([]order.Order, error) {
	return m.visible(func(*order.Order) bool { return true }), nil
}

type memCarts struct {
	cleared []string
}

func (m *memCarts) Clear(_ context.Context, userID string) error {
	m.cleared = append(m.cleared, userID)
	return nil
}

type memAddresses struct{}

func (memAddresses) Exists(_ context.Context, id string) (bool, error) {
	return id == "addr-1", nil
}

type stubGateway struct {
	failCreate bool
}

func (g *stubGateway) CreateIntent(_ context.Context, orderID string, amount int64) (*order.Intent, error) {
	if g.failCreate {
		return nil, assert.AnError
	}
	return &order.Intent{ID: "intent_" + orderID, Amount: amount * 100, Currency: "INR"}, nil
}

func (g *stubGateway) VerifySignature(_, _, signature string) bool {
	return signature == "valid"
}

// --- Fixture ---

type handlerFixture struct {
	srv     *httptest.Server
	orders  *memOrders
	carts   *memCarts
	gateway *stubGateway
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	cat := &memCatalog{products: map[string]catalog.Product{
		"p1": {
			ID:      "p1",
			Name:    "Potato",
			InStock: true,
			Variants: []catalog.Variant{{
				Unit:       "kg",
				Weight:     decimal.NewFromInt(1),
				Price:      decimal.RequireFromString("100.00"),
				OfferPrice: decimal.RequireFromString("80.00"),
			}},
		},
	}}

	f := &handlerFixture{
		orders:  newMemOrders(),
		carts:   &memCarts{},
		gateway: &stubGateway{},
	}
	svc := order.NewService(cat, f.orders, f.carts, memAddresses{}, f.gateway)
	h := New(Config{GatewayKeyID: "rzp_test_key", OperatorKey: testOperatorKey}, svc)

	f.srv = httptest.NewServer(h.Routes())
	t.Cleanup(f.srv.Close)
	return f
}

func (f *handlerFixture) do(t *testing.T, method, path string, body any, header map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}

	resp, err := f.srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func placeBody() map[string]any {
	return map[string]any{
		"userId":  "user-1",
		"address": "addr-1",
		"items": []map[string]any{
			{"productId": "p1", "variantIndex": 0, "quantity": 2},
		},
	}
}

// --- COD ---

func TestPlaceCODEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	resp, body := f.do(t, http.MethodPost, "/api/order/cod", placeBody(), nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Order Placed Successfully", body["message"])
	assert.Len(t, f.orders.orders, 1)
}

func TestPlaceCODEndpoint_MissingAddress(t *testing.T) {
	f := newHandlerFixture(t)

	payload := placeBody()
	payload["address"] = ""
	resp, body := f.do(t, http.MethodPost, "/api/order/cod", payload, nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "address required", body["message"])
}

func TestPlaceCODEndpoint_UnknownProduct(t *testing.T) {
	f := newHandlerFixture(t)

	payload := placeBody()
	payload["items"] = []map[string]any{
		{"productId": "ghost", "variantIndex": 0, "quantity": 1},
	}
	resp, body := f.do(t, http.MethodPost, "/api/order/cod", payload, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body["message"], "ghost")
}

func TestPlaceCODEndpoint_BadJSON(t *testing.T) {
	f := newHandlerFixture(t)

	resp, err := f.srv.Client().Post(f.srv.URL+"/api/order/cod", "application/json", bytes.NewBufferString("{"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// --- Online ---

func TestPlaceRazorpayEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	resp, body := f.do(t, http.MethodPost, "/api/order/razorpay", placeBody(), nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "rzp_test_key", body["key"])
	assert.Equal(t, "INR", body["currency"])
	assert.Equal(t, float64(16300), body["amount"])
	assert.NotEmpty(t, body["orderId"])
	assert.NotEmpty(t, body["orderDbId"])
}

func TestPlaceRazorpayEndpoint_GatewayDown(t *testing.T) {
	f := newHandlerFixture(t)
	f.gateway.failCreate = true

	resp, body := f.do(t, http.MethodPost, "/api/order/razorpay", placeBody(), nil)

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	// The order is kept for the retry path.
	assert.Len(t, f.orders.orders, 1)
}

// --- Verification ---

func TestVerifyRazorpayEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	_, placed := f.do(t, http.MethodPost, "/api/order/razorpay", placeBody(), nil)
	dbID := placed["orderDbId"].(string)

	resp, body := f.do(t, http.MethodPost, "/api/order/razorpay/verify", map[string]any{
		"razorpay_order_id":   placed["orderId"],
		"razorpay_payment_id": "pay_123",
		"razorpay_signature":  "valid",
		"orderId":             dbID,
		"userId":              "user-1",
	}, nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Payment Verified", body["message"])

	stored, err := f.orders.GetByID(context.Background(), dbID)
	require.NoError(t, err)
	assert.True(t, stored.IsPaid)
	assert.Equal(t, []string{"user-1"}, f.carts.cleared)
}

func TestVerifyRazorpayEndpoint_Mismatch(t *testing.T) {
	f := newHandlerFixture(t)

	_, placed := f.do(t, http.MethodPost, "/api/order/razorpay", placeBody(), nil)
	dbID := placed["orderDbId"].(string)

	resp, body := f.do(t, http.MethodPost, "/api/order/razorpay/verify", map[string]any{
		"razorpay_order_id":   placed["orderId"],
		"razorpay_payment_id": "pay_123",
		"razorpay_signature":  "forged",
		"orderId":             dbID,
		"userId":              "user-1",
	}, nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Payment Verification Failed", body["message"])

	_, err := f.orders.GetByID(context.Background(), dbID)
	assert.ErrorIs(t, err, order.ErrNotFound)
}

// --- Listings ---

func TestUserOrdersEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	f.do(t, http.MethodPost, "/api/order/cod", placeBody(), nil)
	// Unpaid online order must not show up.
	f.do(t, http.MethodPost, "/api/order/razorpay", placeBody(), nil)

	resp, body := f.do(t, http.MethodGet, "/api/order/user?userId=user-1", nil, nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	orders := body["orders"].([]any)
	require.Len(t, orders, 1)
	first := orders[0].(map[string]any)
	assert.Equal(t, "COD", first["paymentType"])
	assert.Equal(t, float64(163), first["amount"])
	assert.Equal(t, "Order Placed", first["status"])
}

func TestUserOrdersEndpoint_MissingUser(t *testing.T) {
	f := newHandlerFixture(t)

	resp, _ := f.do(t, http.MethodGet, "/api/order/user", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// --- Operator routes ---

func operatorHeader() map[string]string {
	return map[string]string{"X-Operator-Key": testOperatorKey}
}

func TestSellerOrdersEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	f.do(t, http.MethodPost, "/api/order/cod", placeBody(), nil)

	resp, body := f.do(t, http.MethodGet, "/api/order/seller", nil, operatorHeader())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["orders"], 1)
}

func TestSellerOrdersEndpoint_Unauthorized(t *testing.T) {
	f := newHandlerFixture(t)

	resp, body := f.do(t, http.MethodGet, "/api/order/seller", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, false, body["success"])

	resp, _ = f.do(t, http.MethodGet, "/api/order/seller", nil,
		map[string]string{"X-Operator-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUpdateStatusEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	f.do(t, http.MethodPost, "/api/order/cod", placeBody(), nil)
	var id string
	for oid := range f.orders.orders {
		id = oid
	}

	resp, body := f.do(t, http.MethodPost, "/api/order/status/"+id,
		map[string]any{"status": "Out for Delivery"}, operatorHeader())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Status updated", body["message"])
	updated := body["order"].(map[string]any)
	assert.Equal(t, "Out for Delivery", updated["status"])
}

func TestUpdateStatusEndpoint_InvalidStatus(t *testing.T) {
	f := newHandlerFixture(t)

	f.do(t, http.MethodPost, "/api/order/cod", placeBody(), nil)
	var id string
	for oid := range f.orders.orders {
		id = oid
	}

	resp, body := f.do(t, http.MethodPost, "/api/order/status/"+id,
		map[string]any{"status": "Cancelled"}, operatorHeader())

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid status", body["message"])
}

func TestUpdateStatusEndpoint_UnknownOrder(t *testing.T) {
	f := newHandlerFixture(t)

	resp, body := f.do(t, http.MethodPost, "/api/order/status/missing",
		map[string]any{"status": "Shipped"}, operatorHeader())

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Order not found", body["message"])
}

func TestUpdateStatusEndpoint_RequiresOperator(t *testing.T) {
	f := newHandlerFixture(t)

	resp, _ := f.do(t, http.MethodPost, "/api/order/status/any",
		map[string]any{"status": "Shipped"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
