package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/greenbasket/storefront-api/internal/domain/order"
)

type itemPayload struct {
	ProductID    string `json:"productId"`
	VariantIndex int    `json:"variantIndex"`
	Quantity     int    `json:"quantity"`
}

type placePayload struct {
	UserID  string        `json:"userId"`
	Items   []itemPayload `json:"items"`
	Address string        `json:"address"`
}

func (p placePayload) toRequest() order.PlaceRequest {
	items := make([]order.Item, len(p.Items))
	for i, it := range p.Items {
		items[i] = order.Item{
			ProductID:    it.ProductID,
			VariantIndex: it.VariantIndex,
			Quantity:     it.Quantity,
		}
	}
	return order.PlaceRequest{
		UserID:    p.UserID,
		AddressID: p.Address,
		Items:     items,
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		failJSON(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// placeCOD handles POST /api/order/cod.
func (h *Handler) placeCOD(w http.ResponseWriter, r *http.Request) {
	var p placePayload
	if !decodeBody(w, r, &p) {
		return
	}

	if _, err := h.orders.PlaceCOD(r.Context(), p.toRequest()); err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Order Placed Successfully",
	})
}

// placeRazorpay handles POST /api/order/razorpay: it stores the order and
// returns the gateway intent the client-side checkout completes. Amount and
// currency echo the gateway's figures, in the smallest currency unit.
func (h *Handler) placeRazorpay(w http.ResponseWriter, r *http.Request) {
	var p placePayload
	if !decodeBody(w, r, &p) {
		return
	}

	checkout, err := h.orders.PlaceOnline(r.Context(), p.toRequest())
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"key":       h.gatewayKeyID,
		"amount":    checkout.Intent.Amount,
		"currency":  checkout.Intent.Currency,
		"orderId":   checkout.Intent.ID,
		"orderDbId": checkout.Order.ID,
	})
}

type verifyPayload struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
	OrderID           string `json:"orderId"`
	UserID            string `json:"userId"`
}

// verifyRazorpay handles POST /api/order/razorpay/verify.
func (h *Handler) verifyRazorpay(w http.ResponseWriter, r *http.Request) {
	var p verifyPayload
	if !decodeBody(w, r, &p) {
		return
	}

	err := h.orders.VerifyPayment(r.Context(), order.VerifyRequest{
		IntentID:  p.RazorpayOrderID,
		PaymentID: p.RazorpayPaymentID,
		Signature: p.RazorpaySignature,
		OrderID:   p.OrderID,
		UserID:    p.UserID,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Payment Verified",
	})
}

// userOrders handles GET /api/order/user. Identity comes from the userId
// query parameter; session handling lives in the excluded auth surface.
func (h *Handler) userOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListUserOrders(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"orders":  viewOrders(orders),
	})
}

// sellerOrders handles GET /api/order/seller.
func (h *Handler) sellerOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAllOrders(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"orders":  viewOrders(orders),
	})
}

type statusPayload struct {
	Status string `json:"status"`
}

// updateStatus handles POST /api/order/status/{id}.
func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var p statusPayload
	if !decodeBody(w, r, &p) {
		return
	}

	o, err := h.orders.SetStatus(r.Context(), chi.URLParam(r, "id"), p.Status)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"order":   viewOrder(o),
		"message": "Status updated",
	})
}
