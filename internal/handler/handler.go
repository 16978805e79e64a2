// Package handler exposes the order service over JSON HTTP, mirroring the
// storefront's route table.
package handler

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/greenbasket/storefront-api/internal/domain/order"
)

// Config holds non-dependency settings for the Handler.
type Config struct {
	// GatewayKeyID is the public key identifier handed to the client-side
	// checkout widget.
	GatewayKeyID string

	// OperatorKey guards the operator-facing routes. Empty disables them.
	OperatorKey string
}

// Handler serves the order endpoints, delegating all business logic to the
// order service.
type Handler struct {
	orders       *order.Service
	gatewayKeyID string
	operatorKey  []byte
}

// New constructs a Handler.
func New(cfg Config, orders *order.Service) *Handler {
	return &Handler{
		orders:       orders,
		gatewayKeyID: cfg.GatewayKeyID,
		operatorKey:  []byte(cfg.OperatorKey),
	}
}

// Routes builds the router:
//
//	POST /api/order/cod              place a cash-on-delivery order
//	POST /api/order/razorpay         place an online order + payment intent
//	POST /api/order/razorpay/verify  reconcile a payment callback
//	GET  /api/order/user             customer's own orders
//	GET  /api/order/seller           operator order listing
//	POST /api/order/status/{id}      operator status transition
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Route("/api/order", func(r chi.Router) {
		r.Post("/cod", h.placeCOD)
		r.Post("/razorpay", h.placeRazorpay)
		r.Post("/razorpay/verify", h.verifyRazorpay)
		r.Get("/user", h.userOrders)

		r.Group(func(r chi.Router) {
			r.Use(h.requireOperator)
			r.Get("/seller", h.sellerOrders)
			r.Post("/status/{id}", h.updateStatus)
		})
	})
	return r
}

// requireOperator gates operator routes on the X-Operator-Key header. Keys
// are compared through SHA-256 digests in constant time so neither length
// nor prefix leaks.
func (h *Handler) requireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(h.operatorKey) == 0 {
			failJSON(w, http.StatusUnauthorized, "operator access disabled")
			return
		}
		got := sha256.Sum256([]byte(r.Header.Get("X-Operator-Key")))
		want := sha256.Sum256(h.operatorKey)
		if subtle.ConstantTimeCompare(got[:], want[:]) != 1 {
			failJSON(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
