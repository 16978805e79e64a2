package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/greenbasket/storefront-api/internal/domain/order"
)

// orderView is the JSON shape of an order in responses.
type orderView struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	Items       []order.Item `json:"items"`
	Amount      int64        `json:"amount"`
	AddressID   string       `json:"address"`
	PaymentType string       `json:"paymentType"`
	IsPaid      bool         `json:"isPaid"`
	Status      string       `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
}

func viewOrder(o *order.Order) orderView {
	return orderView{
		ID:          o.ID,
		UserID:      o.UserID,
		Items:       o.Items,
		Amount:      o.Amount,
		AddressID:   o.AddressID,
		PaymentType: string(o.PaymentType),
		IsPaid:      o.IsPaid,
		Status:      string(o.Status),
		CreatedAt:   o.CreatedAt,
	}
}

func viewOrders(orders []order.Order) []orderView {
	views := make([]orderView, len(orders))
	for i := range orders {
		views[i] = viewOrder(&orders[i])
	}
	return views
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type failBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func failJSON(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, failBody{Success: false, Message: message})
}

// respondError maps domain errors onto HTTP statuses and the
// success/message envelope. Unknown errors are logged and answered with a
// generic 500 so internals never leak to clients.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		pnf *order.ProductNotFoundError
		vnf *order.VariantNotFoundError
	)
	switch {
	case errors.As(err, &pnf):
		failJSON(w, http.StatusUnprocessableEntity, pnf.Error())
	case errors.As(err, &vnf):
		failJSON(w, http.StatusUnprocessableEntity, vnf.Error())
	case errors.Is(err, order.ErrEmptyOrder):
		failJSON(w, http.StatusBadRequest, order.ErrEmptyOrder.Error())
	case errors.Is(err, order.ErrAddressRequired):
		failJSON(w, http.StatusBadRequest, order.ErrAddressRequired.Error())
	case errors.Is(err, order.ErrUserRequired):
		failJSON(w, http.StatusBadRequest, order.ErrUserRequired.Error())
	case errors.Is(err, order.ErrInvalidStatus):
		failJSON(w, http.StatusBadRequest, "Invalid status")
	case errors.Is(err, order.ErrSignatureMismatch):
		failJSON(w, http.StatusBadRequest, "Payment Verification Failed")
	case errors.Is(err, order.ErrNotFound):
		failJSON(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, order.ErrNotAwaitingPayment):
		failJSON(w, http.StatusConflict, order.ErrNotAwaitingPayment.Error())
	case errors.Is(err, order.ErrGatewayUnavailable):
		failJSON(w, http.StatusBadGateway, "Payment gateway unavailable")
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		failJSON(w, http.StatusInternalServerError, "internal error")
	}
}
