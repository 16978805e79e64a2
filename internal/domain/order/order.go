// Package order implements order placement, payment reconciliation, and the
// delivery-status lifecycle.
package order

import (
	"context"
	"time"
)

// Status is a delivery lifecycle state. An order starts in StatusPlaced and
// is advanced by an operator; any member may be set from any state.
type Status string

const (
	StatusPlaced         Status = "Order Placed"
	StatusConfirmed      Status = "Order Confirmed"
	StatusShipped        Status = "Shipped"
	StatusOutForDelivery Status = "Out for Delivery"
	StatusDelivered      Status = "Delivered"
)

// ParseStatus validates a client-supplied status string against the fixed
// enum. It is the single choke point for status values entering the system.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPlaced, StatusConfirmed, StatusShipped, StatusOutForDelivery, StatusDelivered:
		return Status(s), nil
	}
	return "", ErrInvalidStatus
}

// PaymentType selects the payment path for an order.
type PaymentType string

const (
	PaymentCOD    PaymentType = "COD"
	PaymentOnline PaymentType = "Online"
)

// Item is one line of an order: a positional reference into a product's
// variant list plus a quantity. It snapshots intent, not price — the price
// read at creation time is baked into the order's Amount.
type Item struct {
	ProductID    string `json:"productId"`
	VariantIndex int    `json:"variantIndex"`
	Quantity     int    `json:"quantity"`
}

// Order is created once and then immutable except for IsPaid and Status.
// Amount is a whole-currency-unit integer computed server-side at creation.
type Order struct {
	ID          string
	UserID      string
	Items       []Item
	Amount      int64
	AddressID   string
	PaymentType PaymentType
	IsPaid      bool
	Status      Status
	CreatedAt   time.Time
}

// Repository defines persistence operations for orders. MarkPaid and Delete
// must be atomic single-row updates and idempotent: repeating either call
// for the same id is a no-op, never an error.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	MarkPaid(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	SetStatus(ctx context.Context, id string, status Status) (*Order, error)

	// ListByUser and ListAll return COD and paid online orders only,
	// newest first. Unpaid online orders are still awaiting gateway
	// verification and are not shown.
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
}
