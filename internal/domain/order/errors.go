package order

import "fmt"

// Sentinel errors surfaced at the request boundary.
var (
	ErrEmptyOrder         = fmt.Errorf("order has no items")
	ErrAddressRequired    = fmt.Errorf("address required")
	ErrUserRequired       = fmt.Errorf("user required")
	ErrNotFound           = fmt.Errorf("order not found")
	ErrInvalidStatus      = fmt.Errorf("invalid order status")
	ErrGatewayUnavailable = fmt.Errorf("payment gateway unavailable")
	ErrSignatureMismatch  = fmt.Errorf("payment signature mismatch")
	ErrNotAwaitingPayment = fmt.Errorf("order is not awaiting online payment")
)

// ProductNotFoundError indicates an order item references a product that
// does not exist in the catalog.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// VariantNotFoundError indicates an order item's variant index falls outside
// the product's variant list.
type VariantNotFoundError struct {
	ProductID    string
	VariantIndex int
}

func (e *VariantNotFoundError) Error() string {
	return fmt.Sprintf("product %s has no variant %d", e.ProductID, e.VariantIndex)
}
