package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greenbasket/storefront-api/internal/domain/cart"
	"github.com/greenbasket/storefront-api/internal/domain/catalog"
)

// Intent is a gateway-side pending-payment record. Amount is expressed in
// the smallest currency unit, as returned by the gateway.
type Intent struct {
	ID       string
	Amount   int64
	Currency string
}

// Gateway is the payment-gateway contract the order flow consumes: create a
// remote payment intent, and verify a payment callback's signature against
// the gateway's shared secret.
type Gateway interface {
	// CreateIntent registers a pending payment of amount whole currency
	// units for the given order. Calls must be bounded by a timeout.
	CreateIntent(ctx context.Context, orderID string, amount int64) (*Intent, error)

	// VerifySignature reports whether signature matches the gateway's
	// HMAC over the (intentID, paymentID) pair. Implementations must
	// compare in constant time.
	VerifySignature(intentID, paymentID, signature string) bool
}

// AddressBook checks that an order's address reference points at a stored
// address. Address management itself is an external surface.
type AddressBook interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// PlaceRequest is the caller-supplied cart snapshot for order creation.
type PlaceRequest struct {
	UserID    string
	AddressID string
	Items     []Item
}

// Checkout is the result of placing an online order: the stored order plus
// the gateway intent the client completes payment against.
type Checkout struct {
	Order  *Order
	Intent *Intent
}

// VerifyRequest carries a payment callback for reconciliation.
type VerifyRequest struct {
	IntentID  string
	PaymentID string
	Signature string
	OrderID   string
	UserID    string
}

// Service encapsulates order placement, payment reconciliation, and the
// lifecycle transitions.
type Service struct {
	pricer    *Pricer
	orders    Repository
	carts     cart.Store
	addresses AddressBook
	gateway   Gateway
	now       func() time.Time
}

// NewService creates an order Service with the required collaborators.
func NewService(
	c catalog.Repository,
	orders Repository,
	carts cart.Store,
	addresses AddressBook,
	gateway Gateway,
) *Service {
	return &Service{
		pricer:    NewPricer(c),
		orders:    orders,
		carts:     carts,
		addresses: addresses,
		gateway:   gateway,
		now:       time.Now,
	}
}

// validate checks the request's references before any pricing work.
func (s *Service) validate(ctx context.Context, req PlaceRequest) error {
	if req.UserID == "" {
		return ErrUserRequired
	}
	if req.AddressID == "" {
		return ErrAddressRequired
	}
	ok, err := s.addresses.Exists(ctx, req.AddressID)
	if err != nil {
		return errors.Wrap(err, "check address")
	}
	if !ok {
		return ErrAddressRequired
	}
	return nil
}

// place prices the cart snapshot and persists the immutable order record.
func (s *Service) place(ctx context.Context, req PlaceRequest, pt PaymentType) (*Order, error) {
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	amount, err := s.pricer.ComputeAmount(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	o := &Order{
		ID:          uuid.New().String(),
		UserID:      req.UserID,
		Items:       req.Items,
		Amount:      amount,
		AddressID:   req.AddressID,
		PaymentType: pt,
		IsPaid:      false,
		Status:      StatusPlaced,
		CreatedAt:   s.now(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return o, nil
}

// PlaceCOD places a cash-on-delivery order.
func (s *Service) PlaceCOD(ctx context.Context, req PlaceRequest) (*Order, error) {
	return s.place(ctx, req, PaymentCOD)
}

// PlaceOnline places an online order and creates a gateway payment intent
// for it. When intent creation fails the order persists unpaid and the call
// returns ErrGatewayUnavailable; CreateIntent may then be retried with the
// stored order's id without minting a duplicate order.
func (s *Service) PlaceOnline(ctx context.Context, req PlaceRequest) (*Checkout, error) {
	o, err := s.place(ctx, req, PaymentOnline)
	if err != nil {
		return nil, err
	}
	return s.checkout(ctx, o)
}

// CreateIntent creates (or re-creates) a payment intent for an existing
// unpaid online order. Keyed on the order id, it is the retry path after a
// gateway failure.
func (s *Service) CreateIntent(ctx context.Context, orderID string) (*Checkout, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.PaymentType != PaymentOnline || o.IsPaid {
		return nil, ErrNotAwaitingPayment
	}
	return s.checkout(ctx, o)
}

func (s *Service) checkout(ctx context.Context, o *Order) (*Checkout, error) {
	intent, err := s.gateway.CreateIntent(ctx, o.ID, o.Amount)
	if err != nil {
		zctx.From(ctx).Error("payment intent creation failed",
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
		return nil, errors.Wrap(ErrGatewayUnavailable, "create intent")
	}
	return &Checkout{Order: o, Intent: intent}, nil
}

// VerifyPayment reconciles a payment callback. On a signature match the
// order is marked paid and the user's cart is cleared; cart cleanup is
// best-effort and never unwinds the paid flag. On a mismatch the order is
// deleted — an order created only to obtain an intent must not survive as a
// record implying a charge happened.
//
// Both outcomes are idempotent: a retried webhook re-marks a paid order or
// re-deletes a deleted one without error.
func (s *Service) VerifyPayment(ctx context.Context, req VerifyRequest) error {
	lg := zctx.From(ctx)

	if !s.gateway.VerifySignature(req.IntentID, req.PaymentID, req.Signature) {
		// Integrity event, not bad input: logged apart from ordinary
		// validation failures so it can be alerted on.
		lg.Warn("payment signature mismatch",
			zap.String("order_id", req.OrderID),
			zap.String("intent_id", req.IntentID),
			zap.String("payment_id", req.PaymentID),
		)
		if err := s.orders.Delete(ctx, req.OrderID); err != nil {
			return errors.Wrap(err, "discard unverified order")
		}
		return ErrSignatureMismatch
	}

	if err := s.orders.MarkPaid(ctx, req.OrderID); err != nil {
		return errors.Wrap(err, "mark order paid")
	}

	if req.UserID != "" {
		if err := s.carts.Clear(ctx, req.UserID); err != nil {
			lg.Error("cart clear after payment failed",
				zap.String("order_id", req.OrderID),
				zap.String("user_id", req.UserID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// ListUserOrders returns the customer's visible orders (COD or paid).
func (s *Service) ListUserOrders(ctx context.Context, userID string) ([]Order, error) {
	if userID == "" {
		return nil, ErrUserRequired
	}
	return s.orders.ListByUser(ctx, userID)
}

// ListAllOrders returns every visible order for the operator view.
func (s *Service) ListAllOrders(ctx context.Context) ([]Order, error) {
	return s.orders.ListAll(ctx)
}

// SetStatus applies an operator-driven lifecycle transition. The value must
// be a member of the status enum; any member is accepted from any current
// state.
func (s *Service) SetStatus(ctx context.Context, orderID, status string) (*Order, error) {
	st, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return s.orders.SetStatus(ctx, orderID, st)
}
