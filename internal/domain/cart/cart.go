// Package cart defines the persisted-cart contract the order flow depends
// on. The cart itself is owned by the storefront UI surface; the order
// service only needs to empty it once a payment is confirmed.
package cart

import "context"

// Store clears a user's persisted cart. Clear must be idempotent: clearing
// an absent or already-empty cart is a no-op.
type Store interface {
	Clear(ctx context.Context, userID string) error
}
