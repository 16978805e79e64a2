package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greenbasket/storefront-api/internal/domain/cart"
)

var _ cart.Store = (*CartStore)(nil)

// CartStore implements cart.Store backed by PostgreSQL.
type CartStore struct {
	pool *pgxpool.Pool
}

// NewCartStore returns a CartStore using the given pool.
func NewCartStore(pool *pgxpool.Pool) *CartStore {
	return &CartStore{pool: pool}
}

// Clear empties the user's persisted cart. A user without a cart row is
// already clear, so a zero-row update is not an error.
func (s *CartStore) Clear(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE carts SET items = '{}'::jsonb, updated_at = now() WHERE user_id = $1`,
		userID)
	if err != nil {
		return errors.Wrapf(err, "clear cart for user %q", userID)
	}
	return nil
}
