package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greenbasket/storefront-api/internal/domain/order"
)

var _ order.AddressBook = (*AddressBook)(nil)

// AddressBook implements order.AddressBook backed by PostgreSQL. Address
// management (create, edit, delete) belongs to a separate surface; the
// order flow only verifies references.
type AddressBook struct {
	pool *pgxpool.Pool
}

// NewAddressBook returns an AddressBook using the given pool.
func NewAddressBook(pool *pgxpool.Pool) *AddressBook {
	return &AddressBook{pool: pool}
}

// Exists reports whether an address with the given id is stored.
func (b *AddressBook) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := b.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM addresses WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, errors.Wrapf(err, "check address %q", id)
	}
	return exists, nil
}
