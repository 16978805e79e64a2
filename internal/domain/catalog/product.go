// Package catalog holds the product catalog read model consumed by order
// pricing. Catalog writes (product CRUD, image upload) belong to a separate
// surface and are not part of this service.
package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Variant is a purchasable pack size of a product. Variants are referenced
// by their position in the product's variant list, so the list order is part
// of the contract.
type Variant struct {
	Unit       string
	Weight     decimal.Decimal
	Price      decimal.Decimal
	OfferPrice decimal.Decimal
}

// Product is a catalog item with its ordered variant list.
type Product struct {
	ID       string
	Name     string
	Category string
	InStock  bool
	Variants []Variant
}

// VariantAt returns the variant at the given position, or false when the
// index is out of range.
func (p *Product) VariantAt(index int) (Variant, bool) {
	if index < 0 || index >= len(p.Variants) {
		return Variant{}, false
	}
	return p.Variants[index], true
}

// Repository defines read operations over the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}
