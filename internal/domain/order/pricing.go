package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/greenbasket/storefront-api/internal/domain/catalog"
)

// taxRate is the flat surcharge applied once to the order subtotal.
var taxRate = decimal.New(2, -2) // 2%

// Pricer derives an authoritative order amount from item tuples against
// live catalog data. Client-submitted prices are never consulted.
type Pricer struct {
	catalog catalog.Repository
}

// NewPricer creates a Pricer over the given catalog.
func NewPricer(c catalog.Repository) *Pricer {
	return &Pricer{catalog: c}
}

// ComputeAmount prices the given items and returns the total in whole
// currency units. Entries with a non-positive quantity are dropped; a list
// that is empty, or becomes empty after dropping, fails with ErrEmptyOrder
// before any catalog lookup.
//
// The subtotal accumulates offerPrice × quantity in decimal arithmetic, the
// 2% surcharge is applied once to the subtotal, and the result is rounded
// half-up exactly once at the end.
func (p *Pricer) ComputeAmount(ctx context.Context, items []Item) (int64, error) {
	kept := make([]Item, 0, len(items))
	for _, item := range items {
		if item.Quantity > 0 {
			kept = append(kept, item)
		}
	}
	if len(kept) == 0 {
		return 0, ErrEmptyOrder
	}

	// Batch fetch all referenced products in a single query.
	ids := make([]string, 0, len(kept))
	seen := make(map[string]struct{}, len(kept))
	for _, item := range kept {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	fetched, err := p.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return 0, errors.Wrap(err, "get products")
	}

	byID := make(map[string]*catalog.Product, len(fetched))
	for i := range fetched {
		byID[fetched[i].ID] = &fetched[i]
	}

	subtotal := decimal.Zero
	for _, item := range kept {
		product, ok := byID[item.ProductID]
		if !ok {
			return 0, &ProductNotFoundError{ProductID: item.ProductID}
		}
		variant, ok := product.VariantAt(item.VariantIndex)
		if !ok {
			return 0, &VariantNotFoundError{
				ProductID:    item.ProductID,
				VariantIndex: item.VariantIndex,
			}
		}
		qty := decimal.NewFromInt(int64(item.Quantity))
		subtotal = subtotal.Add(variant.OfferPrice.Mul(qty))
	}

	total := subtotal.Add(subtotal.Mul(taxRate))

	// Round(0) rounds half away from zero; amounts are non-negative, so
	// this is the half-up policy applied at the single rounding point.
	return total.Round(0).IntPart(), nil
}
