package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greenbasket/storefront-api/internal/domain/catalog"
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
// Variants live in product_variants keyed (product_id, position) and are
// always loaded in position order, preserving the positional reference
// contract.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository using the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

const selectProducts = `SELECT id, name, category, in_stock FROM products`

const selectVariants = `SELECT product_id, unit, weight, price, offer_price
	FROM product_variants WHERE product_id = ANY($1) ORDER BY product_id, position`

// List returns the full catalog with variants.
func (r *CatalogRepository) List(ctx context.Context) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, selectProducts+` ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	products, err := scanProducts(rows)
	if err != nil {
		return nil, err
	}
	return r.attachVariants(ctx, products)
}

// GetByID returns a single product with its variants, or catalog.ErrNotFound.
func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	products, err := r.GetByIDs(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, catalog.ErrNotFound
	}
	return &products[0], nil
}

// GetByIDs batch-fetches products by id. Missing ids are simply absent from
// the result; the caller decides whether that is an error.
func (r *CatalogRepository) GetByIDs(ctx context.Context, ids []string) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, selectProducts+` WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	products, err := scanProducts(rows)
	if err != nil {
		return nil, err
	}
	return r.attachVariants(ctx, products)
}

func scanProducts(rows pgx.Rows) ([]catalog.Product, error) {
	defer rows.Close()

	var products []catalog.Product
	for rows.Next() {
		var p catalog.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.InStock); err != nil {
			return nil, errors.Wrap(err, "scan product")
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// attachVariants loads the ordered variant lists for the given products.
func (r *CatalogRepository) attachVariants(ctx context.Context, products []catalog.Product) ([]catalog.Product, error) {
	if len(products) == 0 {
		return products, nil
	}

	ids := make([]string, len(products))
	index := make(map[string]int, len(products))
	for i, p := range products {
		ids[i] = p.ID
		index[p.ID] = i
	}

	rows, err := r.pool.Query(ctx, selectVariants, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get variants")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			productID string
			v         catalog.Variant
		)
		if err := rows.Scan(&productID, &v.Unit, &v.Weight, &v.Price, &v.OfferPrice); err != nil {
			return nil, errors.Wrap(err, "scan variant")
		}
		i := index[productID]
		products[i].Variants = append(products[i].Variants, v)
	}
	return products, rows.Err()
}
