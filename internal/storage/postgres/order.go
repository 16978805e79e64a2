package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greenbasket/storefront-api/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. All
// mutations are single-row statements, so concurrency safety comes from the
// database rather than in-process locks.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository using the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

const orderColumns = `id, user_id, items, amount, address_id, payment_type, is_paid, status, created_at`

const createOrderSQL = `INSERT INTO orders (id, user_id, items, amount, address_id, payment_type, is_paid, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// visibleOrders filters to orders a customer or operator should see: COD
// orders and verified online orders. Unpaid online orders are the
// intermediate state between intent creation and reconciliation.
const visibleOrders = `(payment_type = 'COD' OR is_paid)`

// Create persists a new order. Items are serialized to JSON for the JSONB
// column.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return errors.Wrap(err, "marshal order items")
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.UserID, itemsJSON, o.Amount, o.AddressID,
		string(o.PaymentType), o.IsPaid, string(o.Status), o.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "create order %q", o.ID)
	}
	return nil
}

// GetByID returns the order with the given id, or order.ErrNotFound.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %q", id)
	}
	return o, nil
}

// MarkPaid atomically sets the paid flag. Setting it on an already-paid
// order is a no-op; an unknown id returns order.ErrNotFound.
func (r *OrderRepository) MarkPaid(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE orders SET is_paid = TRUE WHERE id = $1`, id)
	if err != nil {
		return errors.Wrapf(err, "mark order %q paid", id)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// Delete removes an order. Deleting an already-deleted order is a no-op.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		return errors.Wrapf(err, "delete order %q", id)
	}
	return nil
}

// SetStatus updates the lifecycle status and returns the updated order, or
// order.ErrNotFound for an unknown id.
func (r *OrderRepository) SetStatus(ctx context.Context, id string, status order.Status) (*order.Order, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE orders SET status = $2 WHERE id = $1 RETURNING `+orderColumns,
		id, string(status),
	)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "set status of order %q", id)
	}
	return o, nil
}

// ListByUser returns the user's visible orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE user_id = $1 AND `+visibleOrders+`
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list user orders")
	}
	return scanOrders(rows)
}

// ListAll returns every visible order, newest first.
func (r *OrderRepository) ListAll(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE `+visibleOrders+`
		 ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return scanOrders(rows)
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		o           order.Order
		itemsJSON   []byte
		paymentType string
		status      string
	)
	err := row.Scan(&o.ID, &o.UserID, &itemsJSON, &o.Amount, &o.AddressID,
		&paymentType, &o.IsPaid, &status, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, errors.Wrap(err, "unmarshal order items")
	}
	o.PaymentType = order.PaymentType(paymentType)
	o.Status = order.Status(status)
	return &o, nil
}

func scanOrders(rows pgx.Rows) ([]order.Order, error) {
	defer rows.Close()

	var orders []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}
