package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/domain"
)

type OrderRepository struct {
	db
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{db: db{pool: pool}}
}

func (r *OrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// CreateOrder inserts the order row and its items atomically. Inside a caller's transaction the
// insert runs under a savepoint, so an idempotency conflict can be followed by a lookup.
func (r *OrderRepository) CreateOrder(ctx context.Context, order domain.Order) error {
	const orderStmt = `
INSERT INTO orders (id, customer_id, credit_card_id, status, idempotency_key, created_at, updated_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)`
	const itemStmt = `
INSERT INTO order_items (order_id, position, product_id, quantity)
VALUES ($1, $2, $3, $4)`

	return withSavepoint(ctx, r.pool, func(txCtx context.Context) error {
		_, err := r.exec(txCtx, orderStmt,
			order.ID, order.CustomerID, order.CreditCardID, string(order.Status),
			order.IdempotencyKey, order.CreatedAt, order.UpdatedAt)
		if err != nil {
			return mapOrderWriteError(err)
		}
		for i, item := range order.Items {
			if _, err := r.exec(txCtx, itemStmt, order.ID, i, item.ProductID, item.Quantity); err != nil {
				return mapOrderWriteError(err)
			}
		}
		return nil
	})
}

func mapOrderWriteError(err error) error {
	if isInvalidUUID(err) {
		return domain.ErrInvalidID
	}
	if isUniqueViolation(err) {
		return domain.ErrIdempotencyConflict
	}
	if isCheckViolation(err) {
		return domain.ErrInvalidQuantity
	}
	if constraint, ok := foreignKeyViolation(err); ok {
		switch constraint {
		case "orders_customer_fk":
			return domain.ErrCustomerNotFound
		case "orders_credit_card_fk":
			return domain.ErrCreditCardNotFound
		case "order_items_product_fk":
			return domain.ErrProductNotFound
		}
	}
	return fmt.Errorf("create order: %w", err)
}

const orderColumns = `id, customer_id, credit_card_id, status, COALESCE(idempotency_key, ''), created_at, updated_at`

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	var status string
	if err := row.Scan(&o.ID, &o.CustomerID, &o.CreditCardID, &status, &o.IdempotencyKey, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return domain.Order{}, err
	}
	o.Status = domain.OrderStatus(status)
	return o, nil
}

func (r *OrderRepository) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	o, err := scanOrder(r.queryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Order{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	orders := []domain.Order{o}
	if err := r.loadItems(ctx, orders); err != nil {
		return domain.Order{}, err
	}
	return orders[0], nil
}

func (r *OrderRepository) FindOrderByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	o, err := scanOrder(r.queryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE idempotency_key = $1`, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find order by idempotency key: %w", err)
	}
	orders := []domain.Order{o}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *OrderRepository) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return r.listOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at ASC, id ASC`)
}

func (r *OrderRepository) ListOrdersByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	return r.listOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE customer_id = $1 ORDER BY created_at ASC, id ASC`, customerID)
}

func (r *OrderRepository) ListOrdersByCreditCard(ctx context.Context, cardID string) ([]domain.Order, error) {
	return r.listOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE credit_card_id = $1 ORDER BY created_at ASC, id ASC`, cardID)
}

func (r *OrderRepository) listOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	rows.Close()

	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// loadItems fills Items for every order with one query.
func (r *OrderRepository) loadItems(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	const query = `
SELECT order_id, product_id, quantity
FROM order_items
WHERE order_id = ANY($1::uuid[])
ORDER BY order_id, position`
	rows, err := r.query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID string
		var item domain.OrderItem
		if err := rows.Scan(&orderID, &item.ProductID, &item.Quantity); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if i, ok := index[orderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate order items: %w", err)
	}
	return nil
}

// UpdateOrderStatus is a compare-and-set on the status column.
func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, orderID string, from, to domain.OrderStatus, at time.Time) error {
	const stmt = `UPDATE orders SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`

	tag, err := r.exec(ctx, stmt, orderID, string(from), string(to), at)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.queryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); err != nil {
		return fmt.Errorf("check order: %w", err)
	}
	if !exists {
		return domain.ErrOrderNotFound
	}
	return domain.ErrInvalidState
}
