package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/domain"
)

// StockRepository is an inventory authority backed by the stock_levels table.
// Deductions are a single conditional UPDATE, so the row lock serializes writers on one
// (product, location) and a losing writer re-evaluates the predicate against the committed count.
type StockRepository struct {
	db
}

func NewStockRepository(pool *pgxpool.Pool) *StockRepository {
	return &StockRepository{db: db{pool: pool}}
}

func (r *StockRepository) IsAvailable(ctx context.Context, productID string, quantity int, locationID string) (bool, error) {
	n, err := r.current(ctx, productID, locationID)
	if err != nil {
		return false, err
	}
	return n >= quantity, nil
}

func (r *StockRepository) AdjustInventory(ctx context.Context, productID string, delta int, locationID string) (int, error) {
	switch {
	case delta > 0:
		return r.add(ctx, productID, delta, locationID)
	case delta < 0:
		return r.deduct(ctx, productID, delta, locationID)
	default:
		return r.current(ctx, productID, locationID)
	}
}

func (r *StockRepository) add(ctx context.Context, productID string, delta int, locationID string) (int, error) {
	const stmt = `
INSERT INTO stock_levels (product_id, location_id, available)
VALUES ($1, $2, $3)
ON CONFLICT (product_id, location_id)
DO UPDATE SET available = stock_levels.available + EXCLUDED.available, updated_at = NOW()
RETURNING available`

	var n int
	if err := r.queryRow(ctx, stmt, productID, locationID, delta).Scan(&n); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		if isOutOfRange(err) {
			return 0, domain.ErrInvalidQuantity
		}
		if constraint, ok := foreignKeyViolation(err); ok {
			if constraint == "stock_levels_location_fk" {
				return 0, domain.ErrLocationNotFound
			}
			return 0, domain.ErrProductNotFound
		}
		return 0, fmt.Errorf("add stock: %w", err)
	}
	return n, nil
}

func (r *StockRepository) deduct(ctx context.Context, productID string, delta int, locationID string) (int, error) {
	const stmt = `
UPDATE stock_levels
SET available = available + $3, updated_at = NOW()
WHERE product_id = $1 AND location_id = $2 AND available + $3 >= 0
RETURNING available`

	var n int
	err := r.queryRow(ctx, stmt, productID, locationID, delta).Scan(&n)
	if err == nil {
		return n, nil
	}
	if isInvalidUUID(err) {
		return 0, domain.ErrInvalidID
	}
	if isCheckViolation(err) {
		return 0, domain.ErrInsufficientStock
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("deduct stock: %w", err)
	}

	current, err := r.current(ctx, productID, locationID)
	if err != nil {
		return 0, err
	}
	return current, domain.ErrInsufficientStock
}

func (r *StockRepository) current(ctx context.Context, productID, locationID string) (int, error) {
	const query = `
SELECT
	EXISTS (SELECT 1 FROM products WHERE id = $1),
	COALESCE((SELECT available FROM stock_levels WHERE product_id = $1 AND location_id = $2), 0)`

	var known bool
	var n int
	if err := r.queryRow(ctx, query, productID, locationID).Scan(&known, &n); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("read stock: %w", err)
	}
	if !known {
		return 0, domain.ErrProductNotFound
	}
	return n, nil
}

func (r *StockRepository) StockLevels(ctx context.Context, productID string) ([]domain.StockLevel, error) {
	const query = `
SELECT product_id, location_id, available
FROM stock_levels
WHERE product_id = $1
ORDER BY location_id`
	rows, err := r.query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list stock levels: %w", err)
	}
	defer rows.Close()

	levels := []domain.StockLevel{}
	for rows.Next() {
		var l domain.StockLevel
		if err := rows.Scan(&l.ProductID, &l.LocationID, &l.Available); err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		levels = append(levels, l)
	}
	if err := rows.Err(); err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("iterate stock levels: %w", err)
	}
	return levels, nil
}
