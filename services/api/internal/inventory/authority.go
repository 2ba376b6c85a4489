package inventory

import (
	"context"

	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/domain"
)

// Authority owns stock counts per (product, location).
//
// AdjustInventory is the only mutation: it applies delta atomically for the pair and fails with
// domain.ErrInsufficientStock, leaving the count unchanged, when the result would be negative,
// and with domain.ErrInvalidQuantity when it would exceed domain.MaxQuantity.
// IsAvailable never mutates and may be stale by the time a caller acts on it.
type Authority interface {
	IsAvailable(ctx context.Context, productID string, quantity int, locationID string) (bool, error)
	AdjustInventory(ctx context.Context, productID string, delta int, locationID string) (int, error)
}

// StockReader lists the per-location counts of a product.
type StockReader interface {
	StockLevels(ctx context.Context, productID string) ([]domain.StockLevel, error)
}
