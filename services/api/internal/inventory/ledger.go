package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/domain"
)

// Ledger records adjustments committed during one multi-item operation so they can be undone.
// It is not safe for concurrent use.
type Ledger struct {
	entries []domain.Adjustment
}

func (l *Ledger) Record(adj domain.Adjustment) {
	l.entries = append(l.entries, adj)
}

func (l *Ledger) Len() int {
	return len(l.entries)
}

// Entries returns a copy of the recorded adjustments in commit order.
func (l *Ledger) Entries() []domain.Adjustment {
	return append([]domain.Adjustment(nil), l.entries...)
}

// Rollback applies the inverse of every recorded adjustment, newest first.
// A failed undo does not stop the remaining ones; every adjustment left in place is returned
// together with the joined errors. The ledger is empty afterwards.
func (l *Ledger) Rollback(ctx context.Context, auth Authority) ([]domain.Adjustment, error) {
	var (
		unrestored []domain.Adjustment
		errs       []error
	)
	for i := len(l.entries) - 1; i >= 0; i-- {
		adj := l.entries[i]
		inv := adj.Inverse()
		if _, err := auth.AdjustInventory(ctx, inv.ProductID, inv.Delta, inv.LocationID); err != nil {
			unrestored = append(unrestored, adj)
			errs = append(errs, fmt.Errorf("undo %s: %w", adj, err))
		}
	}
	l.entries = nil
	return unrestored, errors.Join(errs...)
}
