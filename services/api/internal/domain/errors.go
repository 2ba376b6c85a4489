package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidState          = errors.New("order is not in placed status")
	ErrProductNotFound       = errors.New("product not found")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrPartialAllocation     = errors.New("partial allocation failure")
	ErrInventoryInconsistent = errors.New("inventory inconsistent")

	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrEmptyOrder          = errors.New("order has no items")
	ErrOrderNotFound       = errors.New("order not found")
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrCreditCardNotFound  = errors.New("credit card not found")
	ErrCreditCardMismatch  = errors.New("credit card does not belong to customer")
	ErrLocationNotFound    = errors.New("location not found")
	ErrIdempotencyConflict = errors.New("idempotency conflict")
	ErrInvalidID           = errors.New("invalid id")
	ErrNameRequired        = errors.New("name required")
	ErrInvalidCard         = errors.New("invalid credit card")
)

// StockError names the line item that stopped an inventory step.
// Kind is one of ErrProductNotFound, ErrInsufficientStock or ErrPartialAllocation.
type StockError struct {
	Kind       error
	ProductID  string
	LocationID string
	Cause      error
}

func (e *StockError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	b.WriteString(": product ")
	b.WriteString(e.ProductID)
	if e.LocationID != "" {
		b.WriteString(" at location ")
		b.WriteString(e.LocationID)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *StockError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// InconsistencyError is returned when committed adjustments could not be undone.
// Stock for the listed adjustments no longer matches any completed order and needs an operator.
type InconsistencyError struct {
	Unrestored []Adjustment
	Cause      error
}

func (e *InconsistencyError) Error() string {
	parts := make([]string, 0, len(e.Unrestored))
	for _, adj := range e.Unrestored {
		parts = append(parts, adj.String())
	}
	msg := fmt.Sprintf("%s: %d adjustment(s) not reverted [%s]",
		ErrInventoryInconsistent, len(e.Unrestored), strings.Join(parts, ", "))
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *InconsistencyError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrInventoryInconsistent}
	}
	return []error{ErrInventoryInconsistent, e.Cause}
}
