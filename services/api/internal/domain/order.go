package domain

import (
	"math"
	"time"
)

type OrderStatus string

const (
	OrderStatusPlaced     OrderStatus = "placed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusFulfilled  OrderStatus = "fulfilled"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// MaxQuantity bounds a single quantity and a stored stock count. It matches the integer columns
// Postgres keeps them in.
const MaxQuantity = math.MaxInt32

// OrderItem is one line of an order. Quantity must be positive.
type OrderItem struct {
	ProductID string
	Quantity  int
}

// Order is a purchase placed by a customer with one of their credit cards.
// Items are fixed once the order is placed.
type Order struct {
	ID             string
	CustomerID     string
	CreditCardID   string
	Status         OrderStatus
	Items          []OrderItem
	IdempotencyKey string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ValidateItems checks the line items of an order.
func ValidateItems(items []OrderItem) error {
	if len(items) == 0 {
		return ErrEmptyOrder
	}
	for _, item := range items {
		if item.ProductID == "" {
			return ErrInvalidID
		}
		if item.Quantity <= 0 || item.Quantity > MaxQuantity {
			return ErrInvalidQuantity
		}
	}
	return nil
}

// Demand sums requested quantities per product, keeping first-seen product order.
func Demand(items []OrderItem) ([]string, map[string]int) {
	order := make([]string, 0, len(items))
	totals := make(map[string]int, len(items))
	for _, item := range items {
		if _, seen := totals[item.ProductID]; !seen {
			order = append(order, item.ProductID)
		}
		totals[item.ProductID] += item.Quantity
	}
	return order, totals
}

// Clone returns a copy that does not share the items slice.
func (o Order) Clone() Order {
	out := o
	out.Items = append([]OrderItem(nil), o.Items...)
	return out
}
