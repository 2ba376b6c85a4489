package app

import (
	"context"
	"errors"
	"time"

	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/domain"
)

type ProductLookup interface {
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
}

type CustomerLookup interface {
	GetCustomer(ctx context.Context, customerID string) (domain.Customer, error)
	GetCreditCard(ctx context.Context, cardID string) (domain.CreditCard, error)
}

// OrderRepository persists orders. Customer and card order lists are derived from it.
type OrderRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	// CreateOrder returns domain.ErrIdempotencyConflict when the idempotency key is taken.
	CreateOrder(ctx context.Context, order domain.Order) error
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
	FindOrderByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	ListOrdersByCreditCard(ctx context.Context, cardID string) ([]domain.Order, error)
	// UpdateOrderStatus moves an order from one status to another and fails with
	// domain.ErrInvalidState if the stored status is no longer from.
	UpdateOrderStatus(ctx context.Context, orderID string, from, to domain.OrderStatus, at time.Time) error
}

// OrderStatusStore is the part of the order store fulfillment needs.
type OrderStatusStore interface {
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, from, to domain.OrderStatus, at time.Time) error
}

type CatalogRepository interface {
	ProductLookup
	CustomerLookup
	CreateProduct(ctx context.Context, product domain.Product) error
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateLocation(ctx context.Context, location domain.Location) error
	GetLocation(ctx context.Context, locationID string) (domain.Location, error)
	ListLocations(ctx context.Context) ([]domain.Location, error)
	CreateCustomer(ctx context.Context, customer domain.Customer) error
	// CreateCreditCard returns domain.ErrCustomerNotFound when the owner does not exist.
	CreateCreditCard(ctx context.Context, card domain.CreditCard) error
}

// EventPublisher delivers order events. Failures never roll back the operation that emitted them.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.OrderEvent) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, domain.OrderEvent) error { return nil }

// Metrics receives operation outcomes.
type Metrics interface {
	ObserveOrderOperation(operation, outcome string)
	IncInventoryInconsistent()
}

type noopMetrics struct{}

func (noopMetrics) ObserveOrderOperation(string, string) {}
func (noopMetrics) IncInventoryInconsistent()            {}

// Outcome labels an operation result for metrics and spans.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInventoryInconsistent):
		return "inventory_inconsistent"
	case errors.Is(err, domain.ErrPartialAllocation):
		return "partial_allocation"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrCustomerNotFound),
		errors.Is(err, domain.ErrCreditCardNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrEmptyOrder),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrCreditCardMismatch):
		return "invalid_input"
	case errors.Is(err, domain.ErrIdempotencyConflict):
		return "idempotency_conflict"
	default:
		return "error"
	}
}
