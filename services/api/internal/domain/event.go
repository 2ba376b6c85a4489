package domain

import "time"

type EventType string

const (
	EventOrderPlaced     EventType = "order.placed"
	EventOrderProcessing EventType = "order.processing"
)

// OrderEvent announces an order state change to downstream consumers.
type OrderEvent struct {
	ID         string      `json:"event_id"`
	Type       EventType   `json:"type"`
	OrderID    string      `json:"order_id"`
	CustomerID string      `json:"customer_id"`
	LocationID string      `json:"location_id,omitempty"`
	Status     OrderStatus `json:"status"`
	Items      []EventItem `json:"items"`
	OccurredAt time.Time   `json:"occurred_at"`
}

type EventItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// NewOrderEvent builds an event snapshot of order.
func NewOrderEvent(id string, typ EventType, order Order, locationID string, at time.Time) OrderEvent {
	items := make([]EventItem, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, EventItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return OrderEvent{
		ID:         id,
		Type:       typ,
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		LocationID: locationID,
		Status:     order.Status,
		Items:      items,
		OccurredAt: at,
	}
}
