package domain

// Location is a warehouse or fulfillment point holding its own stock per product.
type Location struct {
	ID   string
	Name string
}
