package domain

import "time"

// Product is a sellable item. Its stock lives with the inventory authority, per location.
type Product struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// StockLevel is the available count of one product at one location. Never negative.
type StockLevel struct {
	ProductID  string
	LocationID string
	Available  int
}
