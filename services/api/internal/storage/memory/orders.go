// Package memory holds in-process stores used when no database is configured and in tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/domain"
)

type Orders struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
	byKey  map[string]string
}

func NewOrders() *Orders {
	return &Orders{
		orders: make(map[string]domain.Order),
		byKey:  make(map[string]string),
	}
}

// WithTx runs fn directly. Each method is atomic on its own.
func (s *Orders) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *Orders) CreateOrder(_ context.Context, order domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[order.ID]; exists {
		return domain.ErrIdempotencyConflict
	}
	if order.IdempotencyKey != "" {
		if _, taken := s.byKey[order.IdempotencyKey]; taken {
			return domain.ErrIdempotencyConflict
		}
		s.byKey[order.IdempotencyKey] = order.ID
	}
	s.orders[order.ID] = order.Clone()
	return nil
}

func (s *Orders) GetOrder(_ context.Context, orderID string) (domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[orderID]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return o.Clone(), nil
}

func (s *Orders) FindOrderByIdempotencyKey(_ context.Context, key string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byKey[key]
	if !ok {
		return nil, nil
	}
	o := s.orders[id].Clone()
	return &o, nil
}

func (s *Orders) ListOrders(context.Context) ([]domain.Order, error) {
	return s.filter(func(domain.Order) bool { return true }), nil
}

func (s *Orders) ListOrdersByCustomer(_ context.Context, customerID string) ([]domain.Order, error) {
	return s.filter(func(o domain.Order) bool { return o.CustomerID == customerID }), nil
}

func (s *Orders) ListOrdersByCreditCard(_ context.Context, cardID string) ([]domain.Order, error) {
	return s.filter(func(o domain.Order) bool { return o.CreditCardID == cardID }), nil
}

func (s *Orders) filter(keep func(domain.Order) bool) []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Order{}
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Orders) UpdateOrderStatus(_ context.Context, orderID string, from, to domain.OrderStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if o.Status != from {
		return domain.ErrInvalidState
	}
	o.Status = to
	o.UpdatedAt = at
	s.orders[orderID] = o
	return nil
}
