package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/domain"
	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/inventory"
)

type fakeOrderRepo struct {
	mu        sync.Mutex
	orders    map[string]domain.Order
	updateErr error
	createErr error
	updates   int
}

func newFakeOrderRepo(orders ...domain.Order) *fakeOrderRepo {
	f := &fakeOrderRepo{orders: make(map[string]domain.Order)}
	for _, o := range orders {
		f.orders[o.ID] = o.Clone()
	}
	return f
}

func (f *fakeOrderRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeOrderRepo) CreateOrder(_ context.Context, order domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if order.IdempotencyKey != "" {
		for _, o := range f.orders {
			if o.IdempotencyKey == order.IdempotencyKey {
				return domain.ErrIdempotencyConflict
			}
		}
	}
	f.orders[order.ID] = order.Clone()
	return nil
}

func (f *fakeOrderRepo) GetOrder(_ context.Context, orderID string) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return o.Clone(), nil
}

func (f *fakeOrderRepo) FindOrderByIdempotencyKey(_ context.Context, key string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.IdempotencyKey == key {
			c := o.Clone()
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderRepo) list(keep func(domain.Order) bool) []domain.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Order{}
	for _, o := range f.orders {
		if keep(o) {
			out = append(out, o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeOrderRepo) ListOrders(context.Context) ([]domain.Order, error) {
	return f.list(func(domain.Order) bool { return true }), nil
}

func (f *fakeOrderRepo) ListOrdersByCustomer(_ context.Context, customerID string) ([]domain.Order, error) {
	return f.list(func(o domain.Order) bool { return o.CustomerID == customerID }), nil
}

func (f *fakeOrderRepo) ListOrdersByCreditCard(_ context.Context, cardID string) ([]domain.Order, error) {
	return f.list(func(o domain.Order) bool { return o.CreditCardID == cardID }), nil
}

func (f *fakeOrderRepo) UpdateOrderStatus(_ context.Context, orderID string, from, to domain.OrderStatus, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	o, ok := f.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if o.Status != from {
		return domain.ErrInvalidState
	}
	o.Status = to
	o.UpdatedAt = at
	f.orders[orderID] = o
	f.updates++
	return nil
}

func (f *fakeOrderRepo) status(orderID string) domain.OrderStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[orderID].Status
}

type fakeCatalog struct {
	mu        sync.Mutex
	products  map[string]domain.Product
	locations map[string]domain.Location
	customers map[string]domain.Customer
	cards     map[string]domain.CreditCard
	lookupErr error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		products:  make(map[string]domain.Product),
		locations: make(map[string]domain.Location),
		customers: make(map[string]domain.Customer),
		cards:     make(map[string]domain.CreditCard),
	}
}

func (f *fakeCatalog) GetProduct(_ context.Context, id string) (domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return domain.Product{}, f.lookupErr
	}
	p, ok := f.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeCatalog) GetCustomer(_ context.Context, id string) (domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.customers[id]
	if !ok {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	return c, nil
}

func (f *fakeCatalog) GetCreditCard(_ context.Context, id string) (domain.CreditCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cards[id]
	if !ok {
		return domain.CreditCard{}, domain.ErrCreditCardNotFound
	}
	return c, nil
}

func (f *fakeCatalog) CreateProduct(_ context.Context, p domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[p.ID] = p
	return nil
}

func (f *fakeCatalog) ListProducts(context.Context) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeCatalog) CreateLocation(_ context.Context, l domain.Location) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locations[l.ID] = l
	return nil
}

func (f *fakeCatalog) GetLocation(_ context.Context, id string) (domain.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.locations[id]
	if !ok {
		return domain.Location{}, domain.ErrLocationNotFound
	}
	return l, nil
}

func (f *fakeCatalog) ListLocations(context.Context) ([]domain.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Location, 0, len(f.locations))
	for _, l := range f.locations {
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeCatalog) CreateCustomer(_ context.Context, c domain.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.customers[c.ID] = c
	return nil
}

func (f *fakeCatalog) CreateCreditCard(_ context.Context, c domain.CreditCard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.customers[c.CustomerID]; !ok {
		return domain.ErrCustomerNotFound
	}
	f.cards[c.ID] = c
	return nil
}

// scriptedAuthority delegates to a real authority but lets tests fail chosen calls.
type scriptedAuthority struct {
	inventory.Authority

	mu       sync.Mutex
	calls    []domain.Adjustment
	checks   int
	onAdjust func(call int, adj domain.Adjustment) error
}

func (s *scriptedAuthority) IsAvailable(ctx context.Context, productID string, quantity int, locationID string) (bool, error) {
	s.mu.Lock()
	s.checks++
	s.mu.Unlock()
	return s.Authority.IsAvailable(ctx, productID, quantity, locationID)
}

func (s *scriptedAuthority) AdjustInventory(ctx context.Context, productID string, delta int, locationID string) (int, error) {
	adj := domain.Adjustment{ProductID: productID, LocationID: locationID, Delta: delta}
	s.mu.Lock()
	s.calls = append(s.calls, adj)
	call := len(s.calls)
	hook := s.onAdjust
	s.mu.Unlock()
	if hook != nil {
		if err := hook(call, adj); err != nil {
			return 0, err
		}
	}
	return s.Authority.AdjustInventory(ctx, productID, delta, locationID)
}

func (s *scriptedAuthority) adjustments() []domain.Adjustment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Adjustment(nil), s.calls...)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.OrderEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, e domain.OrderEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return f.err
}

func (f *fakePublisher) published() []domain.OrderEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.OrderEvent(nil), f.events...)
}

type fakeMetrics struct {
	mu           sync.Mutex
	outcomes     map[string]int
	inconsistent int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{outcomes: make(map[string]int)}
}

func (f *fakeMetrics) ObserveOrderOperation(op, outcome string) {
	f.mu.Lock()
	f.outcomes[op+"/"+outcome]++
	f.mu.Unlock()
}

func (f *fakeMetrics) IncInventoryInconsistent() {
	f.mu.Lock()
	f.inconsistent++
	f.mu.Unlock()
}

func (f *fakeMetrics) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outcomes[key]
}
