package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/domain"
)

// ProductRegistrar is told about every product the catalog creates.
type ProductRegistrar interface {
	Register(productID string)
}

type Catalog struct {
	mu        sync.RWMutex
	products  map[string]domain.Product
	locations map[string]domain.Location
	customers map[string]domain.Customer
	cards     map[string]domain.CreditCard
	registrar ProductRegistrar
}

// NewCatalog returns an empty catalog. registrar may be nil.
func NewCatalog(registrar ProductRegistrar) *Catalog {
	return &Catalog{
		products:  make(map[string]domain.Product),
		locations: make(map[string]domain.Location),
		customers: make(map[string]domain.Customer),
		cards:     make(map[string]domain.CreditCard),
		registrar: registrar,
	}
}

func (c *Catalog) CreateProduct(_ context.Context, product domain.Product) error {
	c.mu.Lock()
	c.products[product.ID] = product
	c.mu.Unlock()
	if c.registrar != nil {
		c.registrar.Register(product.ID)
	}
	return nil
}

func (c *Catalog) GetProduct(_ context.Context, productID string) (domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[productID]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

func (c *Catalog) ListProducts(context.Context) ([]domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (c *Catalog) CreateLocation(_ context.Context, location domain.Location) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locations[location.ID] = location
	return nil
}

func (c *Catalog) GetLocation(_ context.Context, locationID string) (domain.Location, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.locations[locationID]
	if !ok {
		return domain.Location{}, domain.ErrLocationNotFound
	}
	return l, nil
}

func (c *Catalog) ListLocations(context.Context) ([]domain.Location, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Location, 0, len(c.locations))
	for _, l := range c.locations {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (c *Catalog) CreateCustomer(_ context.Context, customer domain.Customer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.customers[customer.ID] = customer
	return nil
}

func (c *Catalog) GetCustomer(_ context.Context, customerID string) (domain.Customer, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cu, ok := c.customers[customerID]
	if !ok {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	return cu, nil
}

func (c *Catalog) CreateCreditCard(_ context.Context, card domain.CreditCard) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.customers[card.CustomerID]; !ok {
		return domain.ErrCustomerNotFound
	}
	c.cards[card.ID] = card
	return nil
}

func (c *Catalog) GetCreditCard(_ context.Context, cardID string) (domain.CreditCard, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	card, ok := c.cards[cardID]
	if !ok {
		return domain.CreditCard{}, domain.ErrCreditCardNotFound
	}
	return card, nil
}
