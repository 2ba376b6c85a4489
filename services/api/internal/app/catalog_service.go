package app

import (
	"context"
	"strings"

	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/clock"
	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/domain"
	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/inventory"
)

// CatalogService administers products, locations, customers and their cards, and stock.
type CatalogService struct {
	repo   CatalogRepository
	stock  inventory.Authority
	levels inventory.StockReader
	clock  clock.Clock
}

func NewCatalogService(repo CatalogRepository, stock inventory.Authority, levels inventory.StockReader, clk clock.Clock) *CatalogService {
	return &CatalogService{
		repo:   repo,
		stock:  stock,
		levels: levels,
		clock:  clk,
	}
}

func (s *CatalogService) CreateProduct(ctx context.Context, name string) (domain.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Product{}, domain.ErrNameRequired
	}
	product := domain.Product{
		ID:        newUUID(),
		Name:      name,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *CatalogService) CreateLocation(ctx context.Context, name string) (domain.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Location{}, domain.ErrNameRequired
	}
	location := domain.Location{ID: newUUID(), Name: name}
	if err := s.repo.CreateLocation(ctx, location); err != nil {
		return domain.Location{}, err
	}
	return location, nil
}

func (s *CatalogService) ListLocations(ctx context.Context) ([]domain.Location, error) {
	return s.repo.ListLocations(ctx)
}

type CreateCustomerInput struct {
	Name  string
	Email string
}

func (s *CatalogService) CreateCustomer(ctx context.Context, in CreateCustomerInput) (domain.Customer, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Customer{}, domain.ErrNameRequired
	}
	customer := domain.Customer{
		ID:        newUUID(),
		Name:      name,
		Email:     strings.TrimSpace(in.Email),
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.CreateCustomer(ctx, customer); err != nil {
		return domain.Customer{}, err
	}
	return customer, nil
}

type CreateCreditCardInput struct {
	CustomerID string
	Holder     string
	Last4      string
}

func (s *CatalogService) CreateCreditCard(ctx context.Context, in CreateCreditCardInput) (domain.CreditCard, error) {
	if in.CustomerID == "" {
		return domain.CreditCard{}, domain.ErrInvalidID
	}
	holder := strings.TrimSpace(in.Holder)
	if holder == "" {
		return domain.CreditCard{}, domain.ErrNameRequired
	}
	if !domain.ValidLast4(in.Last4) {
		return domain.CreditCard{}, domain.ErrInvalidCard
	}
	card := domain.CreditCard{
		ID:         newUUID(),
		CustomerID: in.CustomerID,
		Holder:     holder,
		Last4:      in.Last4,
	}
	if err := s.repo.CreateCreditCard(ctx, card); err != nil {
		return domain.CreditCard{}, err
	}
	return card, nil
}

type RestockInput struct {
	ProductID  string
	LocationID string
	Quantity   int
}

// Restock adds stock through the inventory authority and returns the new level.
func (s *CatalogService) Restock(ctx context.Context, in RestockInput) (domain.StockLevel, error) {
	if in.ProductID == "" || in.LocationID == "" {
		return domain.StockLevel{}, domain.ErrInvalidID
	}
	if in.Quantity <= 0 || in.Quantity > domain.MaxQuantity {
		return domain.StockLevel{}, domain.ErrInvalidQuantity
	}
	if _, err := s.repo.GetProduct(ctx, in.ProductID); err != nil {
		return domain.StockLevel{}, err
	}
	if _, err := s.repo.GetLocation(ctx, in.LocationID); err != nil {
		return domain.StockLevel{}, err
	}
	n, err := s.stock.AdjustInventory(ctx, in.ProductID, in.Quantity, in.LocationID)
	if err != nil {
		return domain.StockLevel{}, err
	}
	return domain.StockLevel{ProductID: in.ProductID, LocationID: in.LocationID, Available: n}, nil
}

func (s *CatalogService) StockLevels(ctx context.Context, productID string) ([]domain.StockLevel, error) {
	if productID == "" {
		return nil, domain.ErrInvalidID
	}
	if _, err := s.repo.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	return s.levels.StockLevels(ctx, productID)
}

// Availability answers whether quantity units could be taken at a location right now.
func (s *CatalogService) Availability(ctx context.Context, productID, locationID string, quantity int) (bool, error) {
	if productID == "" || locationID == "" {
		return false, domain.ErrInvalidID
	}
	if quantity <= 0 || quantity > domain.MaxQuantity {
		return false, domain.ErrInvalidQuantity
	}
	if _, err := s.repo.GetProduct(ctx, productID); err != nil {
		return false, err
	}
	return s.stock.IsAvailable(ctx, productID, quantity, locationID)
}
