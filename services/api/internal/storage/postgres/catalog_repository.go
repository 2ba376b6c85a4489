package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/domain"
)

type CatalogRepository struct {
	db
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{db: db{pool: pool}}
}

func (r *CatalogRepository) CreateProduct(ctx context.Context, product domain.Product) error {
	const stmt = `
INSERT INTO products (id, name, created_at)
VALUES ($1, $2, $3)`
	_, err := r.exec(ctx, stmt, product.ID, product.Name, product.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *CatalogRepository) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	var p domain.Product
	err := r.queryRow(ctx, `SELECT id, name, created_at FROM products WHERE id = $1`, productID).
		Scan(&p.ID, &p.Name, &p.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Product{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *CatalogRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	const query = `
SELECT id, name, created_at
FROM products
ORDER BY created_at ASC, id ASC`
	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate products: %w", rows.Err())
	}
	return products, nil
}

func (r *CatalogRepository) CreateLocation(ctx context.Context, location domain.Location) error {
	_, err := r.exec(ctx, `INSERT INTO locations (id, name) VALUES ($1, $2)`, location.ID, location.Name)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create location: %w", err)
	}
	return nil
}

func (r *CatalogRepository) GetLocation(ctx context.Context, locationID string) (domain.Location, error) {
	var l domain.Location
	err := r.queryRow(ctx, `SELECT id, name FROM locations WHERE id = $1`, locationID).Scan(&l.ID, &l.Name)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Location{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Location{}, domain.ErrLocationNotFound
		}
		return domain.Location{}, fmt.Errorf("get location: %w", err)
	}
	return l, nil
}

func (r *CatalogRepository) ListLocations(ctx context.Context) ([]domain.Location, error) {
	rows, err := r.query(ctx, `SELECT id, name FROM locations ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	locations := []domain.Location{}
	for rows.Next() {
		var l domain.Location
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		locations = append(locations, l)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate locations: %w", rows.Err())
	}
	return locations, nil
}

func (r *CatalogRepository) CreateCustomer(ctx context.Context, customer domain.Customer) error {
	const stmt = `
INSERT INTO customers (id, name, email, created_at)
VALUES ($1, $2, $3, $4)`
	_, err := r.exec(ctx, stmt, customer.ID, customer.Name, customer.Email, customer.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

func (r *CatalogRepository) GetCustomer(ctx context.Context, customerID string) (domain.Customer, error) {
	var c domain.Customer
	err := r.queryRow(ctx, `SELECT id, name, email, created_at FROM customers WHERE id = $1`, customerID).
		Scan(&c.ID, &c.Name, &c.Email, &c.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Customer{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Customer{}, domain.ErrCustomerNotFound
		}
		return domain.Customer{}, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

func (r *CatalogRepository) CreateCreditCard(ctx context.Context, card domain.CreditCard) error {
	const stmt = `
INSERT INTO credit_cards (id, customer_id, holder, last4)
VALUES ($1, $2, $3, $4)`
	_, err := r.exec(ctx, stmt, card.ID, card.CustomerID, card.Holder, card.Last4)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if _, ok := foreignKeyViolation(err); ok {
			return domain.ErrCustomerNotFound
		}
		if isCheckViolation(err) {
			return domain.ErrInvalidCard
		}
		return fmt.Errorf("create credit card: %w", err)
	}
	return nil
}

func (r *CatalogRepository) GetCreditCard(ctx context.Context, cardID string) (domain.CreditCard, error) {
	var c domain.CreditCard
	err := r.queryRow(ctx, `SELECT id, customer_id, holder, last4 FROM credit_cards WHERE id = $1`, cardID).
		Scan(&c.ID, &c.CustomerID, &c.Holder, &c.Last4)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.CreditCard{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CreditCard{}, domain.ErrCreditCardNotFound
		}
		return domain.CreditCard{}, fmt.Errorf("get credit card: %w", err)
	}
	return c, nil
}
