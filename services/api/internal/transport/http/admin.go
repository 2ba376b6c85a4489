package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/app"
	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/domain"
)

// CatalogAdmin is the minimal interface needed for the admin endpoints.
type CatalogAdmin interface {
	CreateProduct(ctx context.Context, name string) (domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateLocation(ctx context.Context, name string) (domain.Location, error)
	ListLocations(ctx context.Context) ([]domain.Location, error)
	CreateCustomer(ctx context.Context, in app.CreateCustomerInput) (domain.Customer, error)
	CreateCreditCard(ctx context.Context, in app.CreateCreditCardInput) (domain.CreditCard, error)
	Restock(ctx context.Context, in app.RestockInput) (domain.StockLevel, error)
}

type nameRequest struct {
	Name string `json:"name"`
}

type productResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type locationResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type createCustomerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type customerResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type createCreditCardRequest struct {
	Holder string `json:"holder"`
	Last4  string `json:"last4"`
}

type creditCardResponse struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	Holder     string `json:"holder"`
	Last4      string `json:"last4"`
}

type restockRequest struct {
	LocationID string `json:"location_id"`
	Quantity   int    `json:"quantity"`
}

func HandleCreateProduct(svc CatalogAdmin, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req nameRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		product, err := svc.CreateProduct(r.Context(), req.Name)
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, productResponse{ID: product.ID, Name: product.Name, CreatedAt: product.CreatedAt})
	}
}

func HandleListProducts(svc CatalogAdmin, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.ListProducts(r.Context())
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		resp := make([]productResponse, 0, len(products))
		for _, p := range products {
			resp = append(resp, productResponse{ID: p.ID, Name: p.Name, CreatedAt: p.CreatedAt})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func HandleCreateLocation(svc CatalogAdmin, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req nameRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		location, err := svc.CreateLocation(r.Context(), req.Name)
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, locationResponse{ID: location.ID, Name: location.Name})
	}
}

func HandleListLocations(svc CatalogAdmin, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		locations, err := svc.ListLocations(r.Context())
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		resp := make([]locationResponse, 0, len(locations))
		for _, l := range locations {
			resp = append(resp, locationResponse{ID: l.ID, Name: l.Name})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func HandleCreateCustomer(svc CatalogAdmin, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createCustomerRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		customer, err := svc.CreateCustomer(r.Context(), app.CreateCustomerInput{Name: req.Name, Email: req.Email})
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, customerResponse{
			ID:        customer.ID,
			Name:      customer.Name,
			Email:     customer.Email,
			CreatedAt: customer.CreatedAt,
		})
	}
}

func HandleCreateCreditCard(svc CatalogAdmin, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createCreditCardRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		card, err := svc.CreateCreditCard(r.Context(), app.CreateCreditCardInput{
			CustomerID: chi.URLParam(r, "customerID"),
			Holder:     req.Holder,
			Last4:      req.Last4,
		})
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, creditCardResponse{
			ID:         card.ID,
			CustomerID: card.CustomerID,
			Holder:     card.Holder,
			Last4:      card.Last4,
		})
	}
}

// HandleRestock adds units at a location and answers with the resulting level.
func HandleRestock(svc CatalogAdmin, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req restockRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.LocationID == "" {
			writeError(w, http.StatusBadRequest, codeMissingRequiredField, "location_id is required")
			return
		}
		level, err := svc.Restock(r.Context(), app.RestockInput{
			ProductID:  chi.URLParam(r, "productID"),
			LocationID: req.LocationID,
			Quantity:   req.Quantity,
		})
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toStockLevelResponse(level))
	}
}
