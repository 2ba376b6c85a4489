// Package http exposes order placement, fulfillment and catalog administration as a JSON API.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// OrderService combines placement and the order queries.
type OrderService interface {
	OrderPlacer
	OrderReader
}

// CatalogService combines administration and the stock queries.
type CatalogService interface {
	CatalogAdmin
	StockQuerier
}

type Deps struct {
	Orders      OrderService
	Fulfillment OrderProcessor
	Catalog     CatalogService
	Logger      *zap.Logger
	// Metrics and MetricsHandler are optional.
	Metrics        HTTPMetrics
	MetricsHandler http.Handler
	CORSOrigins    []string
}

// NewRouter wires every route of the API.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	// The access log wraps the recoverer so recovered panics are logged and counted as 500s.
	r.Use(RequestLogger(logger, d.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(CORS(d.CORSOrigins))
	r.NotFound(NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(methodNotAllowedHandler().ServeHTTP)

	r.Get("/health", HealthHandler)
	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", HandlePlaceOrder(d.Orders, logger))
		r.Get("/", HandleListOrders(d.Orders, logger))
		r.Get("/{orderID}", HandleGetOrder(d.Orders, logger))
		r.Post("/{orderID}/process", HandleProcessOrder(d.Fulfillment, logger))
	})
	r.Get("/customers/{customerID}/orders", HandleCustomerOrders(d.Orders, logger))
	r.Get("/credit-cards/{cardID}/orders", HandleCreditCardOrders(d.Orders, logger))

	r.Get("/products/{productID}/stock", HandleStockLevels(d.Catalog, logger))
	r.Get("/products/{productID}/availability", HandleAvailability(d.Catalog, logger))

	r.Route("/admin", func(r chi.Router) {
		r.Post("/products", HandleCreateProduct(d.Catalog, logger))
		r.Get("/products", HandleListProducts(d.Catalog, logger))
		r.Post("/products/{productID}/stock", HandleRestock(d.Catalog, logger))
		r.Post("/locations", HandleCreateLocation(d.Catalog, logger))
		r.Get("/locations", HandleListLocations(d.Catalog, logger))
		r.Post("/customers", HandleCreateCustomer(d.Catalog, logger))
		r.Post("/customers/{customerID}/credit-cards", HandleCreateCreditCard(d.Catalog, logger))
	})

	return r
}

// HealthHandler reports basic liveness for the service.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
