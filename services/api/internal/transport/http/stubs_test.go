package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/app"
	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/domain"
)

type stubOrders struct {
	placeRes  app.PlaceOrderResult
	placeErr  error
	lastPlace app.PlaceOrderInput

	order     domain.Order
	orders    []domain.Order
	readErr   error
	lastQuery string
}

func (s *stubOrders) PlaceOrder(_ context.Context, in app.PlaceOrderInput) (app.PlaceOrderResult, error) {
	s.lastPlace = in
	return s.placeRes, s.placeErr
}

func (s *stubOrders) GetOrder(_ context.Context, orderID string) (domain.Order, error) {
	s.lastQuery = orderID
	return s.order, s.readErr
}

func (s *stubOrders) ListOrders(context.Context) ([]domain.Order, error) {
	return s.orders, s.readErr
}

func (s *stubOrders) OrdersByCustomer(_ context.Context, customerID string) ([]domain.Order, error) {
	s.lastQuery = customerID
	return s.orders, s.readErr
}

func (s *stubOrders) OrdersByCreditCard(_ context.Context, cardID string) ([]domain.Order, error) {
	s.lastQuery = cardID
	return s.orders, s.readErr
}

type stubProcessor struct {
	order       domain.Order
	err         error
	gotOrderID  string
	gotLocation string
}

func (s *stubProcessor) ProcessOrderByID(_ context.Context, orderID, locationID string) (domain.Order, error) {
	s.gotOrderID = orderID
	s.gotLocation = locationID
	return s.order, s.err
}

type stubCatalog struct {
	err         error
	product     domain.Product
	location    domain.Location
	customer    domain.Customer
	card        domain.CreditCard
	level       domain.StockLevel
	levels      []domain.StockLevel
	available   bool
	lastCard    app.CreateCreditCardInput
	lastRestock app.RestockInput
}

func (s *stubCatalog) CreateProduct(_ context.Context, name string) (domain.Product, error) {
	if name == "" {
		return domain.Product{}, domain.ErrNameRequired
	}
	return s.product, s.err
}

func (s *stubCatalog) ListProducts(context.Context) ([]domain.Product, error) {
	return []domain.Product{s.product}, s.err
}

func (s *stubCatalog) CreateLocation(_ context.Context, name string) (domain.Location, error) {
	return s.location, s.err
}

func (s *stubCatalog) ListLocations(context.Context) ([]domain.Location, error) {
	return []domain.Location{s.location}, s.err
}

func (s *stubCatalog) CreateCustomer(_ context.Context, in app.CreateCustomerInput) (domain.Customer, error) {
	return s.customer, s.err
}

func (s *stubCatalog) CreateCreditCard(_ context.Context, in app.CreateCreditCardInput) (domain.CreditCard, error) {
	s.lastCard = in
	return s.card, s.err
}

func (s *stubCatalog) Restock(_ context.Context, in app.RestockInput) (domain.StockLevel, error) {
	s.lastRestock = in
	return s.level, s.err
}

func (s *stubCatalog) StockLevels(_ context.Context, productID string) ([]domain.StockLevel, error) {
	return s.levels, s.err
}

func (s *stubCatalog) Availability(_ context.Context, productID, locationID string, quantity int) (bool, error) {
	return s.available, s.err
}

func newStubRouter(orders *stubOrders, processor *stubProcessor, catalog *stubCatalog) http.Handler {
	if orders == nil {
		orders = &stubOrders{}
	}
	if processor == nil {
		processor = &stubProcessor{}
	}
	if catalog == nil {
		catalog = &stubCatalog{}
	}
	return NewRouter(Deps{Orders: orders, Fulfillment: processor, Catalog: catalog})
}

func doRequest(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}
