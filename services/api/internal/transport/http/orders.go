package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/app"
	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/domain"
)

const idempotencyHeader = "Idempotency-Key"

// OrderPlacer is the minimal interface needed to place orders.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, in app.PlaceOrderInput) (app.PlaceOrderResult, error)
}

// OrderReader serves the order queries.
type OrderReader interface {
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	OrdersByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	OrdersByCreditCard(ctx context.Context, cardID string) ([]domain.Order, error)
}

// OrderProcessor moves a placed order to processing.
type OrderProcessor interface {
	ProcessOrderByID(ctx context.Context, orderID, locationID string) (domain.Order, error)
}

type orderItemPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type placeOrderRequest struct {
	CustomerID   string             `json:"customer_id"`
	CreditCardID string             `json:"credit_card_id"`
	Items        []orderItemPayload `json:"items"`
}

type processOrderRequest struct {
	LocationID string `json:"location_id"`
}

type orderResponse struct {
	ID           string             `json:"id"`
	CustomerID   string             `json:"customer_id"`
	CreditCardID string             `json:"credit_card_id"`
	Status       string             `json:"status"`
	Items        []orderItemPayload `json:"items"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

func toOrderResponse(o domain.Order) orderResponse {
	items := make([]orderItemPayload, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemPayload{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return orderResponse{
		ID:           o.ID,
		CustomerID:   o.CustomerID,
		CreditCardID: o.CreditCardID,
		Status:       string(o.Status),
		Items:        items,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

func toOrderResponses(orders []domain.Order) []orderResponse {
	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o))
	}
	return resp
}

// decodeJSON reads a strict JSON body. It writes the 400 itself and reports whether decoding worked.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return false
	}
	return true
}

// HandlePlaceOrder creates an order. Replays with the same Idempotency-Key answer 200 with the
// order first created instead of 201.
func HandlePlaceOrder(svc OrderPlacer, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req placeOrderRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.CustomerID == "" || req.CreditCardID == "" {
			writeError(w, http.StatusBadRequest, codeMissingRequiredField, "customer_id and credit_card_id are required")
			return
		}

		items := make([]domain.OrderItem, 0, len(req.Items))
		for _, it := range req.Items {
			items = append(items, domain.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
		}

		res, err := svc.PlaceOrder(r.Context(), app.PlaceOrderInput{
			CustomerID:     req.CustomerID,
			CreditCardID:   req.CreditCardID,
			Items:          items,
			IdempotencyKey: strings.TrimSpace(r.Header.Get(idempotencyHeader)),
		})
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}

		status := http.StatusCreated
		if !res.Created {
			status = http.StatusOK
		}
		writeJSON(w, status, toOrderResponse(res.Order))
	}
}

// HandleProcessOrder deducts the order's stock at the requested location and marks it processing.
func HandleProcessOrder(svc OrderProcessor, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req processOrderRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.LocationID) == "" {
			writeError(w, http.StatusBadRequest, codeMissingRequiredField, "location_id is required")
			return
		}

		order, err := svc.ProcessOrderByID(r.Context(), chi.URLParam(r, "orderID"), req.LocationID)
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toOrderResponse(order))
	}
}

func HandleGetOrder(svc OrderReader, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := svc.GetOrder(r.Context(), chi.URLParam(r, "orderID"))
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toOrderResponse(order))
	}
}

func HandleListOrders(svc OrderReader, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := svc.ListOrders(r.Context())
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toOrderResponses(orders))
	}
}

func HandleCustomerOrders(svc OrderReader, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := svc.OrdersByCustomer(r.Context(), chi.URLParam(r, "customerID"))
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toOrderResponses(orders))
	}
}

func HandleCreditCardOrders(svc OrderReader, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := svc.OrdersByCreditCard(r.Context(), chi.URLParam(r, "cardID"))
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toOrderResponses(orders))
	}
}
