package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/domain"
)

const (
	codeMethodNotAllowed      = "method_not_allowed"
	codeNotFound              = "not_found"
	codeInvalidRequestBody    = "invalid_request_body"
	codeMissingRequiredField  = "missing_required_field"
	codeInvalidID             = "invalid_id"
	codeNameRequired          = "name_required"
	codeInvalidQuantity       = "invalid_quantity"
	codeEmptyOrder            = "empty_order"
	codeInvalidCard           = "invalid_credit_card"
	codeCardMismatch          = "credit_card_mismatch"
	codeIdempotencyConflict   = "idempotency_conflict"
	codeInvalidState          = "invalid_state"
	codeInsufficientStock     = "insufficient_stock"
	codePartialAllocation     = "partial_allocation"
	codeInventoryInconsistent = "inventory_inconsistent"
	codeOrderNotFound         = "order_not_found"
	codeProductNotFound       = "product_not_found"
	codeCustomerNotFound      = "customer_not_found"
	codeCardNotFound          = "credit_card_not_found"
	codeLocationNotFound      = "location_not_found"
	codeForbidden             = "forbidden"
	codeInternalError         = "internal_error"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	ProductID string `json:"product_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeErrorResponse(w, status, errorResponse{Error: msg, Code: code})
}

func writeErrorResponse(w http.ResponseWriter, status int, resp errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(resp)
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// errorStatus classifies a service error. Inconsistency is checked first because it wraps the
// stock error that caused the abort.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInventoryInconsistent):
		return http.StatusInternalServerError, codeInventoryInconsistent
	case errors.Is(err, domain.ErrPartialAllocation):
		return http.StatusConflict, codePartialAllocation
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusConflict, codeInsufficientStock
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict, codeInvalidState
	case errors.Is(err, domain.ErrIdempotencyConflict):
		return http.StatusConflict, codeIdempotencyConflict
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound, codeProductNotFound
	case errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound, codeOrderNotFound
	case errors.Is(err, domain.ErrCustomerNotFound):
		return http.StatusNotFound, codeCustomerNotFound
	case errors.Is(err, domain.ErrCreditCardNotFound):
		return http.StatusNotFound, codeCardNotFound
	case errors.Is(err, domain.ErrLocationNotFound):
		return http.StatusNotFound, codeLocationNotFound
	case errors.Is(err, domain.ErrEmptyOrder):
		return http.StatusBadRequest, codeEmptyOrder
	case errors.Is(err, domain.ErrInvalidQuantity):
		return http.StatusBadRequest, codeInvalidQuantity
	case errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest, codeInvalidID
	case errors.Is(err, domain.ErrNameRequired):
		return http.StatusBadRequest, codeNameRequired
	case errors.Is(err, domain.ErrInvalidCard):
		return http.StatusBadRequest, codeInvalidCard
	case errors.Is(err, domain.ErrCreditCardMismatch):
		return http.StatusBadRequest, codeCardMismatch
	default:
		return http.StatusInternalServerError, codeInternalError
	}
}

// writeServiceError translates err into a JSON error response. Server-side failures are logged
// and their details are not echoed to the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	status, code := errorStatus(err)
	resp := errorResponse{Error: err.Error(), Code: code}

	var stockErr *domain.StockError
	if errors.As(err, &stockErr) {
		resp.ProductID = stockErr.ProductID
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("code", code),
			zap.Error(err),
		)
		resp.Error = "internal error"
		if code == codeInventoryInconsistent {
			resp.Error = "inventory could not be restored; operator attention required"
		}
	}
	writeErrorResponse(w, status, resp)
}

// NotFoundHandler returns a JSON 404 response for unknown routes.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})
}

func methodNotAllowedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	})
}
