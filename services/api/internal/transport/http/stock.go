package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/domain"
)

// StockQuerier answers read-only stock questions.
type StockQuerier interface {
	StockLevels(ctx context.Context, productID string) ([]domain.StockLevel, error)
	Availability(ctx context.Context, productID, locationID string, quantity int) (bool, error)
}

type stockLevelResponse struct {
	ProductID  string `json:"product_id"`
	LocationID string `json:"location_id"`
	Available  int    `json:"available"`
}

type availabilityResponse struct {
	ProductID  string `json:"product_id"`
	LocationID string `json:"location_id"`
	Quantity   int    `json:"quantity"`
	Available  bool   `json:"available"`
}

func toStockLevelResponse(l domain.StockLevel) stockLevelResponse {
	return stockLevelResponse{ProductID: l.ProductID, LocationID: l.LocationID, Available: l.Available}
}

func HandleStockLevels(svc StockQuerier, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		levels, err := svc.StockLevels(r.Context(), chi.URLParam(r, "productID"))
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		resp := make([]stockLevelResponse, 0, len(levels))
		for _, l := range levels {
			resp = append(resp, toStockLevelResponse(l))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleAvailability reports whether ?quantity= units exist at ?location_id=. The answer is advisory.
func HandleAvailability(svc StockQuerier, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		locationID := q.Get("location_id")
		if locationID == "" {
			writeError(w, http.StatusBadRequest, codeMissingRequiredField, "location_id is required")
			return
		}
		quantity, err := strconv.Atoi(q.Get("quantity"))
		if err != nil || quantity <= 0 {
			writeError(w, http.StatusBadRequest, codeInvalidQuantity, domain.ErrInvalidQuantity.Error())
			return
		}

		productID := chi.URLParam(r, "productID")
		ok, err := svc.Availability(r.Context(), productID, locationID, quantity)
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, availabilityResponse{
			ProductID:  productID,
			LocationID: locationID,
			Quantity:   quantity,
			Available:  ok,
		})
	}
}
