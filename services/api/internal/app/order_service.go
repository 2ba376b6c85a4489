package app

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/clock"
	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/domain"
)

type OrderService struct {
	repo      OrderRepository
	customers CustomerLookup
	products  ProductLookup
	clock     clock.Clock
	logger    *zap.Logger
	tracer    trace.Tracer
	metrics   Metrics
	publisher EventPublisher
}

func NewOrderService(repo OrderRepository, customers CustomerLookup, products ProductLookup, clk clock.Clock, opts ...Option) *OrderService {
	o := buildOptions(opts)
	return &OrderService{
		repo:      repo,
		customers: customers,
		products:  products,
		clock:     clk,
		logger:    o.logger,
		tracer:    o.tracer,
		metrics:   o.metrics,
		publisher: o.publisher,
	}
}

type PlaceOrderInput struct {
	CustomerID   string
	CreditCardID string
	Items        []domain.OrderItem
	// IdempotencyKey is optional. Without it a retried request creates a second order.
	IdempotencyKey string
}

type PlaceOrderResult struct {
	Order   domain.Order
	Created bool
}

// PlaceOrder records a new order in placed status for a customer paying with one of their cards.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (res PlaceOrderResult, err error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.PlaceOrder", trace.WithAttributes(
		attribute.String("customer.id", in.CustomerID),
		attribute.Int("order.item_count", len(in.Items)),
	))
	defer func() {
		outcome := Outcome(err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		} else {
			span.SetAttributes(attribute.String("order.id", res.Order.ID), attribute.Bool("order.created", res.Created))
		}
		span.End()
		s.metrics.ObserveOrderOperation("place", outcome)
	}()

	if in.CustomerID == "" || in.CreditCardID == "" {
		return PlaceOrderResult{}, domain.ErrInvalidID
	}
	if err := domain.ValidateItems(in.Items); err != nil {
		return PlaceOrderResult{}, err
	}

	now := s.clock.Now()
	var result PlaceOrderResult

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if in.IdempotencyKey != "" {
			existing, err := s.repo.FindOrderByIdempotencyKey(txCtx, in.IdempotencyKey)
			if err != nil {
				return err
			}
			if existing != nil {
				if !sameRequest(*existing, in) {
					return domain.ErrIdempotencyConflict
				}
				result = PlaceOrderResult{Order: *existing, Created: false}
				return nil
			}
		}

		if _, err := s.customers.GetCustomer(txCtx, in.CustomerID); err != nil {
			return err
		}
		card, err := s.customers.GetCreditCard(txCtx, in.CreditCardID)
		if err != nil {
			return err
		}
		if card.CustomerID != in.CustomerID {
			return domain.ErrCreditCardMismatch
		}
		productIDs, _ := domain.Demand(in.Items)
		for _, id := range productIDs {
			if _, err := s.products.GetProduct(txCtx, id); err != nil {
				if errors.Is(err, domain.ErrProductNotFound) {
					return &domain.StockError{Kind: domain.ErrProductNotFound, ProductID: id}
				}
				return err
			}
		}

		order := domain.Order{
			ID:             newUUID(),
			CustomerID:     in.CustomerID,
			CreditCardID:   in.CreditCardID,
			Status:         domain.OrderStatusPlaced,
			Items:          append([]domain.OrderItem(nil), in.Items...),
			IdempotencyKey: in.IdempotencyKey,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		if err := s.repo.CreateOrder(txCtx, order); err != nil {
			// Re-read on conflict to keep idempotent retries consistent under concurrency.
			if errors.Is(err, domain.ErrIdempotencyConflict) && in.IdempotencyKey != "" {
				existing, err := s.repo.FindOrderByIdempotencyKey(txCtx, in.IdempotencyKey)
				if err != nil {
					return err
				}
				if existing != nil && sameRequest(*existing, in) {
					result = PlaceOrderResult{Order: *existing, Created: false}
					return nil
				}
			}
			return err
		}

		result = PlaceOrderResult{Order: order, Created: true}
		return nil
	})
	if err != nil {
		return PlaceOrderResult{}, err
	}

	if result.Created {
		publishEvent(ctx, s.publisher, s.logger, domain.NewOrderEvent(newUUID(), domain.EventOrderPlaced, result.Order, "", now))
	}
	return result, nil
}

func sameRequest(existing domain.Order, in PlaceOrderInput) bool {
	if existing.CustomerID != in.CustomerID || existing.CreditCardID != in.CreditCardID {
		return false
	}
	if len(existing.Items) != len(in.Items) {
		return false
	}
	for i := range existing.Items {
		if existing.Items[i] != in.Items[i] {
			return false
		}
	}
	return true
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	if orderID == "" {
		return domain.Order{}, domain.ErrInvalidID
	}
	return s.repo.GetOrder(ctx, orderID)
}

func (s *OrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return s.repo.ListOrders(ctx)
}

// OrdersByCustomer is derived from the order store; there is no per-customer list to keep in sync.
func (s *OrderService) OrdersByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	if customerID == "" {
		return nil, domain.ErrInvalidID
	}
	if _, err := s.customers.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	return s.repo.ListOrdersByCustomer(ctx, customerID)
}

func (s *OrderService) OrdersByCreditCard(ctx context.Context, cardID string) ([]domain.Order, error) {
	if cardID == "" {
		return nil, domain.ErrInvalidID
	}
	if _, err := s.customers.GetCreditCard(ctx, cardID); err != nil {
		return nil, err
	}
	return s.repo.ListOrdersByCreditCard(ctx, cardID)
}
