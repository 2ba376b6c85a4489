package app

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/clock"
	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/domain"
	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/inventory"
)

const tracerName = "github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/app"

// FulfillmentService moves placed orders to processing, reserving stock for every line item
// or for none of them.
type FulfillmentService struct {
	orders    OrderStatusStore
	products  ProductLookup
	stock     inventory.Authority
	clock     clock.Clock
	logger    *zap.Logger
	tracer    trace.Tracer
	metrics   Metrics
	publisher EventPublisher
}

type Option func(*options)

type options struct {
	logger    *zap.Logger
	tracer    trace.Tracer
	metrics   Metrics
	publisher EventPublisher
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

func WithMetrics(m Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

func WithPublisher(p EventPublisher) Option {
	return func(o *options) {
		if p != nil {
			o.publisher = p
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:    zap.NewNop(),
		tracer:    otel.Tracer(tracerName),
		metrics:   noopMetrics{},
		publisher: noopPublisher{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func NewFulfillmentService(orders OrderStatusStore, products ProductLookup, stock inventory.Authority, clk clock.Clock, opts ...Option) *FulfillmentService {
	o := buildOptions(opts)
	return &FulfillmentService{
		orders:    orders,
		products:  products,
		stock:     stock,
		clock:     clk,
		logger:    o.logger,
		tracer:    o.tracer,
		metrics:   o.metrics,
		publisher: o.publisher,
	}
}

// ProcessOrder reserves stock at locationID for every item of order and moves it to processing.
//
// On any failure order is left untouched and stock is back where it started, except when undoing
// committed deductions fails too: then the error wraps domain.ErrInventoryInconsistent.
func (s *FulfillmentService) ProcessOrder(ctx context.Context, order *domain.Order, locationID string) (err error) {
	if order == nil {
		return domain.ErrOrderNotFound
	}
	ctx, span := s.tracer.Start(ctx, "FulfillmentService.ProcessOrder", trace.WithAttributes(
		attribute.String("order.id", order.ID),
		attribute.String("inventory.location_id", locationID),
		attribute.Int("order.item_count", len(order.Items)),
	))
	defer func() {
		outcome := Outcome(err)
		span.SetAttributes(attribute.String("order.outcome", outcome))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
		s.metrics.ObserveOrderOperation("process", outcome)
	}()

	if order.Status != domain.OrderStatusPlaced {
		return domain.ErrInvalidState
	}
	if locationID == "" {
		return domain.ErrInvalidID
	}
	if err := domain.ValidateItems(order.Items); err != nil {
		return err
	}

	productIDs, demand := domain.Demand(order.Items)
	for _, id := range productIDs {
		if _, err := s.products.GetProduct(ctx, id); err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				return &domain.StockError{Kind: domain.ErrProductNotFound, ProductID: id}
			}
			return fmt.Errorf("resolve product %s: %w", id, err)
		}
	}

	// Advisory only: a concurrent caller may drain stock before the deductions below.
	for _, id := range productIDs {
		ok, err := s.stock.IsAvailable(ctx, id, demand[id], locationID)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				return &domain.StockError{Kind: domain.ErrProductNotFound, ProductID: id, LocationID: locationID}
			}
			return fmt.Errorf("check availability of %s: %w", id, err)
		}
		if !ok {
			return &domain.StockError{Kind: domain.ErrInsufficientStock, ProductID: id, LocationID: locationID}
		}
	}

	var ledger inventory.Ledger
	for _, item := range order.Items {
		if _, err := s.stock.AdjustInventory(ctx, item.ProductID, -item.Quantity, locationID); err != nil {
			return s.abort(ctx, order.ID, &ledger, &domain.StockError{
				Kind:       domain.ErrPartialAllocation,
				ProductID:  item.ProductID,
				LocationID: locationID,
				Cause:      err,
			})
		}
		ledger.Record(domain.Adjustment{ProductID: item.ProductID, LocationID: locationID, Delta: -item.Quantity})
	}

	now := s.clock.Now()
	if err := s.orders.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusPlaced, domain.OrderStatusProcessing, now); err != nil {
		return s.abort(ctx, order.ID, &ledger, err)
	}

	order.Status = domain.OrderStatusProcessing
	order.UpdatedAt = now
	s.publish(ctx, domain.EventOrderProcessing, *order, locationID)
	return nil
}

// ProcessOrderByID loads an order and processes it. The returned order reflects the outcome.
func (s *FulfillmentService) ProcessOrderByID(ctx context.Context, orderID, locationID string) (domain.Order, error) {
	if orderID == "" {
		return domain.Order{}, domain.ErrInvalidID
	}
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if err := s.ProcessOrder(ctx, &order, locationID); err != nil {
		return order, err
	}
	return order, nil
}

// abort undoes the ledger and returns cause, or an inconsistency error if anything stayed deducted.
func (s *FulfillmentService) abort(ctx context.Context, orderID string, ledger *inventory.Ledger, cause error) error {
	if ledger.Len() == 0 {
		return cause
	}
	// Compensation must finish even if the caller has gone away.
	unrestored, rbErr := ledger.Rollback(context.WithoutCancel(ctx), s.stock)
	if len(unrestored) == 0 {
		s.logger.Warn("order processing rolled back",
			zap.String("order_id", orderID),
			zap.Error(cause),
		)
		return cause
	}

	s.metrics.IncInventoryInconsistent()
	s.logger.Error("inventory inconsistent after failed rollback",
		zap.String("order_id", orderID),
		zap.Stringers("unrestored", unrestored),
		zap.NamedError("cause", cause),
		zap.NamedError("rollback_error", rbErr),
	)
	return &domain.InconsistencyError{Unrestored: unrestored, Cause: errors.Join(cause, rbErr)}
}

func (s *FulfillmentService) publish(ctx context.Context, typ domain.EventType, order domain.Order, locationID string) {
	publishEvent(ctx, s.publisher, s.logger, domain.NewOrderEvent(newUUID(), typ, order, locationID, s.clock.Now()))
}

func publishEvent(ctx context.Context, p EventPublisher, logger *zap.Logger, event domain.OrderEvent) {
	if err := p.Publish(ctx, event); err != nil {
		logger.Warn("publish order event failed",
			zap.String("order_id", event.OrderID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
	}
}
