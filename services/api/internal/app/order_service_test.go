package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/clock"
	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/domain"
)

func newOrderFixture() (*OrderService, *fakeOrderRepo, *fakeCatalog, *fakePublisher) {
	repo := newFakeOrderRepo()
	catalog := newFakeCatalog()
	catalog.customers["c1"] = domain.Customer{ID: "c1", Name: "Ada"}
	catalog.customers["c2"] = domain.Customer{ID: "c2", Name: "Grace"}
	catalog.cards["card1"] = domain.CreditCard{ID: "card1", CustomerID: "c1", Last4: "4242"}
	catalog.cards["card2"] = domain.CreditCard{ID: "card2", CustomerID: "c2", Last4: "1111"}
	catalog.products["p1"] = domain.Product{ID: "p1", Name: "Lamp"}
	pub := &fakePublisher{}
	now := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	svc := NewOrderService(repo, catalog, catalog, clock.NewManual(now), WithPublisher(pub))
	return svc, repo, catalog, pub
}

func TestOrderService_PlaceOrder(t *testing.T) {
	t.Parallel()

	items := []domain.OrderItem{{ProductID: "p1", Quantity: 2}}

	t.Run("creates placed order", func(t *testing.T) {
		svc, repo, _, pub := newOrderFixture()

		res, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
			CustomerID:   "c1",
			CreditCardID: "card1",
			Items:        items,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !res.Created {
			t.Fatalf("expected Created=true")
		}
		if res.Order.ID == "" {
			t.Fatalf("expected order ID to be set")
		}
		if res.Order.Status != domain.OrderStatusPlaced {
			t.Fatalf("expected status placed, got %s", res.Order.Status)
		}
		if _, ok := repo.orders[res.Order.ID]; !ok {
			t.Fatalf("expected order persisted")
		}
		events := pub.published()
		if len(events) != 1 || events[0].Type != domain.EventOrderPlaced || events[0].OrderID != res.Order.ID {
			t.Fatalf("expected one order.placed event, got %+v", events)
		}
	})

	t.Run("same request twice without key creates two orders", func(t *testing.T) {
		svc, repo, _, _ := newOrderFixture()
		in := PlaceOrderInput{CustomerID: "c1", CreditCardID: "card1", Items: items}

		first, err := svc.PlaceOrder(context.Background(), in)
		if err != nil {
			t.Fatalf("first place: %v", err)
		}
		second, err := svc.PlaceOrder(context.Background(), in)
		if err != nil {
			t.Fatalf("second place: %v", err)
		}
		if first.Order.ID == second.Order.ID {
			t.Fatalf("expected distinct orders")
		}
		if len(repo.orders) != 2 {
			t.Fatalf("expected 2 orders, got %d", len(repo.orders))
		}
	})

	t.Run("idempotent replay returns existing order", func(t *testing.T) {
		svc, repo, _, pub := newOrderFixture()
		in := PlaceOrderInput{CustomerID: "c1", CreditCardID: "card1", Items: items, IdempotencyKey: "idem-1"}

		first, err := svc.PlaceOrder(context.Background(), in)
		if err != nil {
			t.Fatalf("first place: %v", err)
		}
		second, err := svc.PlaceOrder(context.Background(), in)
		if err != nil {
			t.Fatalf("replay: %v", err)
		}
		if second.Created {
			t.Fatalf("expected Created=false")
		}
		if second.Order.ID != first.Order.ID {
			t.Fatalf("expected order %s, got %s", first.Order.ID, second.Order.ID)
		}
		if len(repo.orders) != 1 {
			t.Fatalf("expected 1 order, got %d", len(repo.orders))
		}
		if len(pub.published()) != 1 {
			t.Fatalf("expected replay not to publish")
		}
	})

	t.Run("replay with different payload conflicts", func(t *testing.T) {
		svc, _, _, _ := newOrderFixture()
		in := PlaceOrderInput{CustomerID: "c1", CreditCardID: "card1", Items: items, IdempotencyKey: "idem-1"}
		if _, err := svc.PlaceOrder(context.Background(), in); err != nil {
			t.Fatalf("first place: %v", err)
		}

		in.Items = []domain.OrderItem{{ProductID: "p1", Quantity: 5}}
		_, err := svc.PlaceOrder(context.Background(), in)
		if !errors.Is(err, domain.ErrIdempotencyConflict) {
			t.Fatalf("expected ErrIdempotencyConflict, got %v", err)
		}
	})

	t.Run("idempotent on create conflict when order exists", func(t *testing.T) {
		svc, repo, _, _ := newOrderFixture()
		existing := domain.Order{
			ID:             "order-6",
			CustomerID:     "c1",
			CreditCardID:   "card1",
			Status:         domain.OrderStatusPlaced,
			Items:          items,
			IdempotencyKey: "idem-1",
		}
		race := &raceOrderRepo{fakeOrderRepo: repo, winner: existing}
		svc.repo = race

		res, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
			CustomerID: "c1", CreditCardID: "card1", Items: items, IdempotencyKey: "idem-1",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Created {
			t.Fatalf("expected Created=false")
		}
		if res.Order.ID != "order-6" {
			t.Fatalf("expected order-6, got %s", res.Order.ID)
		}
	})

	errCases := []struct {
		name string
		in   PlaceOrderInput
		want error
	}{
		{name: "missing customer id", in: PlaceOrderInput{CreditCardID: "card1", Items: items}, want: domain.ErrInvalidID},
		{name: "empty items", in: PlaceOrderInput{CustomerID: "c1", CreditCardID: "card1"}, want: domain.ErrEmptyOrder},
		{name: "bad quantity", in: PlaceOrderInput{CustomerID: "c1", CreditCardID: "card1", Items: []domain.OrderItem{{ProductID: "p1", Quantity: -1}}}, want: domain.ErrInvalidQuantity},
		{name: "unknown customer", in: PlaceOrderInput{CustomerID: "nobody", CreditCardID: "card1", Items: items}, want: domain.ErrCustomerNotFound},
		{name: "unknown card", in: PlaceOrderInput{CustomerID: "c1", CreditCardID: "nocard", Items: items}, want: domain.ErrCreditCardNotFound},
		{name: "card of another customer", in: PlaceOrderInput{CustomerID: "c1", CreditCardID: "card2", Items: items}, want: domain.ErrCreditCardMismatch},
		{name: "unknown product", in: PlaceOrderInput{CustomerID: "c1", CreditCardID: "card1", Items: []domain.OrderItem{{ProductID: "ghost", Quantity: 1}}}, want: domain.ErrProductNotFound},
	}
	for _, tc := range errCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc, repo, _, pub := newOrderFixture()

			_, err := svc.PlaceOrder(context.Background(), tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if len(repo.orders) != 0 {
				t.Fatalf("expected nothing persisted")
			}
			if len(pub.published()) != 0 {
				t.Fatalf("expected no events")
			}
		})
	}
}

func TestOrderService_DerivedQueries(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newOrderFixture()
	ctx := context.Background()
	items := []domain.OrderItem{{ProductID: "p1", Quantity: 1}}

	a, err := svc.PlaceOrder(ctx, PlaceOrderInput{CustomerID: "c1", CreditCardID: "card1", Items: items})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	b, err := svc.PlaceOrder(ctx, PlaceOrderInput{CustomerID: "c2", CreditCardID: "card2", Items: items})
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	byCustomer, err := svc.OrdersByCustomer(ctx, "c1")
	if err != nil {
		t.Fatalf("orders by customer: %v", err)
	}
	if len(byCustomer) != 1 || byCustomer[0].ID != a.Order.ID {
		t.Fatalf("expected only %s, got %+v", a.Order.ID, byCustomer)
	}

	byCard, err := svc.OrdersByCreditCard(ctx, "card2")
	if err != nil {
		t.Fatalf("orders by card: %v", err)
	}
	if len(byCard) != 1 || byCard[0].ID != b.Order.ID {
		t.Fatalf("expected only %s, got %+v", b.Order.ID, byCard)
	}

	all, err := svc.ListOrders(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(all))
	}

	got, err := svc.GetOrder(ctx, a.Order.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CustomerID != "c1" {
		t.Fatalf("expected customer c1, got %s", got.CustomerID)
	}

	if _, err := svc.GetOrder(ctx, "missing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
	if _, err := svc.OrdersByCustomer(ctx, "nobody"); !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
	if _, err := svc.OrdersByCreditCard(ctx, "nocard"); !errors.Is(err, domain.ErrCreditCardNotFound) {
		t.Fatalf("expected ErrCreditCardNotFound, got %v", err)
	}
}

// raceOrderRepo simulates a concurrent placement winning the idempotency key between lookup and insert.
type raceOrderRepo struct {
	*fakeOrderRepo
	winner domain.Order
	looked bool
}

func (r *raceOrderRepo) FindOrderByIdempotencyKey(_ context.Context, key string) (*domain.Order, error) {
	if !r.looked {
		r.looked = true
		return nil, nil
	}
	w := r.winner
	return &w, nil
}

func (r *raceOrderRepo) CreateOrder(context.Context, domain.Order) error {
	return domain.ErrIdempotencyConflict
}
