package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/domain"
	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/testutil"
)

func TestOrderRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewOrderRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	newOrder := func(customerID, cardID, productID, key string) domain.Order {
		now := time.Now().UTC().Truncate(time.Microsecond)
		return domain.Order{
			ID:             uuid.NewString(),
			CustomerID:     customerID,
			CreditCardID:   cardID,
			Status:         domain.OrderStatusPlaced,
			Items:          []domain.OrderItem{{ProductID: productID, Quantity: 2}, {ProductID: productID, Quantity: 1}},
			IdempotencyKey: key,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
	}

	t.Run("CreateOrder persists order with items", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		customerID, cardID := testutil.InsertCustomerWithCard(t, ctx, pool, "ada")
		productID := testutil.InsertProduct(t, ctx, pool, "Lamp")
		order := newOrder(customerID, cardID, productID, "idem-1")

		if err := repo.CreateOrder(ctx, order); err != nil {
			t.Fatalf("create order: %v", err)
		}

		got, err := repo.GetOrder(ctx, order.ID)
		if err != nil {
			t.Fatalf("get order: %v", err)
		}
		if got.Status != domain.OrderStatusPlaced || got.CustomerID != customerID || got.IdempotencyKey != "idem-1" {
			t.Fatalf("unexpected order %+v", got)
		}
		if len(got.Items) != 2 || got.Items[0].Quantity != 2 || got.Items[1].Quantity != 1 {
			t.Fatalf("expected items in position order, got %+v", got.Items)
		}

		found, err := repo.FindOrderByIdempotencyKey(ctx, "idem-1")
		if err != nil || found == nil || found.ID != order.ID {
			t.Fatalf("expected order by key, got %+v (%v)", found, err)
		}
		missing, err := repo.FindOrderByIdempotencyKey(ctx, "idem-unknown")
		if err != nil || missing != nil {
			t.Fatalf("expected nil for unknown key, got %+v (%v)", missing, err)
		}
	})

	t.Run("CreateOrder maps constraint violations", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		customerID, cardID := testutil.InsertCustomerWithCard(t, ctx, pool, "ada")
		productID := testutil.InsertProduct(t, ctx, pool, "Lamp")

		if err := repo.CreateOrder(ctx, newOrder(customerID, cardID, productID, "idem-1")); err != nil {
			t.Fatalf("create order: %v", err)
		}
		err := repo.CreateOrder(ctx, newOrder(customerID, cardID, productID, "idem-1"))
		if !errors.Is(err, domain.ErrIdempotencyConflict) {
			t.Fatalf("expected ErrIdempotencyConflict, got %v", err)
		}

		// Two orders without a key are both accepted.
		if err := repo.CreateOrder(ctx, newOrder(customerID, cardID, productID, "")); err != nil {
			t.Fatalf("create keyless order: %v", err)
		}
		if err := repo.CreateOrder(ctx, newOrder(customerID, cardID, productID, "")); err != nil {
			t.Fatalf("create second keyless order: %v", err)
		}

		err = repo.CreateOrder(ctx, newOrder(customerID, cardID, uuid.NewString(), ""))
		if !errors.Is(err, domain.ErrProductNotFound) {
			t.Fatalf("expected ErrProductNotFound, got %v", err)
		}
		err = repo.CreateOrder(ctx, newOrder(uuid.NewString(), cardID, productID, ""))
		if !errors.Is(err, domain.ErrCustomerNotFound) {
			t.Fatalf("expected ErrCustomerNotFound, got %v", err)
		}
	})

	t.Run("idempotency conflict inside a transaction allows a lookup", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		customerID, cardID := testutil.InsertCustomerWithCard(t, ctx, pool, "ada")
		productID := testutil.InsertProduct(t, ctx, pool, "Lamp")
		first := newOrder(customerID, cardID, productID, "idem-race")

		inserted := make(chan struct{})
		looked := make(chan struct{})
		releaseFirst := sync.OnceFunc(func() { close(looked) })
		defer releaseFirst()

		done := make(chan error, 1)
		go func() {
			done <- repo.WithTx(ctx, func(txCtx context.Context) error {
				if err := repo.CreateOrder(txCtx, first); err != nil {
					return err
				}
				close(inserted)
				<-looked
				return nil
			})
		}()

		select {
		case <-inserted:
		case err := <-done:
			t.Fatalf("first insert: %v", err)
		}

		var replayed *domain.Order
		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			existing, err := repo.FindOrderByIdempotencyKey(txCtx, "idem-race")
			releaseFirst()
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("uncommitted order %s was visible", existing.ID)
			}

			err = repo.CreateOrder(txCtx, newOrder(customerID, cardID, productID, "idem-race"))
			if !errors.Is(err, domain.ErrIdempotencyConflict) {
				return fmt.Errorf("expected ErrIdempotencyConflict, got %v", err)
			}
			replayed, err = repo.FindOrderByIdempotencyKey(txCtx, "idem-race")
			return err
		})
		if err != nil {
			t.Fatalf("second transaction: %v", err)
		}
		if err := <-done; err != nil {
			t.Fatalf("first transaction: %v", err)
		}
		if replayed == nil || replayed.ID != first.ID || len(replayed.Items) != 2 {
			t.Fatalf("expected committed order %s after conflict, got %+v", first.ID, replayed)
		}
	})

	t.Run("derived queries by customer and card", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		adaID, adaCard := testutil.InsertCustomerWithCard(t, ctx, pool, "ada")
		graceID, graceCard := testutil.InsertCustomerWithCard(t, ctx, pool, "grace")
		productID := testutil.InsertProduct(t, ctx, pool, "Lamp")

		adaOrder := newOrder(adaID, adaCard, productID, "")
		graceOrder := newOrder(graceID, graceCard, productID, "")
		for _, o := range []domain.Order{adaOrder, graceOrder} {
			if err := repo.CreateOrder(ctx, o); err != nil {
				t.Fatalf("create order: %v", err)
			}
		}

		byCustomer, err := repo.ListOrdersByCustomer(ctx, adaID)
		if err != nil {
			t.Fatalf("list by customer: %v", err)
		}
		if len(byCustomer) != 1 || byCustomer[0].ID != adaOrder.ID || len(byCustomer[0].Items) != 2 {
			t.Fatalf("unexpected orders %+v", byCustomer)
		}

		byCard, err := repo.ListOrdersByCreditCard(ctx, graceCard)
		if err != nil {
			t.Fatalf("list by card: %v", err)
		}
		if len(byCard) != 1 || byCard[0].ID != graceOrder.ID {
			t.Fatalf("unexpected orders %+v", byCard)
		}

		all, err := repo.ListOrders(ctx)
		if err != nil || len(all) != 2 {
			t.Fatalf("expected 2 orders, got %d (%v)", len(all), err)
		}
	})

	t.Run("UpdateOrderStatus is guarded", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		customerID, cardID := testutil.InsertCustomerWithCard(t, ctx, pool, "ada")
		productID := testutil.InsertProduct(t, ctx, pool, "Lamp")
		order := newOrder(customerID, cardID, productID, "")
		if err := repo.CreateOrder(ctx, order); err != nil {
			t.Fatalf("create order: %v", err)
		}

		at := time.Now().UTC()
		if err := repo.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusPlaced, domain.OrderStatusProcessing, at); err != nil {
			t.Fatalf("update status: %v", err)
		}
		err := repo.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusPlaced, domain.OrderStatusProcessing, at)
		if !errors.Is(err, domain.ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
		err = repo.UpdateOrderStatus(ctx, uuid.NewString(), domain.OrderStatusPlaced, domain.OrderStatusProcessing, at)
		if !errors.Is(err, domain.ErrOrderNotFound) {
			t.Fatalf("expected ErrOrderNotFound, got %v", err)
		}

		got, err := repo.GetOrder(ctx, order.ID)
		if err != nil || got.Status != domain.OrderStatusProcessing {
			t.Fatalf("expected processing, got %+v (%v)", got, err)
		}

		if _, err := repo.GetOrder(ctx, "not-a-uuid"); !errors.Is(err, domain.ErrInvalidID) {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}
		if _, err := repo.GetOrder(ctx, uuid.NewString()); !errors.Is(err, domain.ErrOrderNotFound) {
			t.Fatalf("expected ErrOrderNotFound, got %v", err)
		}
	})
}
