package order_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"petfoodstore/errs"
	"petfoodstore/models"
	"petfoodstore/notify"
	"petfoodstore/order"
	"petfoodstore/store/memstore"
)

type recordingSink struct {
	mu     sync.Mutex
	events []notify.Event
}

func (s *recordingSink) Emit(_ context.Context, e notify.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) count(t models.NotificationType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

func setup(t *testing.T) (*memstore.Store, *order.Service, *recordingSink, uint) {
	t.Helper()
	st := memstore.New()
	sink := &recordingSink{}
	svc := order.NewService(st, st, st, sink)

	user := models.User{Username: "alice", Email: "alice@example.com", Role: models.RoleCustomer, Active: true}
	if err := st.CreateUser(context.Background(), &user); err != nil {
		t.Fatal(err)
	}
	return st, svc, sink, user.ID
}

func addProduct(t *testing.T, st *memstore.Store, name, price string, qty int, active bool) uint {
	t.Helper()
	p := models.Product{Name: name, Price: decimal.RequireFromString(price), Quantity: qty, Active: active}
	if err := st.CreateProduct(context.Background(), &p); err != nil {
		t.Fatal(err)
	}
	return p.ID
}

func TestCreateOrderComputesTotal(t *testing.T) {
	st, svc, sink, userID := setup(t)
	ctx := context.Background()

	pa := addProduct(t, st, "Dog chow", "10.00", 10, true)
	pb := addProduct(t, st, "Cat treats", "5.50", 10, true)

	o, err := svc.Create(ctx, userID, order.CreateInput{
		Items: []order.ItemInput{
			{ProductID: pa, Quantity: 2},
			{ProductID: pb, Quantity: 1},
		},
		PaymentMethod: models.MethodMomo,
	})
	if err != nil {
		t.Fatal(err)
	}

	if !o.TotalAmount.Equal(decimal.RequireFromString("25.50")) {
		t.Error("Expected total 25.50, got", o.TotalAmount)
	}
	if o.Status != models.OrderPending {
		t.Error("Expected new order to be PENDING, got", o.Status)
	}
	if o.OrderNumber == "" {
		t.Error("Expected an order number")
	}

	// stock reserved
	p, _ := st.FindProductByID(ctx, pa)
	if p.Quantity != 8 {
		t.Error("Expected stock 8 after reserving 2, got", p.Quantity)
	}

	// price snapshot, not a live reference
	p.Price = decimal.RequireFromString("99.99")
	if err := st.SaveProduct(ctx, p); err != nil {
		t.Fatal(err)
	}
	got, _ := svc.GetByID(ctx, o.ID)
	if !got.Items[0].Price.Equal(decimal.RequireFromString("10.00")) {
		t.Error("Expected snapshotted item price 10.00, got", got.Items[0].Price)
	}

	if sink.count(models.NotifyOrderPlaced) != 1 {
		t.Error("Expected one ORDER_PLACED event")
	}
}

func TestCreateOrderValidation(t *testing.T) {
	st, svc, _, userID := setup(t)
	ctx := context.Background()

	pa := addProduct(t, st, "Dog chow", "10.00", 1, true)

	if _, err := svc.Create(ctx, userID, order.CreateInput{PaymentMethod: models.MethodMomo}); !errs.Is(err, errs.KindValidation) {
		t.Error("Expected validation error for empty items, got", err)
	}

	_, err := svc.Create(ctx, userID, order.CreateInput{
		Items:         []order.ItemInput{{ProductID: pa, Quantity: 0}},
		PaymentMethod: models.MethodMomo,
	})
	if !errs.Is(err, errs.KindValidation) {
		t.Error("Expected validation error for zero quantity, got", err)
	}

	_, err = svc.Create(ctx, userID, order.CreateInput{
		Items:         []order.ItemInput{{ProductID: pa, Quantity: 1}},
		PaymentMethod: "CREDIT_CARD",
	})
	if !errs.Is(err, errs.KindValidation) {
		t.Error("Expected validation error for unknown payment method, got", err)
	}

	_, err = svc.Create(ctx, userID, order.CreateInput{
		Items:         []order.ItemInput{{ProductID: 999, Quantity: 1}},
		PaymentMethod: models.MethodMomo,
	})
	if !errs.Is(err, errs.KindNotFound) {
		t.Error("Expected not found for missing product, got", err)
	}

	_, err = svc.Create(ctx, 999, order.CreateInput{
		Items:         []order.ItemInput{{ProductID: pa, Quantity: 1}},
		PaymentMethod: models.MethodMomo,
	})
	if !errs.Is(err, errs.KindNotFound) {
		t.Error("Expected not found for missing user, got", err)
	}
}

func TestCreateOrderInactiveProduct(t *testing.T) {
	st, svc, _, userID := setup(t)
	ctx := context.Background()

	pa := addProduct(t, st, "Discontinued", "10.00", 5, false)

	_, err := svc.Create(ctx, userID, order.CreateInput{
		Items:         []order.ItemInput{{ProductID: pa, Quantity: 1}},
		PaymentMethod: models.MethodCashOnDelivery,
	})
	if !errs.Is(err, errs.KindValidation) {
		t.Error("Expected validation error for inactive product, got", err)
	}

	p, _ := st.FindProductByID(ctx, pa)
	if p.Quantity != 5 {
		t.Error("Expected stock untouched, got", p.Quantity)
	}
}

func TestCreateOrderRollsBackPartialDecrement(t *testing.T) {
	st, svc, _, userID := setup(t)
	ctx := context.Background()

	pa := addProduct(t, st, "Dog chow", "10.00", 10, true)
	pb := addProduct(t, st, "Cat treats", "5.50", 1, true)

	_, err := svc.Create(ctx, userID, order.CreateInput{
		Items: []order.ItemInput{
			{ProductID: pa, Quantity: 3},
			{ProductID: pb, Quantity: 2}, // insufficient
		},
		PaymentMethod: models.MethodMomo,
	})
	if !errs.Is(err, errs.KindValidation) {
		t.Fatal("Expected validation error for insufficient stock, got", err)
	}

	// the decrement already applied to pa must be rolled back
	p, _ := st.FindProductByID(ctx, pa)
	if p.Quantity != 10 {
		t.Error("Expected stock restored to 10, got", p.Quantity)
	}
	p, _ = st.FindProductByID(ctx, pb)
	if p.Quantity != 1 {
		t.Error("Expected stock untouched at 1, got", p.Quantity)
	}
}

func TestConcurrentOrdersRespectStock(t *testing.T) {
	st, svc, _, userID := setup(t)
	ctx := context.Background()

	const stock = 5
	const requests = 12
	pa := addProduct(t, st, "Limited batch", "10.00", stock, true)

	var wg sync.WaitGroup
	results := make(chan error, requests)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, userID, order.CreateInput{
				Items:         []order.ItemInput{{ProductID: pa, Quantity: 1}},
				PaymentMethod: models.MethodCashOnDelivery,
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, failed int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errs.Is(err, errs.KindValidation):
			failed++
		default:
			t.Error("Unexpected error kind:", err)
		}
	}

	if ok != stock {
		t.Errorf("Expected exactly %d orders to succeed, got %d", stock, ok)
	}
	if failed != requests-stock {
		t.Errorf("Expected %d validation failures, got %d", requests-stock, failed)
	}
	p, _ := st.FindProductByID(ctx, pa)
	if p.Quantity != 0 {
		t.Error("Expected final stock 0, got", p.Quantity)
	}
}

func TestUpdateStatusEdges(t *testing.T) {
	st, svc, _, userID := setup(t)
	ctx := context.Background()

	pa := addProduct(t, st, "Dog chow", "10.00", 10, true)
	o, err := svc.Create(ctx, userID, order.CreateInput{
		Items:         []order.ItemInput{{ProductID: pa, Quantity: 1}},
		PaymentMethod: models.MethodMomo,
	})
	if err != nil {
		t.Fatal(err)
	}

	// illegal jump leaves the state unchanged
	if _, err := svc.UpdateStatus(ctx, o.ID, models.OrderShipped); !errs.Is(err, errs.KindInvalidTransition) {
		t.Error("Expected invalid transition for PENDING -> SHIPPED, got", err)
	}
	got, _ := svc.GetByID(ctx, o.ID)
	if got.Status != models.OrderPending {
		t.Error("Expected state unchanged after rejected transition, got", got.Status)
	}

	for _, next := range []models.OrderStatus{
		models.OrderConfirmed, models.OrderProcessing, models.OrderShipped, models.OrderDelivered,
	} {
		if _, err := svc.UpdateStatus(ctx, o.ID, next); err != nil {
			t.Fatalf("Expected transition to %s to succeed: %v", next, err)
		}
	}

	if _, err := svc.UpdateStatus(ctx, o.ID, models.OrderCancelled); !errs.Is(err, errs.KindInvalidTransition) {
		t.Error("Expected DELIVERED to be terminal, got", err)
	}

	if _, err := svc.UpdateStatus(ctx, o.ID, "BOGUS"); !errs.Is(err, errs.KindValidation) {
		t.Error("Expected validation error for unknown status, got", err)
	}
}

func TestCancelRestoresStockOnce(t *testing.T) {
	st, svc, _, userID := setup(t)
	ctx := context.Background()

	pa := addProduct(t, st, "Dog chow", "10.00", 10, true)
	pb := addProduct(t, st, "Cat treats", "5.50", 4, true)

	o, err := svc.Create(ctx, userID, order.CreateInput{
		Items: []order.ItemInput{
			{ProductID: pa, Quantity: 3},
			{ProductID: pb, Quantity: 2},
		},
		PaymentMethod: models.MethodCashOnDelivery,
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Cancel(ctx, o.ID); err != nil {
		t.Fatal(err)
	}

	p, _ := st.FindProductByID(ctx, pa)
	if p.Quantity != 10 {
		t.Error("Expected stock back to 10, got", p.Quantity)
	}
	p, _ = st.FindProductByID(ctx, pb)
	if p.Quantity != 4 {
		t.Error("Expected stock back to 4, got", p.Quantity)
	}

	// second cancel is rejected and must not restore again
	if _, err := svc.Cancel(ctx, o.ID); !errs.Is(err, errs.KindConflict) {
		t.Error("Expected conflict on double cancel, got", err)
	}
	p, _ = st.FindProductByID(ctx, pa)
	if p.Quantity != 10 {
		t.Error("Expected stock still 10 after double cancel, got", p.Quantity)
	}
}

func TestCancelShippedOrder(t *testing.T) {
	st, svc, _, userID := setup(t)
	ctx := context.Background()

	pa := addProduct(t, st, "Dog chow", "10.00", 10, true)
	o, _ := svc.Create(ctx, userID, order.CreateInput{
		Items:         []order.ItemInput{{ProductID: pa, Quantity: 1}},
		PaymentMethod: models.MethodMomo,
	})
	for _, next := range []models.OrderStatus{models.OrderConfirmed, models.OrderProcessing, models.OrderShipped} {
		if _, err := svc.UpdateStatus(ctx, o.ID, next); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := svc.Cancel(ctx, o.ID); !errs.Is(err, errs.KindConflict) {
		t.Error("Expected conflict cancelling a shipped order, got", err)
	}
}

func TestConfirmPaidIsIdempotent(t *testing.T) {
	st, svc, sink, userID := setup(t)
	ctx := context.Background()

	pa := addProduct(t, st, "Dog chow", "10.00", 10, true)
	o, _ := svc.Create(ctx, userID, order.CreateInput{
		Items:         []order.ItemInput{{ProductID: pa, Quantity: 1}},
		PaymentMethod: models.MethodMomo,
	})

	if err := svc.ConfirmPaid(ctx, o.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.ConfirmPaid(ctx, o.ID); err != nil {
		t.Fatal(err)
	}

	got, _ := svc.GetByID(ctx, o.ID)
	if got.Status != models.OrderConfirmed {
		t.Error("Expected CONFIRMED, got", got.Status)
	}
	if n := sink.count(models.NotifyOrderStatus); n != 1 {
		t.Error("Expected exactly one ORDER_STATUS event, got", n)
	}
}

func TestReadPaths(t *testing.T) {
	st, svc, _, userID := setup(t)
	ctx := context.Background()

	pa := addProduct(t, st, "Dog chow", "10.00", 10, true)
	o, _ := svc.Create(ctx, userID, order.CreateInput{
		Items:         []order.ItemInput{{ProductID: pa, Quantity: 1}},
		PaymentMethod: models.MethodMomo,
	})

	if _, err := svc.GetByID(ctx, 999); !errs.Is(err, errs.KindNotFound) {
		t.Error("Expected not found for missing order, got", err)
	}

	byUser, err := svc.ListByUser(ctx, userID)
	if err != nil || len(byUser) != 1 {
		t.Error("Expected one order for user, got", len(byUser), err)
	}

	pending, err := svc.ListByStatus(ctx, models.OrderPending)
	if err != nil || len(pending) != 1 {
		t.Error("Expected one pending order, got", len(pending), err)
	}

	if _, err := svc.ListByStatus(ctx, "BOGUS"); !errs.Is(err, errs.KindValidation) {
		t.Error("Expected validation error for unknown status filter, got", err)
	}

	byNumber, err := svc.GetByNumber(ctx, o.OrderNumber)
	if err != nil || byNumber.ID != o.ID {
		t.Error("Expected lookup by order number to find the order")
	}
}
