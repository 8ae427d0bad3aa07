// Package order owns the order lifecycle: creation with stock reservation,
// status transitions, cancellation and the read paths.
package order

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"petfoodstore/errs"
	"petfoodstore/models"
	"petfoodstore/notify"
	"petfoodstore/store"
)

type Service struct {
	accounts store.AccountStore
	catalog  store.CatalogStore
	orders   store.OrderStore
	events   notify.Sink
}

func NewService(accounts store.AccountStore, catalog store.CatalogStore, orders store.OrderStore, events notify.Sink) *Service {
	if events == nil {
		events = notify.Discard{}
	}
	return &Service{accounts: accounts, catalog: catalog, orders: orders, events: events}
}

type ItemInput struct {
	ProductID uint `json:"productId"`
	Quantity  int  `json:"quantity"`
}

type CreateInput struct {
	Items           []ItemInput          `json:"items"`
	PaymentMethod   models.PaymentMethod `json:"paymentMethod"`
	ShippingAddress string               `json:"shippingAddress"`
	Phone           string               `json:"phone"`
	Notes           string               `json:"notes"`
}

// NewOrderNumber builds the human-facing order identifier, distinct from the
// numeric row id.
func NewOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", time.Now().Format("20060102"), suffix)
}

// Create validates the items, reserves stock and persists the order in
// PENDING. Stock reservation is all-or-nothing: a failed decrement rolls back
// every decrement already applied for this order.
func (s *Service) Create(ctx context.Context, userID uint, in CreateInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, errs.Validation("order must contain at least one item")
	}
	if !in.PaymentMethod.Valid() {
		return nil, errs.Validation("unknown payment method %q", in.PaymentMethod)
	}
	for _, it := range in.Items {
		if it.ProductID == 0 || it.Quantity <= 0 {
			return nil, errs.Validation("item quantity must be positive")
		}
	}

	user, err := s.accounts.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// items only ever holds positions whose stock decrement succeeded, so it
	// doubles as the compensation list.
	items := make([]models.OrderItem, 0, len(in.Items))
	rollback := func() {
		for _, it := range items {
			if err := s.catalog.RestoreStock(ctx, it.ProductID, it.Quantity); err != nil {
				log.Printf("order: failed to roll back stock for product %d: %v", it.ProductID, err)
			}
		}
	}

	for _, it := range in.Items {
		p, err := s.catalog.FindProductByID(ctx, it.ProductID)
		if err != nil {
			rollback()
			return nil, err
		}
		if !p.Active {
			rollback()
			return nil, errs.Validation("product %q is not available", p.Name)
		}
		if err := s.catalog.DecrementStock(ctx, p.ID, it.Quantity); err != nil {
			rollback()
			return nil, err
		}
		items = append(items, models.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Price:       p.Price,
			Quantity:    it.Quantity,
		})
	}

	o := models.Order{
		OrderNumber:     NewOrderNumber(),
		UserID:          user.ID,
		Items:           items,
		Status:          models.OrderPending,
		PaymentMethod:   in.PaymentMethod,
		ShippingAddress: in.ShippingAddress,
		Phone:           in.Phone,
		Notes:           in.Notes,
	}
	o.ComputeTotal()

	if err := s.orders.CreateOrder(ctx, &o); err != nil {
		rollback()
		return nil, err
	}

	s.events.Emit(ctx, notify.Event{
		Type:    models.NotifyOrderPlaced,
		UserID:  user.ID,
		Title:   "Order placed",
		Message: fmt.Sprintf("Order %s placed, total %s", o.OrderNumber, o.TotalAmount.StringFixed(2)),
		RefID:   o.ID,
	})
	return &o, nil
}

// UpdateStatus moves the order along a permitted edge. Entering CANCELLED
// returns the reserved stock.
func (s *Service) UpdateStatus(ctx context.Context, id uint, next models.OrderStatus) (*models.Order, error) {
	if !next.Valid() {
		return nil, errs.Validation("unknown order status %q", next)
	}
	o, err := s.orders.FindOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransition(next) {
		return nil, errs.InvalidTransition("order %s cannot go from %s to %s", o.OrderNumber, o.Status, next)
	}

	applied, err := s.orders.UpdateOrderStatus(ctx, o.ID, o.Status, next)
	if err != nil {
		return nil, err
	}
	if !applied {
		// the order moved concurrently; report the stale read
		return nil, errs.Conflict("order %s changed concurrently", o.OrderNumber)
	}

	if next == models.OrderCancelled {
		s.restoreStock(ctx, o)
	}

	o.Status = next
	s.events.Emit(ctx, notify.Event{
		Type:    models.NotifyOrderStatus,
		UserID:  o.UserID,
		Title:   "Order " + string(next),
		Message: fmt.Sprintf("Order %s is now %s", o.OrderNumber, next),
		RefID:   o.ID,
	})
	return o, nil
}

// Cancel is the customer-facing wrapper: allowed until the order ships.
func (s *Service) Cancel(ctx context.Context, id uint) (*models.Order, error) {
	o, err := s.orders.FindOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch o.Status {
	case models.OrderShipped, models.OrderDelivered:
		return nil, errs.Conflict("order %s already shipped", o.OrderNumber)
	case models.OrderCancelled:
		return nil, errs.Conflict("order %s already cancelled", o.OrderNumber)
	}
	return s.UpdateStatus(ctx, id, models.OrderCancelled)
}

// ConfirmPaid is the payment-success side effect: PENDING -> CONFIRMED.
// Safe to call more than once; only the first call moves the order.
func (s *Service) ConfirmPaid(ctx context.Context, id uint) error {
	applied, err := s.orders.UpdateOrderStatus(ctx, id, models.OrderPending, models.OrderConfirmed)
	if err != nil {
		return err
	}
	if applied {
		if o, err := s.orders.FindOrderByID(ctx, id); err == nil {
			s.events.Emit(ctx, notify.Event{
				Type:    models.NotifyOrderStatus,
				UserID:  o.UserID,
				Title:   "Order confirmed",
				Message: fmt.Sprintf("Payment received, order %s confirmed", o.OrderNumber),
				RefID:   o.ID,
			})
		}
	}
	return nil
}

func (s *Service) restoreStock(ctx context.Context, o *models.Order) {
	for _, it := range o.Items {
		if err := s.catalog.RestoreStock(ctx, it.ProductID, it.Quantity); err != nil {
			log.Printf("order: failed to restore stock for product %d: %v", it.ProductID, err)
		}
	}
}

func (s *Service) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	return s.orders.FindOrderByID(ctx, id)
}

func (s *Service) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	return s.orders.FindOrderByNumber(ctx, number)
}

func (s *Service) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	return s.orders.ListOrdersByUser(ctx, userID)
}

func (s *Service) ListByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	if !status.Valid() {
		return nil, errs.Validation("unknown order status %q", status)
	}
	return s.orders.ListOrdersByStatus(ctx, status)
}

func (s *Service) ListAll(ctx context.Context) ([]models.Order, error) {
	return s.orders.ListOrders(ctx)
}
