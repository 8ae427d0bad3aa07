// Package memstore is a mutex-guarded in-memory implementation of the store
// contracts, used by the service tests and for local development without
// MySQL. Stock decrements keep the same conditional semantics as the SQL
// implementation.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"petfoodstore/errs"
	"petfoodstore/models"
	"petfoodstore/store"
)

type Store struct {
	mu sync.Mutex

	users         map[uint]*models.User
	products      map[uint]*models.Product
	orders        map[uint]*models.Order
	payments      map[uint]*models.Payment
	notifications map[uint]*models.Notification
	rooms         map[uint]*models.ChatRoom
	messages      map[uint]*models.ChatMessage

	nextID map[string]uint
}

func New() *Store {
	return &Store{
		users:         make(map[uint]*models.User),
		products:      make(map[uint]*models.Product),
		orders:        make(map[uint]*models.Order),
		payments:      make(map[uint]*models.Payment),
		notifications: make(map[uint]*models.Notification),
		rooms:         make(map[uint]*models.ChatRoom),
		messages:      make(map[uint]*models.ChatMessage),
		nextID:        make(map[string]uint),
	}
}

var (
	_ store.AccountStore      = (*Store)(nil)
	_ store.CatalogStore      = (*Store)(nil)
	_ store.OrderStore        = (*Store)(nil)
	_ store.PaymentStore      = (*Store)(nil)
	_ store.NotificationStore = (*Store)(nil)
	_ store.ChatStore         = (*Store)(nil)
)

func (s *Store) id(kind string) uint {
	s.nextID[kind]++
	return s.nextID[kind]
}

func copyOrder(o *models.Order) *models.Order {
	c := *o
	c.Items = append([]models.OrderItem(nil), o.Items...)
	return &c
}

// accounts

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.users {
		if e.Username == u.Username {
			return errs.Conflict("username %q already taken", u.Username)
		}
		if e.Email == u.Email {
			return errs.Conflict("email %q already registered", u.Email)
		}
	}
	u.ID = s.id("user")
	u.CreatedAt = time.Now()
	c := *u
	s.users[u.ID] = &c
	return nil
}

func (s *Store) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, errs.NotFound("user %d not found", id)
	}
	c := *u
	return &c, nil
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.NotFound("user %q not found", username)
}

// catalog

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id("product")
	p.CreatedAt = time.Now()
	c := *p
	s.products[p.ID] = &c
	return nil
}

func (s *Store) SaveProduct(ctx context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		return errs.NotFound("product %d not found", p.ID)
	}
	p.UpdatedAt = time.Now()
	c := *p
	s.products[p.ID] = &c
	return nil
}

func (s *Store) FindProductByID(ctx context.Context, id uint) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, errs.NotFound("product %d not found", id)
	}
	c := *p
	return &c, nil
}

func (s *Store) ListProducts(ctx context.Context, f store.ProductFilter) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Product
	for _, p := range s.products {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.PetType != "" && p.PetType != f.PetType {
			continue
		}
		if f.ActiveOnly && !p.Active {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DecrementStock checks and decrements under one lock, mirroring the
// conditional UPDATE the SQL store issues.
func (s *Store) DecrementStock(ctx context.Context, id uint, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return errs.NotFound("product %d not found", id)
	}
	if !p.Active {
		return errs.Validation("product %q is not available", p.Name)
	}
	if p.Quantity < n {
		return errs.Validation("insufficient stock for %q: have %d, want %d", p.Name, p.Quantity, n)
	}
	p.Quantity -= n
	return nil
}

func (s *Store) RestoreStock(ctx context.Context, id uint, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return errs.NotFound("product %d not found", id)
	}
	p.Quantity += n
	return nil
}

// orders

func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.ID = s.id("order")
	o.CreatedAt = time.Now()
	for i := range o.Items {
		o.Items[i].ID = s.id("orderItem")
		o.Items[i].OrderID = o.ID
	}
	s.orders[o.ID] = copyOrder(o)
	return nil
}

func (s *Store) FindOrderByID(ctx context.Context, id uint) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, errs.NotFound("order %d not found", id)
	}
	return copyOrder(o), nil
}

func (s *Store) FindOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.OrderNumber == number {
			return copyOrder(o), nil
		}
	}
	return nil, errs.NotFound("order %q not found", number)
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, *copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) ListOrdersByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		if o.Status == status {
			out = append(out, *copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		out = append(out, *copyOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id uint, from, to models.OrderStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return false, errs.NotFound("order %d not found", id)
	}
	if o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	return true, nil
}

// payments

func (s *Store) CreatePayment(ctx context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id("payment")
	p.CreatedAt = time.Now()
	c := *p
	s.payments[p.ID] = &c
	return nil
}

func (s *Store) FindPaymentByID(ctx context.Context, id uint) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, errs.NotFound("payment %d not found", id)
	}
	c := *p
	return &c, nil
}

func (s *Store) FindPaymentByOrderID(ctx context.Context, orderID uint) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.Payment
	for _, p := range s.payments {
		if p.OrderID == orderID && (latest == nil || p.ID > latest.ID) {
			latest = p
		}
	}
	if latest == nil {
		return nil, errs.NotFound("payment for order %d not found", orderID)
	}
	c := *latest
	return &c, nil
}

func (s *Store) FindPaymentByMomoOrderID(ctx context.Context, momoOrderID string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.MomoOrderID == momoOrderID {
			c := *p
			return &c, nil
		}
	}
	return nil, errs.NotFound("payment %q not found", momoOrderID)
}

func (s *Store) ListPaymentsByUser(ctx context.Context, userID uint) ([]models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Payment
	for _, p := range s.payments {
		if o, ok := s.orders[p.OrderID]; ok && o.UserID == userID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) SavePayment(ctx context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[p.ID]; !ok {
		return errs.NotFound("payment %d not found", p.ID)
	}
	p.UpdatedAt = time.Now()
	c := *p
	s.payments[p.ID] = &c
	return nil
}

func (s *Store) UpdatePaymentLocked(ctx context.Context, momoOrderID string, fn func(p *models.Payment) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var target *models.Payment
	for _, p := range s.payments {
		if p.MomoOrderID == momoOrderID {
			target = p
			break
		}
	}
	if target == nil {
		return errs.NotFound("payment %q not found", momoOrderID)
	}
	c := *target
	if err := fn(&c); err != nil {
		return err
	}
	c.UpdatedAt = time.Now()
	*target = c
	return nil
}

func (s *Store) SweepProcessing(ctx context.Context, olderThanSeconds int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-time.Duration(olderThanSeconds) * time.Second)
	var n int64
	for _, p := range s.payments {
		ts := p.UpdatedAt
		if ts.IsZero() {
			ts = p.CreatedAt
		}
		if p.Status == models.PaymentProcessing && ts.Before(cutoff) {
			p.Status = models.PaymentFailed
			p.UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}

// notifications

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = s.id("notification")
	n.CreatedAt = time.Now()
	c := *n
	s.notifications[n.ID] = &c
	return nil
}

func (s *Store) ListNotificationsByUser(ctx context.Context, userID uint) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return errs.NotFound("notification %d not found", id)
	}
	n.Read = true
	return nil
}

// chat

func (s *Store) CreateRoom(ctx context.Context, r *models.ChatRoom) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.id("room")
	r.CreatedAt = time.Now()
	c := *r
	s.rooms[r.ID] = &c
	return nil
}

func (s *Store) FindRoomByID(ctx context.Context, id uint) (*models.ChatRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, errs.NotFound("chat room %d not found", id)
	}
	c := *r
	return &c, nil
}

func (s *Store) FindOpenRoomByCustomer(ctx context.Context, customerID uint) (*models.ChatRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rooms {
		if r.CustomerID == customerID && r.Status == models.RoomOpen {
			c := *r
			return &c, nil
		}
	}
	return nil, errs.NotFound("no open chat room for user %d", customerID)
}

func (s *Store) ListRooms(ctx context.Context) ([]models.ChatRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ChatRoom
	for _, r := range s.rooms {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) SaveRoom(ctx context.Context, r *models.ChatRoom) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[r.ID]; !ok {
		return errs.NotFound("chat room %d not found", r.ID)
	}
	r.UpdatedAt = time.Now()
	c := *r
	s.rooms[r.ID] = &c
	return nil
}

func (s *Store) CreateMessage(ctx context.Context, m *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.id("message")
	m.CreatedAt = time.Now()
	c := *m
	s.messages[m.ID] = &c
	return nil
}

func (s *Store) ListMessages(ctx context.Context, roomID uint) ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ChatMessage
	for _, m := range s.messages {
		if m.RoomID == roomID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
