// Package gormstore implements the store contracts on MySQL through gorm.
package gormstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"petfoodstore/errs"
	"petfoodstore/models"
	"petfoodstore/store"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

var (
	_ store.AccountStore      = (*Store)(nil)
	_ store.CatalogStore      = (*Store)(nil)
	_ store.OrderStore        = (*Store)(nil)
	_ store.PaymentStore      = (*Store)(nil)
	_ store.NotificationStore = (*Store)(nil)
	_ store.ChatStore         = (*Store)(nil)
)

func notFoundOr(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NotFound(format, args...)
	}
	return err
}

// accounts

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *Store) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFoundOr(err, "user %d not found", id)
	}
	return &u, nil
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "username = ?", username).Error; err != nil {
		return nil, notFoundOr(err, "user %q not found", username)
	}
	return &u, nil
}

// catalog

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *Store) SaveProduct(ctx context.Context, p *models.Product) error {
	return s.db.WithContext(ctx).Save(p).Error
}

func (s *Store) FindProductByID(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFoundOr(err, "product %d not found", id)
	}
	return &p, nil
}

func (s *Store) ListProducts(ctx context.Context, f store.ProductFilter) ([]models.Product, error) {
	q := s.db.WithContext(ctx).Model(&models.Product{})
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.PetType != "" {
		q = q.Where("pet_type = ?", f.PetType)
	}
	if f.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	var products []models.Product
	if err := q.Order("id").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// DecrementStock is a single conditional UPDATE, so two concurrent orders can
// never both pass the quantity check when only one can be satisfied.
func (s *Store) DecrementStock(ctx context.Context, id uint, n int) error {
	res := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND active = ? AND quantity >= ?", id, true, n).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", n))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var p models.Product
		if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
			return notFoundOr(err, "product %d not found", id)
		}
		if !p.Active {
			return errs.Validation("product %q is not available", p.Name)
		}
		return errs.Validation("insufficient stock for %q: have %d, want %d", p.Name, p.Quantity, n)
	}
	return nil
}

func (s *Store) RestoreStock(ctx context.Context, id uint, n int) error {
	res := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", n))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("product %d not found", id)
	}
	return nil
}

// orders

func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	return s.db.WithContext(ctx).Create(o).Error
}

func (s *Store) FindOrderByID(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := s.db.WithContext(ctx).Preload("Items").First(&o, id).Error; err != nil {
		return nil, notFoundOr(err, "order %d not found", id)
	}
	return &o, nil
}

func (s *Store) FindOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	var o models.Order
	if err := s.db.WithContext(ctx).Preload("Items").First(&o, "order_number = ?", number).Error; err != nil {
		return nil, notFoundOr(err, "order %q not found", number)
	}
	return &o, nil
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("user_id = ?", userID).Order("id DESC").Find(&orders).Error
	return orders, err
}

func (s *Store) ListOrdersByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("status = ?", status).Order("id DESC").Find(&orders).Error
	return orders, err
}

func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).Preload("Items").Order("id DESC").Find(&orders).Error
	return orders, err
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id uint, from, to models.OrderStatus) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// payments

func (s *Store) CreatePayment(ctx context.Context, p *models.Payment) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *Store) FindPaymentByID(ctx context.Context, id uint) (*models.Payment, error) {
	var p models.Payment
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFoundOr(err, "payment %d not found", id)
	}
	return &p, nil
}

func (s *Store) FindPaymentByOrderID(ctx context.Context, orderID uint) (*models.Payment, error) {
	var p models.Payment
	if err := s.db.WithContext(ctx).Order("id DESC").First(&p, "order_id = ?", orderID).Error; err != nil {
		return nil, notFoundOr(err, "payment for order %d not found", orderID)
	}
	return &p, nil
}

func (s *Store) FindPaymentByMomoOrderID(ctx context.Context, momoOrderID string) (*models.Payment, error) {
	var p models.Payment
	if err := s.db.WithContext(ctx).First(&p, "momo_order_id = ?", momoOrderID).Error; err != nil {
		return nil, notFoundOr(err, "payment %q not found", momoOrderID)
	}
	return &p, nil
}

func (s *Store) ListPaymentsByUser(ctx context.Context, userID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.WithContext(ctx).
		Joins("JOIN orders ON orders.id = payments.order_id").
		Where("orders.user_id = ?", userID).
		Order("payments.id DESC").
		Find(&payments).Error
	return payments, err
}

func (s *Store) SavePayment(ctx context.Context, p *models.Payment) error {
	return s.db.WithContext(ctx).Save(p).Error
}

// UpdatePaymentLocked serializes callback handling per payment with a
// SELECT ... FOR UPDATE inside one transaction.
func (s *Store) UpdatePaymentLocked(ctx context.Context, momoOrderID string, fn func(p *models.Payment) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Payment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&p, "momo_order_id = ?", momoOrderID).Error; err != nil {
			return notFoundOr(err, "payment %q not found", momoOrderID)
		}
		if err := fn(&p); err != nil {
			return err
		}
		return tx.Save(&p).Error
	})
}

func (s *Store) SweepProcessing(ctx context.Context, olderThanSeconds int) (int64, error) {
	cutoff := time.Now().Add(-time.Duration(olderThanSeconds) * time.Second)
	res := s.db.WithContext(ctx).Model(&models.Payment{}).
		Where("status = ? AND updated_at < ?", models.PaymentProcessing, cutoff).
		Update("status", models.PaymentFailed)
	return res.RowsAffected, res.Error
}

// notifications

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	return s.db.WithContext(ctx).Create(n).Error
}

func (s *Store) ListNotificationsByUser(ctx context.Context, userID uint) ([]models.Notification, error) {
	var ns []models.Notification
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC").Find(&ns).Error
	return ns, err
}

func (s *Store) MarkNotificationRead(ctx context.Context, id, userID uint) error {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("notification %d not found", id)
	}
	return nil
}

// chat

func (s *Store) CreateRoom(ctx context.Context, r *models.ChatRoom) error {
	return s.db.WithContext(ctx).Create(r).Error
}

func (s *Store) FindRoomByID(ctx context.Context, id uint) (*models.ChatRoom, error) {
	var r models.ChatRoom
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, notFoundOr(err, "chat room %d not found", id)
	}
	return &r, nil
}

func (s *Store) FindOpenRoomByCustomer(ctx context.Context, customerID uint) (*models.ChatRoom, error) {
	var r models.ChatRoom
	err := s.db.WithContext(ctx).
		First(&r, "customer_id = ? AND status = ?", customerID, models.RoomOpen).Error
	if err != nil {
		return nil, notFoundOr(err, "no open chat room for user %d", customerID)
	}
	return &r, nil
}

func (s *Store) ListRooms(ctx context.Context) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	err := s.db.WithContext(ctx).Order("id DESC").Find(&rooms).Error
	return rooms, err
}

func (s *Store) SaveRoom(ctx context.Context, r *models.ChatRoom) error {
	return s.db.WithContext(ctx).Save(r).Error
}

func (s *Store) CreateMessage(ctx context.Context, m *models.ChatMessage) error {
	return s.db.WithContext(ctx).Create(m).Error
}

func (s *Store) ListMessages(ctx context.Context, roomID uint) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := s.db.WithContext(ctx).Where("room_id = ?", roomID).Order("id").Find(&msgs).Error
	return msgs, err
}
