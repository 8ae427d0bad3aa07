// Package store declares the persistence contracts consumed by the services.
// gormstore backs them with MySQL; memstore backs them with maps for tests.
package store

import (
	"context"

	"petfoodstore/models"
)

type AccountStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
}

type ProductFilter struct {
	Category   string
	PetType    models.PetType
	ActiveOnly bool
}

type CatalogStore interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	SaveProduct(ctx context.Context, p *models.Product) error
	FindProductByID(ctx context.Context, id uint) (*models.Product, error)
	ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, error)

	// DecrementStock applies an atomic conditional decrement: it fails with a
	// validation error when the product is inactive or has less than n units,
	// without ever letting two callers both pass the quantity check.
	DecrementStock(ctx context.Context, id uint, n int) error
	RestoreStock(ctx context.Context, id uint, n int) error
}

type OrderStore interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	FindOrderByID(ctx context.Context, id uint) (*models.Order, error)
	FindOrderByNumber(ctx context.Context, number string) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uint) ([]models.Order, error)
	ListOrdersByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)

	// UpdateOrderStatus moves the order from exactly `from` to `to` and
	// reports via the returned bool whether the row was in `from` when the
	// update applied. Conditional so concurrent transitions cannot race.
	UpdateOrderStatus(ctx context.Context, id uint, from, to models.OrderStatus) (bool, error)
}

type PaymentStore interface {
	CreatePayment(ctx context.Context, p *models.Payment) error
	FindPaymentByID(ctx context.Context, id uint) (*models.Payment, error)
	FindPaymentByOrderID(ctx context.Context, orderID uint) (*models.Payment, error)
	FindPaymentByMomoOrderID(ctx context.Context, momoOrderID string) (*models.Payment, error)
	ListPaymentsByUser(ctx context.Context, userID uint) ([]models.Payment, error)
	SavePayment(ctx context.Context, p *models.Payment) error

	// UpdatePaymentLocked runs fn with the payment row locked for update and
	// persists the mutation when fn returns nil. Gateway callback retries for
	// the same payment serialize on this lock.
	UpdatePaymentLocked(ctx context.Context, momoOrderID string, fn func(p *models.Payment) error) error

	// SweepProcessing marks PROCESSING payments older than the cutoff FAILED
	// and returns how many rows moved.
	SweepProcessing(ctx context.Context, olderThanSeconds int) (int64, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotificationsByUser(ctx context.Context, userID uint) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID uint) error
}

type ChatStore interface {
	CreateRoom(ctx context.Context, r *models.ChatRoom) error
	FindRoomByID(ctx context.Context, id uint) (*models.ChatRoom, error)
	FindOpenRoomByCustomer(ctx context.Context, customerID uint) (*models.ChatRoom, error)
	ListRooms(ctx context.Context) ([]models.ChatRoom, error)
	SaveRoom(ctx context.Context, r *models.ChatRoom) error
	CreateMessage(ctx context.Context, m *models.ChatMessage) error
	ListMessages(ctx context.Context, roomID uint) ([]models.ChatMessage, error)
}
