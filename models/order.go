package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderConfirmed  OrderStatus = "CONFIRMED"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

// orderEdges is the only place the order state machine is encoded.
// Forward edges plus CANCELLED from any non-terminal, non-shipped state.
var orderEdges = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderConfirmed, OrderCancelled},
	OrderConfirmed:  {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderShipped, OrderCancelled},
	OrderShipped:    {OrderDelivered},
	OrderDelivered:  {},
	OrderCancelled:  {},
}

func (s OrderStatus) Valid() bool {
	_, ok := orderEdges[s]
	return ok
}

func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, n := range orderEdges[s] {
		if n == next {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	MethodCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
	MethodMomo           PaymentMethod = "MOMO"
	MethodBankTransfer   PaymentMethod = "BANK_TRANSFER"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCashOnDelivery, MethodMomo, MethodBankTransfer:
		return true
	}
	return false
}

type Order struct {
	gorm.Model
	OrderNumber     string          `gorm:"uniqueIndex;size:32" json:"orderNumber"`
	UserID          uint            `gorm:"index" json:"userId"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2)" json:"totalAmount"`
	Status          OrderStatus     `gorm:"size:16;index" json:"status"`
	PaymentMethod   PaymentMethod   `gorm:"size:32" json:"paymentMethod"`
	ShippingAddress string          `json:"shippingAddress"`
	Phone           string          `gorm:"size:32" json:"phone"`
	Notes           string          `gorm:"type:text" json:"notes"`
}

// OrderItem snapshots the product name and unit price at order time;
// price and quantity are immutable once persisted.
type OrderItem struct {
	gorm.Model
	OrderID     uint            `gorm:"index" json:"orderId"`
	ProductID   uint            `gorm:"index" json:"productId"`
	ProductName string          `gorm:"size:255" json:"productName"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2)" json:"price"`
	Quantity    int             `json:"quantity"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ComputeTotal recomputes TotalAmount from the items. Called whenever items
// change so the stored total is never stale.
func (o *Order) ComputeTotal() {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	o.TotalAmount = total
}
