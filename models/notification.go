package models

import "gorm.io/gorm"

type NotificationType string

const (
	NotifyOrderPlaced      NotificationType = "ORDER_PLACED"
	NotifyOrderStatus      NotificationType = "ORDER_STATUS"
	NotifyPaymentCompleted NotificationType = "PAYMENT_COMPLETED"
	NotifyPaymentFailed    NotificationType = "PAYMENT_FAILED"
	NotifyChat             NotificationType = "CHAT"
)

type Notification struct {
	gorm.Model
	UserID  uint             `gorm:"index" json:"userId"`
	Type    NotificationType `gorm:"size:32" json:"type"`
	Title   string           `gorm:"size:255" json:"title"`
	Message string           `gorm:"type:text" json:"message"`
	RefID   uint             `json:"refId"`
	Read    bool             `gorm:"default:false" json:"read"`
}
