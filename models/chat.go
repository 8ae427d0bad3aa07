package models

import "gorm.io/gorm"

type ChatRoomStatus string

const (
	RoomOpen   ChatRoomStatus = "OPEN"
	RoomClosed ChatRoomStatus = "CLOSED"
)

type ChatRoom struct {
	gorm.Model
	CustomerID uint           `gorm:"index" json:"customerId"`
	EmployeeID *uint          `json:"employeeId"`
	Status     ChatRoomStatus `gorm:"size:16;default:OPEN" json:"status"`
}

type ChatMessage struct {
	gorm.Model
	RoomID   uint   `gorm:"index" json:"roomId"`
	SenderID uint   `json:"senderId"`
	Body     string `gorm:"type:text" json:"body"`
}
