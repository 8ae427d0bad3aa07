package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "PENDING"
	PaymentProcessing PaymentStatus = "PROCESSING"
	PaymentCompleted  PaymentStatus = "COMPLETED"
	PaymentFailed     PaymentStatus = "FAILED"
	PaymentCancelled  PaymentStatus = "CANCELLED"
	PaymentRefunded   PaymentStatus = "REFUNDED"
)

// paymentEdges is the only place the payment state machine is encoded.
// COMPLETED -> REFUNDED is the single post-terminal edge (admin refund).
var paymentEdges = map[PaymentStatus][]PaymentStatus{
	PaymentPending:    {PaymentProcessing, PaymentCompleted, PaymentFailed, PaymentCancelled},
	PaymentProcessing: {PaymentCompleted, PaymentFailed, PaymentCancelled},
	PaymentCompleted:  {PaymentRefunded},
	PaymentFailed:     {},
	PaymentCancelled:  {},
	PaymentRefunded:   {},
}

func (s PaymentStatus) Valid() bool {
	_, ok := paymentEdges[s]
	return ok
}

func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentCompleted, PaymentFailed, PaymentCancelled, PaymentRefunded:
		return true
	}
	return false
}

func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	for _, n := range paymentEdges[s] {
		if n == next {
			return true
		}
	}
	return false
}

type Payment struct {
	gorm.Model
	OrderID       uint            `gorm:"index" json:"orderId"`
	PaymentID     string          `gorm:"uniqueIndex;size:64" json:"paymentId"`
	TransactionID string          `gorm:"size:64" json:"transactionId"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2)" json:"amount"`
	Method        PaymentMethod   `gorm:"size:32" json:"method"`
	Status        PaymentStatus   `gorm:"size:16;index" json:"status"`

	// gateway round-trip metadata, kept for diagnostics
	MomoOrderID     string `gorm:"size:64" json:"momoOrderId"`
	MomoRequestID   string `gorm:"size:64" json:"momoRequestId"`
	MomoSignature   string `gorm:"size:128" json:"momoSignature"`
	ResponseCode    string `gorm:"size:16" json:"responseCode"`
	ResponseMessage string `json:"responseMessage"`
	PaymentURL      string `json:"paymentUrl"`
	RawResponse     string `gorm:"type:text" json:"rawResponse"`

	PaidAt *time.Time `json:"paidAt"`
}
