// Package payment owns the payment workflow: gateway round trips, the
// callback state machine and refunds.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"

	"petfoodstore/errs"
	"petfoodstore/models"
	"petfoodstore/notify"
	"petfoodstore/payment/momo"
	"petfoodstore/store"
)

// Gateway is the slice of the MoMo client the workflow needs. Tests plug in
// a fake.
type Gateway interface {
	CreatePaymentRequest(ctx context.Context, requestID, orderID, orderInfo string, amount int64) (*momo.CreateResult, error)
	VerifyIPN(p momo.IPNPayload) bool
	Refund(ctx context.Context, requestID, orderID string, amount, transID int64, description string) error
}

// OrderConfirmer applies the payment-success side effect on the order.
type OrderConfirmer interface {
	ConfirmPaid(ctx context.Context, orderID uint) error
}

type Service struct {
	payments store.PaymentStore
	orders   store.OrderStore
	gateway  Gateway
	confirm  OrderConfirmer
	events   notify.Sink
}

func NewService(payments store.PaymentStore, orders store.OrderStore, gateway Gateway, confirm OrderConfirmer, events notify.Sink) *Service {
	if events == nil {
		events = notify.Discard{}
	}
	return &Service{payments: payments, orders: orders, gateway: gateway, confirm: confirm, events: events}
}

// Initiate starts a payment attempt for the order. The amount is always the
// order total at this moment. Initiate is deduped by order: an existing
// attempt that is still in flight is returned as-is instead of charging the
// customer twice.
func (s *Service) Initiate(ctx context.Context, orderID uint, method models.PaymentMethod) (*models.Payment, error) {
	if !method.Valid() {
		return nil, errs.Validation("unknown payment method %q", method)
	}
	o, err := s.orders.FindOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != models.OrderPending {
		return nil, errs.Conflict("order %s is %s, payment can only be initiated while PENDING", o.OrderNumber, o.Status)
	}

	if existing, err := s.payments.FindPaymentByOrderID(ctx, o.ID); err == nil && !existing.Status.Terminal() {
		return existing, nil
	}

	p := models.Payment{
		OrderID:   o.ID,
		PaymentID: uuid.NewString(),
		Amount:    o.TotalAmount,
		Method:    method,
		Status:    models.PaymentPending,
	}

	switch method {
	case models.MethodMomo:
		// MoMo requires a fresh orderId per attempt, so the gateway order id
		// is the order number plus an attempt suffix.
		p.MomoOrderID = fmt.Sprintf("%s-%s", o.OrderNumber, uuid.NewString()[:8])
		p.MomoRequestID = uuid.NewString()
	case models.MethodBankTransfer:
		// settled manually by staff once the transfer shows up
		p.Status = models.PaymentProcessing
	case models.MethodCashOnDelivery:
		// stays PENDING; completed by the delivery confirmation
	}

	if err := s.payments.CreatePayment(ctx, &p); err != nil {
		return nil, err
	}
	if method != models.MethodMomo {
		return &p, nil
	}

	amount := o.TotalAmount.Round(0).IntPart()
	orderInfo := "Pet food store order " + o.OrderNumber
	res, err := s.gateway.CreatePaymentRequest(ctx, p.MomoRequestID, p.MomoOrderID, orderInfo, amount)
	if err != nil {
		// the attempt is dead; a retry creates a new one
		p.Status = models.PaymentFailed
		p.ResponseMessage = err.Error()
		if saveErr := s.payments.SavePayment(ctx, &p); saveErr != nil {
			log.Println("payment: failed to record gateway failure:", saveErr)
		}
		return nil, err
	}

	p.Status = models.PaymentProcessing
	p.PaymentURL = res.PayURL
	p.MomoSignature = res.Signature
	p.ResponseCode = strconv.Itoa(res.ResultCode)
	p.ResponseMessage = res.Message
	p.RawResponse = res.RawResponse
	if err := s.payments.SavePayment(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// HandleCallback applies a gateway IPN. The signature is verified before
// anything is touched; replays of an already-final payment are accepted and
// change nothing. Runs under the per-payment row lock so concurrent retries
// cannot double-apply the success side effect.
func (s *Service) HandleCallback(ctx context.Context, ipn momo.IPNPayload) (*models.Payment, error) {
	if !s.gateway.VerifyIPN(ipn) {
		return nil, errs.Security("invalid gateway signature for %q", ipn.OrderID)
	}

	transID := strconv.FormatInt(ipn.TransID, 10)
	var completed, failed bool
	err := s.payments.UpdatePaymentLocked(ctx, ipn.OrderID, func(p *models.Payment) error {
		if p.Status.Terminal() {
			if p.TransactionID == transID {
				// gateway retry of a payment we already settled
				return nil
			}
			return errs.Conflict("payment %s already finalized", p.PaymentID)
		}

		p.TransactionID = transID
		p.ResponseCode = strconv.Itoa(ipn.ResultCode)
		p.ResponseMessage = ipn.Message
		if raw, err := json.Marshal(ipn); err == nil {
			p.RawResponse = string(raw)
		}
		if ipn.Success() {
			now := time.Now()
			p.Status = models.PaymentCompleted
			p.PaidAt = &now
			completed = true
		} else {
			p.Status = models.PaymentFailed
			failed = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	p, err := s.payments.FindPaymentByMomoOrderID(ctx, ipn.OrderID)
	if err != nil {
		return nil, err
	}

	if completed {
		if err := s.confirm.ConfirmPaid(ctx, p.OrderID); err != nil {
			log.Printf("payment: failed to confirm order %d: %v", p.OrderID, err)
		}
		s.emitForOrder(ctx, p, models.NotifyPaymentCompleted, "Payment received",
			fmt.Sprintf("Payment of %s completed", p.Amount.StringFixed(2)))
	} else if failed {
		// only when this call moved the payment to FAILED; a replayed
		// failure callback emits nothing
		s.emitForOrder(ctx, p, models.NotifyPaymentFailed, "Payment failed", ipn.Message)
	}
	return p, nil
}

// MarkCompleted settles a non-gateway payment: cash on delivery once the
// order is delivered, or a bank transfer confirmed by staff.
func (s *Service) MarkCompleted(ctx context.Context, orderID uint) (*models.Payment, error) {
	p, err := s.payments.FindPaymentByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if p.Method == models.MethodMomo {
		return nil, errs.Conflict("payment %s is gateway-settled", p.PaymentID)
	}
	if !p.Status.CanTransition(models.PaymentCompleted) {
		return nil, errs.InvalidTransition("payment %s cannot go from %s to COMPLETED", p.PaymentID, p.Status)
	}

	now := time.Now()
	p.Status = models.PaymentCompleted
	p.PaidAt = &now
	if err := s.payments.SavePayment(ctx, p); err != nil {
		return nil, err
	}
	if err := s.confirm.ConfirmPaid(ctx, p.OrderID); err != nil {
		log.Printf("payment: failed to confirm order %d: %v", p.OrderID, err)
	}
	s.emitForOrder(ctx, p, models.NotifyPaymentCompleted, "Payment received",
		fmt.Sprintf("Payment of %s completed", p.Amount.StringFixed(2)))
	return p, nil
}

// Refund is the admin-only COMPLETED -> REFUNDED edge.
func (s *Service) Refund(ctx context.Context, paymentID uint) (*models.Payment, error) {
	p, err := s.payments.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !p.Status.CanTransition(models.PaymentRefunded) {
		return nil, errs.InvalidTransition("payment %s cannot go from %s to REFUNDED", p.PaymentID, p.Status)
	}

	if p.Method == models.MethodMomo {
		transID, err := strconv.ParseInt(p.TransactionID, 10, 64)
		if err != nil {
			return nil, errs.Validation("payment %s has no gateway transaction", p.PaymentID)
		}
		amount := p.Amount.Round(0).IntPart()
		refundOrderID := fmt.Sprintf("%s-rf", p.MomoOrderID)
		if err := s.gateway.Refund(ctx, uuid.NewString(), refundOrderID, amount, transID, "refund "+p.PaymentID); err != nil {
			return nil, err
		}
	}

	p.Status = models.PaymentRefunded
	if err := s.payments.SavePayment(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SweepExpired fails PROCESSING payments whose callback never arrived within
// the window. Run periodically from main.
func (s *Service) SweepExpired(ctx context.Context, window time.Duration) (int64, error) {
	return s.payments.SweepProcessing(ctx, int(window.Seconds()))
}

func (s *Service) GetByID(ctx context.Context, id uint) (*models.Payment, error) {
	return s.payments.FindPaymentByID(ctx, id)
}

func (s *Service) GetByOrderNumber(ctx context.Context, number string) (*models.Payment, error) {
	o, err := s.orders.FindOrderByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return s.payments.FindPaymentByOrderID(ctx, o.ID)
}

func (s *Service) ListByUser(ctx context.Context, userID uint) ([]models.Payment, error) {
	return s.payments.ListPaymentsByUser(ctx, userID)
}

func (s *Service) emitForOrder(ctx context.Context, p *models.Payment, typ models.NotificationType, title, msg string) {
	o, err := s.orders.FindOrderByID(ctx, p.OrderID)
	if err != nil {
		return
	}
	s.events.Emit(ctx, notify.Event{
		Type:    typ,
		UserID:  o.UserID,
		Title:   title,
		Message: msg,
		RefID:   p.ID,
	})
}
