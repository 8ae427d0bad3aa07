package email

import (
	"context"
	"log"

	"petfoodstore/models"
	"petfoodstore/notify"
	"petfoodstore/store"
)

// Sink mails order confirmations and payment receipts on top of the stored
// notifications. Sending is asynchronous; failures are only logged.
type Sink struct {
	Accounts store.AccountStore
}

func (s *Sink) Emit(ctx context.Context, e notify.Event) {
	switch e.Type {
	case models.NotifyOrderPlaced, models.NotifyPaymentCompleted:
	default:
		return
	}

	user, err := s.Accounts.FindUserByID(ctx, e.UserID)
	if err != nil {
		log.Println("email: unknown user for notification:", err)
		return
	}

	go func(to, subject, body string) {
		if err := SendEmail(to, subject, body); err != nil {
			log.Println("email:", err)
		}
	}(user.Email, e.Title, e.Message)
}
