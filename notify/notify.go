// Package notify carries fire-and-forget events out of the services. Sink
// failures are logged and never surfaced to the request that produced them.
package notify

import (
	"context"
	"log"

	"petfoodstore/models"
	"petfoodstore/store"
)

type Event struct {
	Type    models.NotificationType
	UserID  uint
	Title   string
	Message string
	RefID   uint
}

type Sink interface {
	Emit(ctx context.Context, e Event)
}

// StoreSink persists events as notification rows.
type StoreSink struct {
	Notifications store.NotificationStore
}

func (s *StoreSink) Emit(ctx context.Context, e Event) {
	n := models.Notification{
		UserID:  e.UserID,
		Type:    e.Type,
		Title:   e.Title,
		Message: e.Message,
		RefID:   e.RefID,
	}
	if err := s.Notifications.CreateNotification(ctx, &n); err != nil {
		log.Println("notify: failed to store notification:", err)
	}
}

// Multi fans an event out to several sinks.
type Multi []Sink

func (m Multi) Emit(ctx context.Context, e Event) {
	for _, s := range m {
		s.Emit(ctx, e)
	}
}

// Discard drops every event. Used where no sink is wired.
type Discard struct{}

func (Discard) Emit(context.Context, Event) {}
