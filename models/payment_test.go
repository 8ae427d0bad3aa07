package models_test

import (
	"testing"

	"petfoodstore/models"
)

func TestPaymentTransitions(t *testing.T) {
	allowed := []struct {
		from, to models.PaymentStatus
	}{
		{models.PaymentPending, models.PaymentProcessing},
		{models.PaymentPending, models.PaymentCompleted},
		{models.PaymentProcessing, models.PaymentCompleted},
		{models.PaymentProcessing, models.PaymentFailed},
		{models.PaymentProcessing, models.PaymentCancelled},
		{models.PaymentCompleted, models.PaymentRefunded},
	}
	for _, tc := range allowed {
		if !tc.from.CanTransition(tc.to) {
			t.Errorf("Expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	denied := []struct {
		from, to models.PaymentStatus
	}{
		{models.PaymentCompleted, models.PaymentFailed},
		{models.PaymentCompleted, models.PaymentPending},
		{models.PaymentFailed, models.PaymentCompleted},
		{models.PaymentFailed, models.PaymentRefunded},
		{models.PaymentCancelled, models.PaymentCompleted},
		{models.PaymentRefunded, models.PaymentCompleted},
		{models.PaymentPending, models.PaymentRefunded},
	}
	for _, tc := range denied {
		if tc.from.CanTransition(tc.to) {
			t.Errorf("Expected %s -> %s to be rejected", tc.from, tc.to)
		}
	}
}

func TestPaymentTerminal(t *testing.T) {
	terminal := []models.PaymentStatus{
		models.PaymentCompleted, models.PaymentFailed, models.PaymentCancelled, models.PaymentRefunded,
	}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s must be terminal", s)
		}
	}
	if models.PaymentPending.Terminal() || models.PaymentProcessing.Terminal() {
		t.Error("PENDING and PROCESSING must not be terminal")
	}
}
