// Package domain defines the core order domain entities and types.
package domain

import (
	"time"

	"github.com/lunastra/payments/internal/errors"
)

// Status represents the payment lifecycle state of an order.
type Status string

const (
	StatusPending       Status = "pending"
	StatusPaid          Status = "paid"
	StatusConfirmed     Status = "confirmed"
	StatusPaymentFailed Status = "payment_failed"
	StatusCanceled      Status = "canceled"
)

// Order represents a storefront order as projected from payment events.
type Order struct {
	ID              string
	Status          Status
	StripeSessionID *string
	PaymentIntentID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PaymentUpdate is a targeted field-level patch applied to an order record.
// Every field is an absolute value, never a delta, so applying the same patch
// twice yields the same final state. EventTime carries the provider event's
// own timestamp: the patch is only applied when the record has not already
// been updated by a newer event.
type PaymentUpdate struct {
	Status          Status
	StripeSessionID *string
	PaymentIntentID *string
	EventTime       time.Time
}

// Domain-specific errors for order operations.
var (
	// ErrOrderNotFound indicates the referenced order does not exist.
	ErrOrderNotFound = errors.Wrap(errors.ErrNotFound, "order not found")
)
