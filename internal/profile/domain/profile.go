// Package domain defines the core customer profile domain entities and types.
package domain

import (
	"time"

	"github.com/lunastra/payments/internal/errors"
)

// SubscriptionStatus represents the billing state of a customer's subscription.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// Profile represents a customer profile carrying subscription state projected
// from payment events.
type Profile struct {
	UserID             string
	Email              string
	SubscriptionStatus *string
	SubscriptionID     *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// SubscriptionUpdate is a targeted field-level patch applied to a profile
// record. SubscriptionID is set verbatim: a nil pointer nulls the column,
// which is how subscription deletion clears the reference. EventTime carries
// the provider event's own timestamp for the staleness guard.
type SubscriptionUpdate struct {
	Status         SubscriptionStatus
	SubscriptionID *string
	EventTime      time.Time
}

// Domain-specific errors for profile operations.
var (
	// ErrProfileNotFound indicates the referenced profile does not exist.
	ErrProfileNotFound = errors.Wrap(errors.ErrNotFound, "profile not found")
)
