// Package domain defines the core notification domain entities and types.
package domain

import (
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	appValidation "github.com/lunastra/payments/internal/validation"
)

// NotificationStatus represents the delivery status of a notification
type NotificationStatus string

const (
	NotificationStatusPending   NotificationStatus = "pending"
	NotificationStatusProcessed NotificationStatus = "processed"
	NotificationStatusFailed    NotificationStatus = "failed"
)

// NotificationKind classifies the customer email a notification produces.
type NotificationKind string

const (
	NotificationKindOrderPaid          NotificationKind = "order.paid"
	NotificationKindOrderConfirmed     NotificationKind = "order.confirmed"
	NotificationKindPaymentFailed      NotificationKind = "order.payment_failed"
	NotificationKindSubscriptionChange NotificationKind = "subscription.changed"
)

// Notification represents a pending customer email recorded by the webhook
// processor and dispatched out-of-band by the notification worker. Delivery
// never blocks or fails the webhook response.
type Notification struct {
	ID          uuid.UUID
	Kind        NotificationKind
	Recipient   string
	Payload     string
	Status      NotificationStatus
	Retries     int
	LastError   *string
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks that a notification is deliverable before it is queued:
// the recipient must be a well-formed email address and the kind must be set.
func (n *Notification) Validate() error {
	err := validation.ValidateStruct(n,
		validation.Field(&n.Recipient,
			validation.Required.Error("recipient is required"),
			appValidation.Email,
		),
		validation.Field(&n.Kind,
			validation.Required.Error("kind is required"),
		),
	)
	return appValidation.WrapValidationError(err)
}
