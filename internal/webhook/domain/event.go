// Package domain defines the webhook event model delivered by the payment provider.
package domain

import (
	"encoding/json"
	"time"

	apperrors "github.com/lunastra/payments/internal/errors"
)

// EventType classifies provider webhook events. The set is open-ended on the
// provider side; types outside this enumeration are acknowledged without action.
type EventType string

const (
	EventCheckoutCompleted   EventType = "checkout.session.completed"
	EventPaymentSucceeded    EventType = "payment_intent.succeeded"
	EventPaymentFailed       EventType = "payment_intent.payment_failed"
	EventSubscriptionCreated EventType = "customer.subscription.created"
	EventSubscriptionUpdated EventType = "customer.subscription.updated"
	EventSubscriptionDeleted EventType = "customer.subscription.deleted"
)

// Event is a verified, parsed provider notification. The raw request bytes are
// only retained long enough for signature verification; once parsed they are
// discarded.
type Event struct {
	ID      string
	Type    EventType
	Created time.Time
	Object  EventObject
}

// EventObject carries the type-specific payload fields the projections need:
// the provider object id (checkout session, payment intent or subscription),
// the payment reference, the subscription status and the metadata map holding
// the correlation keys.
type EventObject struct {
	ID            string
	PaymentIntent string
	Status        string
	Metadata      map[string]string
}

// OrderID returns the order correlation key, empty when absent.
func (e *Event) OrderID() string {
	return e.Object.Metadata["order_id"]
}

// UserID returns the profile correlation key, empty when absent.
func (e *Event) UserID() string {
	return e.Object.Metadata["user_id"]
}

// envelope mirrors the provider's wire format: the object sits under
// data.object and the event timestamp is a unix epoch.
type envelope struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object struct {
			ID            string            `json:"id"`
			PaymentIntent string            `json:"payment_intent"`
			Status        string            `json:"status"`
			Metadata      map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// ParseEvent decodes a raw provider payload into an Event. Callers must verify
// the signature over the raw bytes before parsing.
func ParseEvent(raw []byte) (*Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse webhook payload")
	}

	// The ordering guard keys on the event timestamp; a payload without one
	// is malformed and must surface as a retryable failure rather than read
	// as the zero epoch.
	if env.Created <= 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "event missing created timestamp")
	}

	event := &Event{
		ID:      env.ID,
		Type:    EventType(env.Type),
		Created: time.Unix(env.Created, 0).UTC(),
		Object: EventObject{
			ID:            env.Data.Object.ID,
			PaymentIntent: env.Data.Object.PaymentIntent,
			Status:        env.Data.Object.Status,
			Metadata:      env.Data.Object.Metadata,
		},
	}

	return event, nil
}
