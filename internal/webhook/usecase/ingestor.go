// Package usecase implements the webhook event ingestion business logic.
package usecase

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	notificationDomain "github.com/lunastra/payments/internal/notification/domain"
	orderDomain "github.com/lunastra/payments/internal/order/domain"
	profileDomain "github.com/lunastra/payments/internal/profile/domain"
	"github.com/lunastra/payments/internal/webhook/domain"
)

// OrderRepository defines the order projection operations the ingestor needs
type OrderRepository interface {
	ApplyPaymentUpdate(ctx context.Context, orderID string, update *orderDomain.PaymentUpdate) (bool, error)
}

// ProfileRepository defines the profile projection operations the ingestor needs
type ProfileRepository interface {
	ApplySubscriptionUpdate(
		ctx context.Context,
		userID string,
		update *profileDomain.SubscriptionUpdate,
	) (bool, error)
	GetByUserID(ctx context.Context, userID string) (*profileDomain.Profile, error)
}

// NotificationRepository defines the notification recording operation the ingestor needs
type NotificationRepository interface {
	Create(ctx context.Context, notification *notificationDomain.Notification) error
}

// UseCase defines the interface for webhook ingestion
type UseCase interface {
	Ingest(ctx context.Context, event *domain.Event) error
}

// EventIngestor projects verified provider events onto order and profile
// records. Each branch sets absolute field values keyed by the correlation
// key, so applying the same event twice produces the same final state. Events
// whose correlation key is absent, whose target record is unknown, or whose
// type is not handled are acknowledged without a write: a failure response
// would only make the provider retry an event this service can never apply.
type EventIngestor struct {
	orderRepo        OrderRepository
	profileRepo      ProfileRepository
	notificationRepo NotificationRepository
	logger           *slog.Logger
}

// NewEventIngestor creates a new EventIngestor
func NewEventIngestor(
	orderRepo OrderRepository,
	profileRepo ProfileRepository,
	notificationRepo NotificationRepository,
	logger *slog.Logger,
) *EventIngestor {
	return &EventIngestor{
		orderRepo:        orderRepo,
		profileRepo:      profileRepo,
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

// Ingest dispatches a verified event to its projection. The returned error is
// always a store failure: the handler surfaces it as a retryable 500.
func (uc *EventIngestor) Ingest(ctx context.Context, event *domain.Event) error {
	switch event.Type {
	case domain.EventCheckoutCompleted:
		return uc.ingestCheckoutCompleted(ctx, event)
	case domain.EventPaymentSucceeded:
		return uc.ingestPaymentSucceeded(ctx, event)
	case domain.EventPaymentFailed:
		return uc.ingestPaymentFailed(ctx, event)
	case domain.EventSubscriptionCreated, domain.EventSubscriptionUpdated:
		return uc.ingestSubscriptionChange(ctx, event)
	case domain.EventSubscriptionDeleted:
		return uc.ingestSubscriptionDeleted(ctx, event)
	default:
		// Unknown event types are acknowledged so the provider stops
		// redelivering them.
		uc.logEvent(event, "ignoring unhandled event type")
		return nil
	}
}

// ingestCheckoutCompleted marks the order paid and records the checkout
// session and payment references.
func (uc *EventIngestor) ingestCheckoutCompleted(ctx context.Context, event *domain.Event) error {
	orderID := event.OrderID()
	if orderID == "" {
		// Not every checkout session is tied to an order in this store.
		uc.logEvent(event, "no order correlation key, skipping")
		return nil
	}

	update := &orderDomain.PaymentUpdate{
		Status:          orderDomain.StatusPaid,
		StripeSessionID: nonEmpty(event.Object.ID),
		PaymentIntentID: nonEmpty(event.Object.PaymentIntent),
		EventTime:       event.Created,
	}

	applied, err := uc.orderRepo.ApplyPaymentUpdate(ctx, orderID, update)
	if err != nil {
		return err
	}

	uc.logProjection(event, "order", orderID, applied)
	if applied {
		uc.recordOrderNotification(ctx, event, orderID, notificationDomain.NotificationKindOrderPaid)
	}
	return nil
}

// ingestPaymentSucceeded confirms the order and records the payment reference.
func (uc *EventIngestor) ingestPaymentSucceeded(ctx context.Context, event *domain.Event) error {
	orderID := event.OrderID()
	if orderID == "" {
		uc.logEvent(event, "no order correlation key, skipping")
		return nil
	}

	update := &orderDomain.PaymentUpdate{
		Status:          orderDomain.StatusConfirmed,
		PaymentIntentID: nonEmpty(event.Object.ID),
		EventTime:       event.Created,
	}

	applied, err := uc.orderRepo.ApplyPaymentUpdate(ctx, orderID, update)
	if err != nil {
		return err
	}

	uc.logProjection(event, "order", orderID, applied)
	if applied {
		uc.recordOrderNotification(ctx, event, orderID, notificationDomain.NotificationKindOrderConfirmed)
	}
	return nil
}

// ingestPaymentFailed marks the order's payment as failed.
func (uc *EventIngestor) ingestPaymentFailed(ctx context.Context, event *domain.Event) error {
	orderID := event.OrderID()
	if orderID == "" {
		uc.logEvent(event, "no order correlation key, skipping")
		return nil
	}

	update := &orderDomain.PaymentUpdate{
		Status:    orderDomain.StatusPaymentFailed,
		EventTime: event.Created,
	}

	applied, err := uc.orderRepo.ApplyPaymentUpdate(ctx, orderID, update)
	if err != nil {
		return err
	}

	uc.logProjection(event, "order", orderID, applied)
	if applied {
		uc.recordOrderNotification(ctx, event, orderID, notificationDomain.NotificationKindPaymentFailed)
	}
	return nil
}

// ingestSubscriptionChange projects a created/updated subscription onto the
// customer's profile.
func (uc *EventIngestor) ingestSubscriptionChange(ctx context.Context, event *domain.Event) error {
	userID := event.UserID()
	if userID == "" {
		uc.logEvent(event, "no user correlation key, skipping")
		return nil
	}

	update := &profileDomain.SubscriptionUpdate{
		Status:         subscriptionStatus(event.Object.Status),
		SubscriptionID: nonEmpty(event.Object.ID),
		EventTime:      event.Created,
	}

	applied, err := uc.profileRepo.ApplySubscriptionUpdate(ctx, userID, update)
	if err != nil {
		return err
	}

	uc.logProjection(event, "profile", userID, applied)
	if applied {
		uc.recordSubscriptionNotification(ctx, event, userID)
	}
	return nil
}

// ingestSubscriptionDeleted cancels the subscription and clears its reference.
func (uc *EventIngestor) ingestSubscriptionDeleted(ctx context.Context, event *domain.Event) error {
	userID := event.UserID()
	if userID == "" {
		uc.logEvent(event, "no user correlation key, skipping")
		return nil
	}

	update := &profileDomain.SubscriptionUpdate{
		Status:         profileDomain.SubscriptionCanceled,
		SubscriptionID: nil,
		EventTime:      event.Created,
	}

	applied, err := uc.profileRepo.ApplySubscriptionUpdate(ctx, userID, update)
	if err != nil {
		return err
	}

	uc.logProjection(event, "profile", userID, applied)
	if applied {
		uc.recordSubscriptionNotification(ctx, event, userID)
	}
	return nil
}

// recordOrderNotification records a pending customer email for an order
// transition. Delivery happens out-of-band; a failure here is logged and never
// fails the webhook response. The recipient comes from the event metadata and
// the notification is skipped when absent.
func (uc *EventIngestor) recordOrderNotification(
	ctx context.Context,
	event *domain.Event,
	orderID string,
	kind notificationDomain.NotificationKind,
) {
	recipient := event.Object.Metadata["email"]
	if recipient == "" {
		return
	}

	payload, err := json.Marshal(map[string]string{
		"order_id":   orderID,
		"event_type": string(event.Type),
	})
	if err != nil {
		return
	}

	uc.createNotification(ctx, event, &notificationDomain.Notification{
		ID:        uuid.Must(uuid.NewV7()),
		Kind:      kind,
		Recipient: recipient,
		Payload:   string(payload),
		Status:    notificationDomain.NotificationStatusPending,
	})
}

// recordSubscriptionNotification records a pending subscription email using
// the profile's stored address.
func (uc *EventIngestor) recordSubscriptionNotification(
	ctx context.Context,
	event *domain.Event,
	userID string,
) {
	profile, err := uc.profileRepo.GetByUserID(ctx, userID)
	if err != nil || profile.Email == "" {
		if err != nil && uc.logger != nil {
			uc.logger.Warn("failed to load profile for notification",
				slog.String("user_id", userID),
				slog.Any("error", err),
			)
		}
		return
	}

	payload, err := json.Marshal(map[string]string{
		"user_id":    userID,
		"event_type": string(event.Type),
	})
	if err != nil {
		return
	}

	uc.createNotification(ctx, event, &notificationDomain.Notification{
		ID:        uuid.Must(uuid.NewV7()),
		Kind:      notificationDomain.NotificationKindSubscriptionChange,
		Recipient: profile.Email,
		Payload:   string(payload),
		Status:    notificationDomain.NotificationStatusPending,
	})
}

// createNotification validates and inserts the notification, logging failures
// without propagating them.
func (uc *EventIngestor) createNotification(
	ctx context.Context,
	event *domain.Event,
	notification *notificationDomain.Notification,
) {
	if err := notification.Validate(); err != nil {
		if uc.logger != nil {
			uc.logger.Warn("skipping undeliverable notification",
				slog.String("event_id", event.ID),
				slog.String("event_type", string(event.Type)),
				slog.Any("error", err),
			)
		}
		return
	}

	if err := uc.notificationRepo.Create(ctx, notification); err != nil && uc.logger != nil {
		uc.logger.Error("failed to record notification",
			slog.String("event_id", event.ID),
			slog.String("event_type", string(event.Type)),
			slog.Any("error", err),
		)
	}
}

// logEvent logs a single structured line naming the event type and id.
func (uc *EventIngestor) logEvent(event *domain.Event, msg string) {
	if uc.logger == nil {
		return
	}
	uc.logger.Info(msg,
		slog.String("event_id", event.ID),
		slog.String("event_type", string(event.Type)),
	)
}

// logProjection logs the outcome of a projection, including whether the patch
// matched a row. A skipped patch means an unknown record or a stale event.
func (uc *EventIngestor) logProjection(event *domain.Event, target, key string, applied bool) {
	if uc.logger == nil {
		return
	}
	uc.logger.Info("event projected",
		slog.String("event_id", event.ID),
		slog.String("event_type", string(event.Type)),
		slog.String("target", target),
		slog.String("key", key),
		slog.Bool("applied", applied),
	)
}

// subscriptionStatus maps the provider's subscription status onto the profile
// domain, defaulting to active for statuses this store does not track.
func subscriptionStatus(status string) profileDomain.SubscriptionStatus {
	switch status {
	case string(profileDomain.SubscriptionTrialing):
		return profileDomain.SubscriptionTrialing
	case string(profileDomain.SubscriptionPastDue):
		return profileDomain.SubscriptionPastDue
	case string(profileDomain.SubscriptionCanceled):
		return profileDomain.SubscriptionCanceled
	default:
		return profileDomain.SubscriptionActive
	}
}

// nonEmpty returns a pointer to s, or nil when s is empty so the repository
// patch leaves the existing column value untouched.
func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
