// Package service provides email delivery implementations for notifications.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lunastra/payments/internal/notification/domain"

	apperrors "github.com/lunastra/payments/internal/errors"
)

// EmailSender delivers a single notification as a customer email.
type EmailSender interface {
	Send(ctx context.Context, notification *domain.Notification) error
}

// HTTPEmailSender posts transactional emails to an email provider's HTTP API.
type HTTPEmailSender struct {
	apiURL string
	apiKey string
	from   string
	client *http.Client
}

// NewHTTPEmailSender creates a new HTTPEmailSender.
func NewHTTPEmailSender(apiURL, apiKey, from string, timeout time.Duration) *HTTPEmailSender {
	return &HTTPEmailSender{
		apiURL: apiURL,
		apiKey: apiKey,
		from:   from,
		client: &http.Client{Timeout: timeout},
	}
}

// emailRequest is the provider's send-email payload.
type emailRequest struct {
	From    string          `json:"from"`
	To      []string        `json:"to"`
	Subject string          `json:"subject"`
	Data    json.RawMessage `json:"data"`
}

// Send posts the notification to the email provider. Any non-2xx response is
// an error so the worker can retry delivery.
func (s *HTTPEmailSender) Send(ctx context.Context, notification *domain.Notification) error {
	body, err := json.Marshal(emailRequest{
		From:    s.from,
		To:      []string{notification.Recipient},
		Subject: subjectFor(notification.Kind),
		Data:    json.RawMessage(notification.Payload),
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal email request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return apperrors.Wrap(err, "failed to create email request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return apperrors.Wrap(err, "failed to send email")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a bounded amount of the body for the error message
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email provider returned status %d: %s", resp.StatusCode, msg)
	}

	return nil
}

// subjectFor maps a notification kind to the customer-facing subject line.
func subjectFor(kind domain.NotificationKind) string {
	switch kind {
	case domain.NotificationKindOrderPaid:
		return "Your order has been received"
	case domain.NotificationKindOrderConfirmed:
		return "Your order is confirmed"
	case domain.NotificationKindPaymentFailed:
		return "There was a problem with your payment"
	case domain.NotificationKindSubscriptionChange:
		return "Your subscription has been updated"
	default:
		return "Update on your order"
	}
}

// LogEmailSender logs notifications instead of delivering them. Used when no
// email provider credentials are configured.
type LogEmailSender struct {
	logger *slog.Logger
}

// NewLogEmailSender creates a new LogEmailSender.
func NewLogEmailSender(logger *slog.Logger) *LogEmailSender {
	return &LogEmailSender{
		logger: logger,
	}
}

// Send logs the notification and reports success.
func (s *LogEmailSender) Send(ctx context.Context, notification *domain.Notification) error {
	if s.logger != nil {
		s.logger.Info("email delivery skipped (no provider configured)",
			slog.String("notification_id", notification.ID.String()),
			slog.String("kind", string(notification.Kind)),
			slog.String("recipient", notification.Recipient),
		)
	}
	return nil
}
