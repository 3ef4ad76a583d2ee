// Package usecase implements the notification dispatch loop.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/lunastra/payments/internal/database"
	"github.com/lunastra/payments/internal/notification/domain"
	"github.com/lunastra/payments/internal/notification/service"
)

// Config holds notification use case configuration
type Config struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// NotificationRepository defines notification repository operations
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	GetPending(ctx context.Context, limit int) ([]*domain.Notification, error)
	Update(ctx context.Context, notification *domain.Notification) error
}

// UseCase defines the interface for notification use cases
type UseCase interface {
	Start(ctx context.Context) error
	Dispatch(ctx context.Context) error
}

// NotificationUseCase drains pending notifications and hands them to the
// email sender, marking each processed or failed.
type NotificationUseCase struct {
	config           Config
	txManager        database.TxManager
	notificationRepo NotificationRepository
	sender           service.EmailSender
	logger           *slog.Logger
}

// NewNotificationUseCase creates a new NotificationUseCase
func NewNotificationUseCase(
	config Config,
	txManager database.TxManager,
	notificationRepo NotificationRepository,
	sender service.EmailSender,
	logger *slog.Logger,
) *NotificationUseCase {
	return &NotificationUseCase{
		config:           config,
		txManager:        txManager,
		notificationRepo: notificationRepo,
		sender:           sender,
		logger:           logger,
	}
}

// Start starts the notification dispatch loop
func (uc *NotificationUseCase) Start(ctx context.Context) error {
	if uc.logger != nil {
		uc.logger.Info("starting notification dispatcher",
			slog.Duration("interval", uc.config.Interval),
			slog.Int("batch_size", uc.config.BatchSize),
		)
	}

	ticker := time.NewTicker(uc.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if uc.logger != nil {
				uc.logger.Info("stopping notification dispatcher")
			}
			return ctx.Err()
		case <-ticker.C:
			if err := uc.Dispatch(ctx); err != nil {
				if uc.logger != nil {
					uc.logger.Error("failed to dispatch notifications", slog.Any("error", err))
				}
			}
		}
	}
}

// Dispatch retrieves and delivers pending notifications inside a transaction.
// A failed delivery increments the retry count and the notification is marked
// failed once the retry cap is reached; delivery errors never abort the batch.
func (uc *NotificationUseCase) Dispatch(ctx context.Context) error {
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		notifications, err := uc.notificationRepo.GetPending(ctx, uc.config.BatchSize)
		if err != nil {
			return err
		}

		if len(notifications) == 0 {
			return nil
		}

		if uc.logger != nil {
			uc.logger.Info("dispatching notifications", slog.Int("count", len(notifications)))
		}

		for _, notification := range notifications {
			if err := uc.sender.Send(ctx, notification); err != nil {
				if uc.logger != nil {
					uc.logger.Error("failed to deliver notification",
						slog.String("notification_id", notification.ID.String()),
						slog.String("kind", string(notification.Kind)),
						slog.Any("error", err),
					)
				}

				notification.Retries++
				errorMsg := err.Error()
				notification.LastError = &errorMsg

				if notification.Retries >= uc.config.MaxRetries {
					notification.Status = domain.NotificationStatusFailed
				}

				if err := uc.notificationRepo.Update(ctx, notification); err != nil {
					return err
				}
				continue
			}

			now := time.Now()
			notification.Status = domain.NotificationStatusProcessed
			notification.ProcessedAt = &now

			if err := uc.notificationRepo.Update(ctx, notification); err != nil {
				return err
			}
		}

		return nil
	})
}
