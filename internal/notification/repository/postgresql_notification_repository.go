// Package repository provides data persistence implementations for notification entities.
package repository

import (
	"context"
	"database/sql"

	"github.com/lunastra/payments/internal/database"
	"github.com/lunastra/payments/internal/notification/domain"
)

// PostgreSQLNotificationRepository handles notification persistence for PostgreSQL
type PostgreSQLNotificationRepository struct {
	db *sql.DB
}

// NewPostgreSQLNotificationRepository creates a new PostgreSQLNotificationRepository
func NewPostgreSQLNotificationRepository(db *sql.DB) *PostgreSQLNotificationRepository {
	return &PostgreSQLNotificationRepository{
		db: db,
	}
}

// Create inserts a new notification
func (r *PostgreSQLNotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO notifications (id, kind, recipient, payload, status, retries, last_error, processed_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query, notification.ID, notification.Kind, notification.Recipient,
		notification.Payload, notification.Status, notification.Retries, notification.LastError,
		notification.ProcessedAt)

	return err
}

// GetPending retrieves pending notifications with limit, locking the rows so
// concurrent workers never dispatch the same notification twice.
func (r *PostgreSQLNotificationRepository) GetPending(
	ctx context.Context,
	limit int,
) ([]*domain.Notification, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, kind, recipient, payload, status, retries, last_error, processed_at, created_at, updated_at
			  FROM notifications
			  WHERE status = $1
			  ORDER BY created_at ASC
			  LIMIT $2
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, domain.NotificationStatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var notifications []*domain.Notification
	for rows.Next() {
		var notification domain.Notification

		err := rows.Scan(&notification.ID, &notification.Kind, &notification.Recipient,
			&notification.Payload, &notification.Status, &notification.Retries, &notification.LastError,
			&notification.ProcessedAt, &notification.CreatedAt, &notification.UpdatedAt)
		if err != nil {
			return nil, err
		}

		notifications = append(notifications, &notification)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return notifications, nil
}

// Update updates a notification
func (r *PostgreSQLNotificationRepository) Update(ctx context.Context, notification *domain.Notification) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE notifications
			  SET kind = $1, recipient = $2, payload = $3, status = $4, retries = $5, last_error = $6,
			      processed_at = $7, updated_at = NOW()
			  WHERE id = $8`

	_, err := querier.ExecContext(ctx, query, notification.Kind, notification.Recipient,
		notification.Payload, notification.Status, notification.Retries, notification.LastError,
		notification.ProcessedAt, notification.ID)

	return err
}
