package repository

import (
	"context"
	"database/sql"

	"github.com/lunastra/payments/internal/database"
	"github.com/lunastra/payments/internal/notification/domain"
)

// MySQLNotificationRepository handles notification persistence for MySQL
type MySQLNotificationRepository struct {
	db *sql.DB
}

// NewMySQLNotificationRepository creates a new MySQLNotificationRepository
func NewMySQLNotificationRepository(db *sql.DB) *MySQLNotificationRepository {
	return &MySQLNotificationRepository{
		db: db,
	}
}

// Create inserts a new notification
func (r *MySQLNotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO notifications (id, kind, recipient, payload, status, retries, last_error, processed_at, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	// Convert UUID to bytes for MySQL BINARY(16)
	idBytes, err := notification.ID.MarshalBinary()
	if err != nil {
		return err
	}

	_, err = querier.ExecContext(ctx, query, idBytes, notification.Kind, notification.Recipient,
		notification.Payload, notification.Status, notification.Retries, notification.LastError,
		notification.ProcessedAt)

	return err
}

// GetPending retrieves pending notifications with limit, locking the rows so
// concurrent workers never dispatch the same notification twice.
func (r *MySQLNotificationRepository) GetPending(
	ctx context.Context,
	limit int,
) ([]*domain.Notification, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, kind, recipient, payload, status, retries, last_error, processed_at, created_at, updated_at
			  FROM notifications
			  WHERE status = ?
			  ORDER BY created_at ASC
			  LIMIT ?
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, domain.NotificationStatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var notifications []*domain.Notification
	for rows.Next() {
		var notification domain.Notification
		var idBytes []byte

		err := rows.Scan(&idBytes, &notification.Kind, &notification.Recipient,
			&notification.Payload, &notification.Status, &notification.Retries, &notification.LastError,
			&notification.ProcessedAt, &notification.CreatedAt, &notification.UpdatedAt)
		if err != nil {
			return nil, err
		}

		if err := notification.ID.UnmarshalBinary(idBytes); err != nil {
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
func (r *MySQLNotificationRepository) Update(ctx context.Context, notification *domain.Notification) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE notifications
			  SET kind = ?, recipient = ?, payload = ?, status = ?, retries = ?, last_error = ?,
			      processed_at = ?, updated_at = NOW()
			  WHERE id = ?`

	idBytes, err := notification.ID.MarshalBinary()
	if err != nil {
		return err
	}

	_, err = querier.ExecContext(ctx, query, notification.Kind, notification.Recipient,
		notification.Payload, notification.Status, notification.Retries, notification.LastError,
		notification.ProcessedAt, idBytes)

	return err
}
