// Package repository provides data persistence implementations for order entities.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lunastra/payments/internal/database"
	"github.com/lunastra/payments/internal/order/domain"

	apperrors "github.com/lunastra/payments/internal/errors"
)

// PostgreSQLOrderRepository handles order persistence for PostgreSQL
type PostgreSQLOrderRepository struct {
	db *sql.DB
}

// NewPostgreSQLOrderRepository creates a new PostgreSQLOrderRepository
func NewPostgreSQLOrderRepository(db *sql.DB) *PostgreSQLOrderRepository {
	return &PostgreSQLOrderRepository{
		db: db,
	}
}

// ApplyPaymentUpdate applies a targeted payment patch to an order record.
// updated_at advances to the event's own timestamp, so the guard compares
// event time against event time: a stale redelivery matches zero rows while
// an equal-timestamp redelivery re-applies the same absolute values. Returns
// false when no row was updated (unknown order id or stale event), which
// callers treat as a no-op rather than a failure.
func (r *PostgreSQLOrderRepository) ApplyPaymentUpdate(
	ctx context.Context,
	orderID string,
	update *domain.PaymentUpdate,
) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE orders
			  SET status = $1,
			      stripe_session_id = COALESCE($2, stripe_session_id),
			      payment_intent_id = COALESCE($3, payment_intent_id),
			      updated_at = $4
			  WHERE id = $5 AND updated_at <= $4`

	result, err := querier.ExecContext(ctx, query,
		update.Status, update.StripeSessionID, update.PaymentIntentID, update.EventTime, orderID)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to apply payment update")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to read affected rows")
	}

	return rows > 0, nil
}

// GetByID retrieves an order by ID
func (r *PostgreSQLOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, status, stripe_session_id, payment_intent_id, created_at, updated_at
			  FROM orders WHERE id = $1`

	err := querier.QueryRowContext(ctx, query, id).Scan(
		&order.ID, &order.Status, &order.StripeSessionID, &order.PaymentIntentID,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get order by id")
	}

	return &order, nil
}
