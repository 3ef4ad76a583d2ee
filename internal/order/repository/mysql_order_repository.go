package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lunastra/payments/internal/database"
	"github.com/lunastra/payments/internal/order/domain"

	apperrors "github.com/lunastra/payments/internal/errors"
)

// MySQLOrderRepository handles order persistence for MySQL
type MySQLOrderRepository struct {
	db *sql.DB
}

// NewMySQLOrderRepository creates a new MySQLOrderRepository
func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{
		db: db,
	}
}

// ApplyPaymentUpdate applies a targeted payment patch to an order record.
// updated_at advances to the event's own timestamp so the guard compares
// event time against event time; returns false when no row was updated.
func (r *MySQLOrderRepository) ApplyPaymentUpdate(
	ctx context.Context,
	orderID string,
	update *domain.PaymentUpdate,
) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE orders
			  SET status = ?,
			      stripe_session_id = COALESCE(?, stripe_session_id),
			      payment_intent_id = COALESCE(?, payment_intent_id),
			      updated_at = ?
			  WHERE id = ? AND updated_at <= ?`

	result, err := querier.ExecContext(ctx, query,
		update.Status, update.StripeSessionID, update.PaymentIntentID,
		update.EventTime, orderID, update.EventTime)
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
func (r *MySQLOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, status, stripe_session_id, payment_intent_id, created_at, updated_at
			  FROM orders WHERE id = ?`

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
