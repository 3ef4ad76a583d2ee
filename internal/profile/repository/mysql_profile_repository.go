package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lunastra/payments/internal/database"
	"github.com/lunastra/payments/internal/profile/domain"

	apperrors "github.com/lunastra/payments/internal/errors"
)

// MySQLProfileRepository handles profile persistence for MySQL
type MySQLProfileRepository struct {
	db *sql.DB
}

// NewMySQLProfileRepository creates a new MySQLProfileRepository
func NewMySQLProfileRepository(db *sql.DB) *MySQLProfileRepository {
	return &MySQLProfileRepository{
		db: db,
	}
}

// ApplySubscriptionUpdate applies a targeted subscription patch to a profile
// record. updated_at advances to the event's own timestamp so the guard
// compares event time against event time; returns false when no row was
// updated.
func (r *MySQLProfileRepository) ApplySubscriptionUpdate(
	ctx context.Context,
	userID string,
	update *domain.SubscriptionUpdate,
) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE profiles
			  SET subscription_status = ?,
			      subscription_id = ?,
			      updated_at = ?
			  WHERE user_id = ? AND updated_at <= ?`

	result, err := querier.ExecContext(ctx, query,
		update.Status, update.SubscriptionID, update.EventTime, userID, update.EventTime)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to apply subscription update")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to read affected rows")
	}

	return rows > 0, nil
}

// GetByUserID retrieves a profile by user ID
func (r *MySQLProfileRepository) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	var profile domain.Profile
	querier := database.GetTx(ctx, r.db)

	query := `SELECT user_id, email, subscription_status, subscription_id, created_at, updated_at
			  FROM profiles WHERE user_id = ?`

	err := querier.QueryRowContext(ctx, query, userID).Scan(
		&profile.UserID, &profile.Email, &profile.SubscriptionStatus, &profile.SubscriptionID,
		&profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get profile by user id")
	}

	return &profile, nil
}
