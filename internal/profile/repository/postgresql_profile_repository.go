// Package repository provides data persistence implementations for profile entities.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lunastra/payments/internal/database"
	"github.com/lunastra/payments/internal/profile/domain"

	apperrors "github.com/lunastra/payments/internal/errors"
)

// PostgreSQLProfileRepository handles profile persistence for PostgreSQL
type PostgreSQLProfileRepository struct {
	db *sql.DB
}

// NewPostgreSQLProfileRepository creates a new PostgreSQLProfileRepository
func NewPostgreSQLProfileRepository(db *sql.DB) *PostgreSQLProfileRepository {
	return &PostgreSQLProfileRepository{
		db: db,
	}
}

// ApplySubscriptionUpdate applies a targeted subscription patch to a profile
// record. The subscription id is set verbatim (nil nulls the column).
// updated_at advances to the event's own timestamp so the guard compares
// event time against event time; returns false when no row was updated.
func (r *PostgreSQLProfileRepository) ApplySubscriptionUpdate(
	ctx context.Context,
	userID string,
	update *domain.SubscriptionUpdate,
) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE profiles
			  SET subscription_status = $1,
			      subscription_id = $2,
			      updated_at = $3
			  WHERE user_id = $4 AND updated_at <= $3`

	result, err := querier.ExecContext(ctx, query,
		update.Status, update.SubscriptionID, update.EventTime, userID)
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
func (r *PostgreSQLProfileRepository) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	var profile domain.Profile
	querier := database.GetTx(ctx, r.db)

	query := `SELECT user_id, email, subscription_status, subscription_id, created_at, updated_at
			  FROM profiles WHERE user_id = $1`

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
