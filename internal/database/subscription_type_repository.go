package database

import (
	"context"
	"fmt"

	"github.com/clubpulse/lead-conversion-backend/internal/models"
)

const subscriptionTypeColumns = `id, name, description, base_price, duration_days, created_at, updated_at`

// SubscriptionTypeRepository handles membership plan database operations
type SubscriptionTypeRepository struct {
	db Queryer
}

// NewSubscriptionTypeRepository creates a new subscription type repository
func NewSubscriptionTypeRepository(db Queryer) *SubscriptionTypeRepository {
	return &SubscriptionTypeRepository{db: db}
}

// Create inserts a new plan
func (r *SubscriptionTypeRepository) Create(ctx context.Context, st *models.SubscriptionType) error {
	query := `
		INSERT INTO subscription_types (` + subscriptionTypeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		st.ID, st.Name, st.Description, st.BasePrice, st.DurationDays, st.CreatedAt, st.UpdatedAt,
	)
	if err != nil {
		if cerr := constraintError("subscription_type", err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("failed to create subscription type: %w", err)
	}
	return nil
}

// GetByID retrieves a plan by ID
func (r *SubscriptionTypeRepository) GetByID(ctx context.Context, id string) (*models.SubscriptionType, error) {
	var st models.SubscriptionType
	query := `SELECT ` + subscriptionTypeColumns + ` FROM subscription_types WHERE id = $1`
	if err := r.db.GetContext(ctx, &st, query, id); err != nil {
		if missingRow(err) {
			return nil, &models.NotFoundError{Entity: "subscription_type", ID: id}
		}
		return nil, fmt.Errorf("failed to get subscription type: %w", err)
	}
	return &st, nil
}

// Update overwrites a plan's editable fields
func (r *SubscriptionTypeRepository) Update(ctx context.Context, st *models.SubscriptionType) error {
	query := `
		UPDATE subscription_types SET
			name = $2, description = $3, base_price = $4, duration_days = $5, updated_at = $6
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		st.ID, st.Name, st.Description, st.BasePrice, st.DurationDays, st.UpdatedAt,
	)
	if err != nil {
		if cerr := constraintError("subscription_type", err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("failed to update subscription type: %w", err)
	}
	return requireOneRow(result, "subscription_type", st.ID)
}

// List returns every plan ordered by name
func (r *SubscriptionTypeRepository) List(ctx context.Context) ([]models.SubscriptionType, error) {
	types := make([]models.SubscriptionType, 0)
	query := `SELECT ` + subscriptionTypeColumns + ` FROM subscription_types ORDER BY name`
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("failed to list subscription types: %w", err)
	}
	return types, nil
}
