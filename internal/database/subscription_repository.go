package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clubpulse/lead-conversion-backend/internal/models"
)

const subscriptionColumns = `id, type_id, lead_id, actual_price, start_date, end_date, last_visit,
	visits, payment_status, billing_cycle, auto_renewal, active, created_at, updated_at`

// SubscriptionRepository handles subscription database operations
type SubscriptionRepository struct {
	db Queryer
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db Queryer) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func normalizeSubscription(s *models.Subscription) {
	s.StartDate = models.DateOf(s.StartDate)
	s.EndDate = models.DateOf(s.EndDate)
	s.LastVisit = normalizeDatePtr(s.LastVisit)
}

// Create inserts a new subscription
func (r *SubscriptionRepository) Create(ctx context.Context, s *models.Subscription) error {
	query := `
		INSERT INTO subscriptions (` + subscriptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.TypeID, s.LeadID, s.ActualPrice, s.StartDate, s.EndDate, s.LastVisit,
		s.Visits, s.PaymentStatus, s.BillingCycle, s.AutoRenewal, s.Active, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if cerr := constraintError("subscription", err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

// GetByID retrieves a subscription by ID
func (r *SubscriptionRepository) GetByID(ctx context.Context, id string) (*models.Subscription, error) {
	var s models.Subscription
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	if err := r.db.GetContext(ctx, &s, query, id); err != nil {
		if missingRow(err) {
			return nil, &models.NotFoundError{Entity: "subscription", ID: id}
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	normalizeSubscription(&s)
	return &s, nil
}

// Update overwrites a subscription's mutable fields; type and lead are fixed
func (r *SubscriptionRepository) Update(ctx context.Context, s *models.Subscription) error {
	query := `
		UPDATE subscriptions SET
			actual_price = $2, start_date = $3, end_date = $4, last_visit = $5, visits = $6,
			payment_status = $7, billing_cycle = $8, auto_renewal = $9, active = $10, updated_at = $11
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		s.ID, s.ActualPrice, s.StartDate, s.EndDate, s.LastVisit, s.Visits,
		s.PaymentStatus, s.BillingCycle, s.AutoRenewal, s.Active, s.UpdatedAt,
	)
	if err != nil {
		if cerr := constraintError("subscription", err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	return requireOneRow(result, "subscription", s.ID)
}

// List returns subscriptions matching filter, most recent start first
func (r *SubscriptionRepository) List(ctx context.Context, filter SubscriptionFilter) ([]models.Subscription, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.LeadID != "" {
		args = append(args, filter.LeadID)
		conditions = append(conditions, fmt.Sprintf("lead_id = $%d", len(args)))
	}
	if filter.ActiveOnly {
		conditions = append(conditions, "active")
	}

	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY start_date DESC, id`

	subs := make([]models.Subscription, 0)
	if err := r.db.SelectContext(ctx, &subs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	for i := range subs {
		normalizeSubscription(&subs[i])
	}
	return subs, nil
}

// Expire deactivates active subscriptions that ended on or before asOf
func (r *SubscriptionRepository) Expire(ctx context.Context, asOf, now time.Time) (int, error) {
	query := `UPDATE subscriptions SET active = FALSE, updated_at = $2 WHERE active AND end_date <= $1`
	result, err := r.db.ExecContext(ctx, query, asOf, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire subscriptions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return int(n), nil
}
